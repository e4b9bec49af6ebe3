package eventloop

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/module/component"
	"github.com/quorumchain/bft/module/fifoqueue"
	"github.com/quorumchain/bft/module/irrecoverable"
)

// EventLoop serializes all events of one epoch's consensus instance onto a
// single goroutine that drives the EventHandler.
//
// Events produced by the consensus components themselves (view updates,
// vertex insertions, formed certificates and sync timeouts) are queued
// without bound and are always handled before messages from the network.
// Network messages go through a bounded queue and are dropped when it is full.
// Local timeouts are handled ahead of both.
type EventLoop struct {
	*component.ComponentManager
	log      zerolog.Logger
	handler  hotstuff.EventHandler
	internal *fifoqueue.FifoQueue[interface{}]
	inbound  *fifoqueue.FifoQueue[interface{}]
	notifier component.Notifier
}

var (
	_ hotstuff.PacemakerEvents   = (*EventLoop)(nil)
	_ hotstuff.VertexStoreEvents = (*EventLoop)(nil)
	_ hotstuff.SyncEvents        = (*EventLoop)(nil)
	_ hotstuff.QuorumEvents      = (*EventLoop)(nil)
	_ component.Component        = (*EventLoop)(nil)
)

func New(log zerolog.Logger, epoch uint64, opts ...Option) (*EventLoop, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	internal, err := fifoqueue.New[interface{}]()
	if err != nil {
		return nil, fmt.Errorf("could not create internal event queue: %w", err)
	}
	inbound, err := fifoqueue.New(
		fifoqueue.WithCapacity[interface{}](cfg.inboundCapacity),
		fifoqueue.WithLengthObserver[interface{}](cfg.lengthObserver),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create inbound message queue: %w", err)
	}

	el := &EventLoop{
		log:      log.With().Str("hotstuff", "event_loop").Uint64("epoch", epoch).Logger(),
		internal: internal,
		inbound:  inbound,
		notifier: component.NewNotifier(),
	}
	el.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(el.loop).
		Build()
	return el, nil
}

// SetEventHandler binds the handler the loop drives. The handler's components
// need the loop as their event sink, so the two are wired after construction.
// It must be called before Start.
func (el *EventLoop) SetEventHandler(handler hotstuff.EventHandler) {
	el.handler = handler
}

func (el *EventLoop) loop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	if el.handler == nil {
		ctx.Throw(fmt.Errorf("event loop started without event handler"))
	}
	err := el.handler.Start(ctx)
	if err != nil {
		ctx.Throw(fmt.Errorf("could not start event handler: %w", err))
	}
	ready()

	shutdown := ctx.Done()
	for {
		// the pacemaker re-arms its timer on every view change
		timeoutChannel := el.handler.TimeoutChannel()

		select {
		case <-shutdown:
			return
		case timeout := <-timeoutChannel:
			el.processTimeout(ctx, timeout)
			continue
		default:
		}

		processed, err := el.processNext()
		if err != nil {
			ctx.Throw(err)
		}
		if processed {
			continue
		}

		select {
		case <-shutdown:
			return
		case timeout := <-timeoutChannel:
			el.processTimeout(ctx, timeout)
		case <-el.notifier.Channel():
		}
	}
}

func (el *EventLoop) processTimeout(ctx irrecoverable.SignalerContext, timeout model.LocalTimeout) {
	err := el.handler.OnLocalTimeout(timeout)
	if err != nil {
		ctx.Throw(fmt.Errorf("could not process local timeout for view %d: %w", timeout.View, err))
	}
}

// processNext handles a single queued event. It returns false if both queues are empty.
func (el *EventLoop) processNext() (bool, error) {
	event, ok := el.internal.Pop()
	if !ok {
		event, ok = el.inbound.Pop()
	}
	if !ok {
		return false, nil
	}
	return true, el.dispatch(event)
}

func (el *EventLoop) dispatch(event interface{}) error {
	switch e := event.(type) {
	case model.ViewUpdate:
		if err := el.handler.OnViewUpdate(e); err != nil {
			return fmt.Errorf("could not process view update for view %d: %w", e.CurrentView, err)
		}
	case model.BFTInsertUpdate:
		if err := el.handler.OnBFTInsertUpdate(e); err != nil {
			return fmt.Errorf("could not process insertion of %s: %w", e.Inserted.Vertex, err)
		}
	case model.ViewQuorumReached:
		if err := el.handler.OnViewQuorumReached(e); err != nil {
			return fmt.Errorf("could not process quorum for view %d: %w", e.Result.View(), err)
		}
	case model.VertexRequestTimeout:
		if err := el.handler.OnVertexRequestTimeout(e); err != nil {
			return fmt.Errorf("could not process timeout of request for vertex %x: %w", e.VertexID, err)
		}
	case *model.Proposal:
		if err := el.handler.OnProposal(e); err != nil {
			return fmt.Errorf("could not process proposal %s: %w", e.Vertex, err)
		}
	case *model.Vote:
		if err := el.handler.OnVote(e); err != nil {
			return fmt.Errorf("could not process vote %s: %w", e, err)
		}
	case model.GetVerticesRequest:
		if err := el.handler.OnGetVerticesRequest(e); err != nil {
			return fmt.Errorf("could not process vertices request from %x: %w", e.Sender, err)
		}
	case model.GetVerticesResponse:
		if err := el.handler.OnGetVerticesResponse(e); err != nil {
			return fmt.Errorf("could not process vertices response from %x: %w", e.Sender, err)
		}
	case model.GetVerticesErrorResponse:
		if err := el.handler.OnGetVerticesErrorResponse(e); err != nil {
			return fmt.Errorf("could not process vertices error response from %x: %w", e.Sender, err)
		}
	default:
		return fmt.Errorf("unexpected event type %T", event)
	}
	return nil
}

func (el *EventLoop) pushInternal(event interface{}) {
	el.internal.Push(event)
	el.notifier.Notify()
}

func (el *EventLoop) pushInbound(event interface{}) bool {
	if !el.inbound.Push(event) {
		el.log.Warn().Str("type", fmt.Sprintf("%T", event)).Msg("inbound queue full, dropping message")
		return false
	}
	el.notifier.Notify()
	return true
}

func (el *EventLoop) OnViewUpdate(update model.ViewUpdate) {
	el.pushInternal(update)
}

func (el *EventLoop) OnBFTInsertUpdate(update model.BFTInsertUpdate) {
	el.pushInternal(update)
}

func (el *EventLoop) OnViewQuorumReached(event model.ViewQuorumReached) {
	el.pushInternal(event)
}

func (el *EventLoop) OnVertexRequestTimeout(timeout model.VertexRequestTimeout) {
	el.pushInternal(timeout)
}

// SubmitProposal queues a proposal received from the network. It returns
// false if the message was dropped.
func (el *EventLoop) SubmitProposal(proposal *model.Proposal) bool {
	return el.pushInbound(proposal)
}

func (el *EventLoop) SubmitVote(vote *model.Vote) bool {
	return el.pushInbound(vote)
}

func (el *EventLoop) SubmitGetVerticesRequest(request model.GetVerticesRequest) bool {
	return el.pushInbound(request)
}

func (el *EventLoop) SubmitGetVerticesResponse(response model.GetVerticesResponse) bool {
	return el.pushInbound(response)
}

func (el *EventLoop) SubmitGetVerticesErrorResponse(response model.GetVerticesErrorResponse) bool {
	return el.pushInbound(response)
}
