package epochs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/bftsync"
	"github.com/quorumchain/bft/consensus/hotstuff/committees"
	"github.com/quorumchain/bft/consensus/hotstuff/eventhandler"
	"github.com/quorumchain/bft/consensus/hotstuff/eventloop"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/consensus/hotstuff/pacemaker"
	"github.com/quorumchain/bft/consensus/hotstuff/pacemaker/timeout"
	"github.com/quorumchain/bft/consensus/hotstuff/pendingvotes"
	"github.com/quorumchain/bft/consensus/hotstuff/safetyrules"
	"github.com/quorumchain/bft/consensus/hotstuff/validator"
	"github.com/quorumchain/bft/consensus/hotstuff/vertexstore"
	"github.com/quorumchain/bft/model/chain"
	"github.com/quorumchain/bft/module/component"
	"github.com/quorumchain/bft/module/fifoqueue"
	"github.com/quorumchain/bft/module/irrecoverable"
	"github.com/quorumchain/bft/storage"
)

// Ledger is the ledger the epoch manager starts epochs on.
type Ledger interface {
	hotstuff.Ledger
	// Tip returns the header of the last committed ledger state.
	Tip() chain.LedgerHeader
}

// message is an inbound consensus message waiting to be handed to the event
// loop of its epoch.
type message struct {
	epoch  uint64
	kind   string
	submit func(*eventloop.EventLoop) bool
}

// instance is the consensus stack of one epoch.
type instance struct {
	epoch  uint64
	loop   *eventloop.EventLoop
	syncer *bftsync.BFTSync
	cancel context.CancelFunc
}

// EpochManager runs one consensus instance per epoch. It starts the instance
// of the epoch the replica last entered, routes inbound messages to it, and
// replaces it when the ledger commits an epoch change.
//
// Messages of past epochs are dropped. Messages of future epochs are held in
// a bounded buffer and replayed once that epoch starts.
type EpochManager struct {
	*component.ComponentManager
	log          zerolog.Logger
	cfg          Config
	self         chain.Identifier
	genesis      model.EpochChange
	signer       hotstuff.Signer
	verifier     hotstuff.Verifier
	persister    hotstuff.Persister
	ledger       Ledger
	mempool      hotstuff.Mempool
	communicator hotstuff.Communicator
	notifier     hotstuff.Consumer

	inboundObserver fifoqueue.LengthObserver

	// ledger updates are handled on the manager's worker, never on the
	// committing event loop, which the update may shut down
	updates       *fifoqueue.FifoQueue[model.LedgerUpdate]
	updatesNotify component.Notifier

	mu       sync.Mutex
	epoch    uint64
	current  *instance // nil while switching or if the replica is not a validator
	future   *fifoqueue.FifoQueue[message]
}

// New creates an epoch manager. genesis describes the first epoch and is
// used unless a later epoch change was persisted.
func New(
	log zerolog.Logger,
	cfg Config,
	self chain.Identifier,
	genesis model.EpochChange,
	signer hotstuff.Signer,
	verifier hotstuff.Verifier,
	persister hotstuff.Persister,
	ledger Ledger,
	mempool hotstuff.Mempool,
	communicator hotstuff.Communicator,
	notifier hotstuff.Consumer,
	opts ...Option,
) (*EpochManager, error) {
	updates, err := fifoqueue.New[model.LedgerUpdate]()
	if err != nil {
		return nil, fmt.Errorf("could not create ledger update queue: %w", err)
	}
	future, err := fifoqueue.New(fifoqueue.WithCapacity[message](cfg.MaxFutureMessages))
	if err != nil {
		return nil, fmt.Errorf("could not create future message buffer: %w", err)
	}

	m := &EpochManager{
		log:           log.With().Str("component", "epoch_manager").Logger(),
		cfg:           cfg,
		self:          self,
		genesis:       genesis,
		signer:        signer,
		verifier:      verifier,
		persister:     persister,
		ledger:        ledger,
		mempool:       mempool,
		communicator:  communicator,
		notifier:      notifier,
		updates:       updates,
		updatesNotify: component.NewNotifier(),
		future:        future,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(m.run).
		Build()
	return m, nil
}

// CurrentEpoch returns the epoch inbound messages are currently routed to.
func (m *EpochManager) CurrentEpoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// FutureMessages returns the number of messages held for epochs not started yet.
func (m *EpochManager) FutureMessages() int {
	return m.future.Len()
}

func (m *EpochManager) run(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	change, err := m.initialEpoch()
	if err != nil {
		ctx.Throw(err)
	}
	err = m.startEpoch(ctx, change, true)
	if err != nil {
		ctx.Throw(err)
	}
	ready()

	for {
		select {
		case <-ctx.Done():
			m.stopCurrent()
			return
		case <-m.updatesNotify.Channel():
			err := m.processUpdates(ctx)
			if err != nil {
				ctx.Throw(err)
			}
		}
	}
}

// initialEpoch determines the epoch to start with after a (re)start. If the
// ledger committed an epoch change whose epoch was never started, that one
// takes precedence over the persisted change.
func (m *EpochManager) initialEpoch() (model.EpochChange, error) {
	change := m.genesis
	persisted, err := m.persister.GetEpochChange()
	if err == nil {
		change = *persisted
	} else if !errors.Is(err, storage.ErrNotFound) {
		return model.EpochChange{}, fmt.Errorf("could not load epoch change: %w", err)
	}

	tip := m.ledger.Tip()
	if tip.IsEndOfEpoch() && tip.Epoch+1 > change.Epoch {
		change = model.EpochChange{
			Epoch:      tip.Epoch + 1,
			Validators: tip.NextValidators,
			Ledger:     tip,
		}
	}
	return change, nil
}

func (m *EpochManager) processUpdates(ctx irrecoverable.SignalerContext) error {
	for {
		update, ok := m.updates.Pop()
		if !ok {
			return nil
		}
		if update.EpochChange == nil {
			continue
		}
		m.mu.Lock()
		stale := update.EpochChange.Epoch <= m.epoch
		m.mu.Unlock()
		if stale {
			continue
		}

		err := m.persister.PutEpochChange(update.EpochChange)
		if err != nil {
			return fmt.Errorf("could not persist epoch change to epoch %d: %w", update.EpochChange.Epoch, err)
		}
		m.stopCurrent()
		err = m.startEpoch(ctx, *update.EpochChange, false)
		if err != nil {
			return err
		}
	}
}

// startEpoch builds and starts the consensus instance of change.Epoch and
// replays the messages buffered for it. On restart, the persisted vertex
// tree is reused if it belongs to the epoch.
func (m *EpochManager) startEpoch(ctx irrecoverable.SignalerContext, change model.EpochChange, restart bool) error {
	log := m.log.With().Uint64("epoch", change.Epoch).Logger()

	validators, err := committees.NewValidatorSet(change.Epoch, change.Validators)
	if err != nil {
		return fmt.Errorf("invalid validator set for epoch %d: %w", change.Epoch, err)
	}

	var inst *instance
	if validators.Contains(m.self) {
		state := model.GenesisVertexStoreState(change.GenesisLedger())
		if restart {
			state, err = m.restoredState(change.Epoch, state)
			if err != nil {
				return err
			}
		}
		inst, err = m.buildInstance(ctx, log, validators, state)
		if err != nil {
			return fmt.Errorf("could not build consensus for epoch %d: %w", change.Epoch, err)
		}
	} else {
		log.Warn().Msg("replica is not a validator of the epoch, consensus is not started")
	}

	m.mu.Lock()
	m.epoch = change.Epoch
	m.current = inst
	replayed, dropped := m.replayFuture()
	m.mu.Unlock()

	m.notifier.OnEpochStarted(change.Epoch)
	log.Info().
		Int("validators", validators.Size()).
		Int("replayed", replayed).
		Int("dropped", dropped).
		Msg("epoch started")
	return nil
}

func (m *EpochManager) restoredState(epoch uint64, genesis *model.VertexStoreState) (*model.VertexStoreState, error) {
	state, err := m.persister.GetVertexStoreState()
	if errors.Is(err, storage.ErrNotFound) {
		return genesis, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not load vertex store state: %w", err)
	}
	if state.Epoch() != epoch {
		return genesis, nil
	}
	return state, nil
}

func (m *EpochManager) buildInstance(
	parent irrecoverable.SignalerContext,
	log zerolog.Logger,
	validators *committees.ValidatorSet,
	state *model.VertexStoreState,
) (*instance, error) {
	epoch := validators.Epoch()

	loop, err := eventloop.New(log, epoch, m.cfg.loopOptions(m.inboundObserver)...)
	if err != nil {
		return nil, fmt.Errorf("could not create event loop: %w", err)
	}
	vertexStore, err := vertexstore.New(log, m.ledger, m.persister, loop, m.notifier, state)
	if err != nil {
		return nil, fmt.Errorf("could not create vertex store: %w", err)
	}
	safetyRules, err := safetyrules.New(log, m.signer, m.persister, validators)
	if err != nil {
		return nil, fmt.Errorf("could not create safety rules: %w", err)
	}
	pm := pacemaker.New(log, m.self, validators, vertexStore, safetyRules, m.communicator,
		m.mempool, timeout.NewController(m.cfg.Timeout), m.notifier, loop)
	syncer, err := bftsync.New(log, m.self, validators, vertexStore, m.communicator, m.notifier, loop, m.cfg.Sync)
	if err != nil {
		return nil, fmt.Errorf("could not create vertex sync: %w", err)
	}
	handler := eventhandler.New(log, m.self, validators, validator.New(validators, m.verifier), pm,
		vertexStore, safetyRules, pendingvotes.New(), syncer, m.communicator, m.notifier, loop,
		m.cfg.handlerOptions()...)
	loop.SetEventHandler(handler)

	// the instance's errors are fatal for the whole replica
	ctx, cancel := context.WithCancel(parent)
	signalerCtx, errChan := irrecoverable.WithSignaler(ctx)
	go func() {
		select {
		case err := <-errChan:
			if err != nil {
				parent.Throw(fmt.Errorf("consensus of epoch %d failed: %w", epoch, err))
			}
		case <-ctx.Done():
		}
	}()
	loop.Start(signalerCtx)

	return &instance{
		epoch:  epoch,
		loop:   loop,
		syncer: syncer,
		cancel: cancel,
	}, nil
}

// stopCurrent shuts the running instance down and waits for its event loop
// to exit. Messages of its epoch arriving meanwhile are dropped.
func (m *EpochManager) stopCurrent() {
	m.mu.Lock()
	inst := m.current
	m.current = nil
	m.mu.Unlock()
	if inst == nil {
		return
	}

	inst.cancel()
	<-inst.loop.Done()
	inst.syncer.Stop()
	m.log.Info().Uint64("epoch", inst.epoch).Msg("epoch stopped")
}

// replayFuture hands the buffered messages of the current epoch to its
// instance and keeps those of later epochs. Must be called with mu held.
func (m *EpochManager) replayFuture() (replayed int, dropped int) {
	var keep []message
	for {
		msg, ok := m.future.Pop()
		if !ok {
			break
		}
		switch {
		case msg.epoch > m.epoch:
			keep = append(keep, msg)
		case msg.epoch == m.epoch && m.current != nil && msg.submit(m.current.loop):
			replayed++
		default:
			dropped++
		}
	}
	for _, msg := range keep {
		m.future.Push(msg)
	}
	return replayed, dropped
}

func (m *EpochManager) route(msg message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case msg.epoch < m.epoch:
		m.log.Debug().
			Str("message", msg.kind).
			Uint64("message_epoch", msg.epoch).
			Msg("dropping message of past epoch")
	case msg.epoch > m.epoch:
		if !m.future.Push(msg) {
			m.log.Warn().
				Str("message", msg.kind).
				Uint64("message_epoch", msg.epoch).
				Msg("future epoch buffer full, dropping message")
		}
	case m.current == nil:
		m.log.Debug().Str("message", msg.kind).Msg("no consensus running, dropping message")
	default:
		msg.submit(m.current.loop)
	}
}

// OnLedgerUpdate queues a ledger update. It is called by the ledger on the
// committing event loop and does not block.
func (m *EpochManager) OnLedgerUpdate(update model.LedgerUpdate) {
	m.updates.Push(update)
	m.updatesNotify.Notify()
}

func (m *EpochManager) OnProposal(proposal *model.Proposal) {
	m.route(message{
		epoch: proposal.Epoch(),
		kind:  "proposal",
		submit: func(loop *eventloop.EventLoop) bool {
			return loop.SubmitProposal(proposal)
		},
	})
}

func (m *EpochManager) OnVote(vote *model.Vote) {
	m.route(message{
		epoch: vote.Epoch,
		kind:  "vote",
		submit: func(loop *eventloop.EventLoop) bool {
			return loop.SubmitVote(vote)
		},
	})
}

func (m *EpochManager) OnGetVerticesRequest(request model.GetVerticesRequest) {
	m.route(message{
		epoch: request.Epoch,
		kind:  "get_vertices_request",
		submit: func(loop *eventloop.EventLoop) bool {
			return loop.SubmitGetVerticesRequest(request)
		},
	})
}

func (m *EpochManager) OnGetVerticesResponse(response model.GetVerticesResponse) {
	m.route(message{
		epoch: response.Epoch,
		kind:  "get_vertices_response",
		submit: func(loop *eventloop.EventLoop) bool {
			return loop.SubmitGetVerticesResponse(response)
		},
	})
}

func (m *EpochManager) OnGetVerticesErrorResponse(response model.GetVerticesErrorResponse) {
	m.route(message{
		epoch: response.Epoch,
		kind:  "get_vertices_error_response",
		submit: func(loop *eventloop.EventLoop) bool {
			return loop.SubmitGetVerticesErrorResponse(response)
		},
	})
}
