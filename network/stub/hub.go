package stub

import (
	"fmt"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
	"github.com/quorumchain/bft/model/encoding"
)

// message types, also used as metric labels
const (
	KindProposal                 = "proposal"
	KindVote                     = "vote"
	KindGetVerticesRequest       = "get_vertices_request"
	KindGetVerticesResponse      = "get_vertices_response"
	KindGetVerticesErrorResponse = "get_vertices_error_response"
)

// Receiver is the inbound side of a replica.
type Receiver interface {
	OnProposal(proposal *model.Proposal)
	OnVote(vote *model.Vote)
	OnGetVerticesRequest(request model.GetVerticesRequest)
	OnGetVerticesResponse(response model.GetVerticesResponse)
	OnGetVerticesErrorResponse(response model.GetVerticesErrorResponse)
}

// Metrics is implemented by metrics.NetworkCollector.
type Metrics interface {
	MessageSent(message string)
	MessageReceived(message string)
	MessageDropped(message string)
}

// Filter reports whether a message of the given kind from sender reaches
// target. It is used to partition the network or lose messages.
type Filter func(sender, target chain.Identifier, kind string) bool

// Hub is an in-process network connecting the replicas of a simulation.
// Messages are encoded on send and decoded on delivery, so replicas never
// share memory. Delivery is asynchronous and unordered across workers.
type Hub struct {
	log     zerolog.Logger
	metrics Metrics
	pool    *workerpool.WorkerPool
	stopped *atomic.Bool

	mu        sync.RWMutex
	receivers map[chain.Identifier]Receiver
	filter    Filter
}

type noopMetrics struct{}

func (noopMetrics) MessageSent(string)     {}
func (noopMetrics) MessageReceived(string) {}
func (noopMetrics) MessageDropped(string)  {}

// NewHub creates a hub delivering messages with the given number of workers.
// metrics may be nil.
func NewHub(log zerolog.Logger, workers int, metrics Metrics) *Hub {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Hub{
		log:       log.With().Str("component", "stub_network").Logger(),
		metrics:   metrics,
		pool:      workerpool.New(workers),
		stopped:   atomic.NewBool(false),
		receivers: make(map[chain.Identifier]Receiver),
	}
}

// Conduit returns the outbound side of nodeID. A replica needs its conduit
// before it can be built, so sending and receiving are wired separately.
func (h *Hub) Conduit(nodeID chain.Identifier) *Conduit {
	return &Conduit{
		nodeID: nodeID,
		hub:    h,
	}
}

// Register delivers messages addressed to nodeID to receiver. Messages for
// unregistered nodes are dropped.
func (h *Hub) Register(nodeID chain.Identifier, receiver Receiver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.receivers[nodeID] = receiver
}

// SetFilter replaces the delivery filter. A nil filter delivers everything.
func (h *Hub) SetFilter(filter Filter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.filter = filter
}

// Stop waits for in-flight deliveries. Messages sent afterwards are dropped.
func (h *Hub) Stop() {
	h.mu.Lock()
	alreadyStopped := h.stopped.Swap(true)
	h.mu.Unlock()
	if !alreadyStopped {
		h.pool.StopWait()
	}
}

// send delivers message to every target. It never blocks on the receivers.
func (h *Hub) send(sender chain.Identifier, kind string, message interface{}, targets ...chain.Identifier) {
	payload, err := encoding.DefaultEncoder.Encode(message)
	if err != nil {
		// our own messages always encode
		h.log.Error().Err(err).Str("message", kind).Msg("could not encode message")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, target := range targets {
		h.metrics.MessageSent(kind)
		if h.stopped.Load() {
			h.metrics.MessageDropped(kind)
			continue
		}
		if h.filter != nil && !h.filter(sender, target, kind) {
			h.metrics.MessageDropped(kind)
			continue
		}
		receiver, ok := h.receivers[target]
		if !ok {
			h.log.Debug().Hex("target", target[:]).Str("message", kind).Msg("unknown target, dropping message")
			h.metrics.MessageDropped(kind)
			continue
		}

		h.pool.Submit(func() {
			err := deliver(receiver, kind, payload)
			if err != nil {
				h.log.Error().Err(err).Str("message", kind).Msg("could not deliver message")
				h.metrics.MessageDropped(kind)
				return
			}
			h.metrics.MessageReceived(kind)
		})
	}
}

func deliver(receiver Receiver, kind string, payload []byte) error {
	decoder := encoding.DefaultEncoder
	switch kind {
	case KindProposal:
		var proposal model.Proposal
		if err := decoder.Decode(payload, &proposal); err != nil {
			return fmt.Errorf("could not decode proposal: %w", err)
		}
		receiver.OnProposal(&proposal)
	case KindVote:
		var vote model.Vote
		if err := decoder.Decode(payload, &vote); err != nil {
			return fmt.Errorf("could not decode vote: %w", err)
		}
		receiver.OnVote(&vote)
	case KindGetVerticesRequest:
		var request model.GetVerticesRequest
		if err := decoder.Decode(payload, &request); err != nil {
			return fmt.Errorf("could not decode vertex request: %w", err)
		}
		receiver.OnGetVerticesRequest(request)
	case KindGetVerticesResponse:
		var response model.GetVerticesResponse
		if err := decoder.Decode(payload, &response); err != nil {
			return fmt.Errorf("could not decode vertex response: %w", err)
		}
		receiver.OnGetVerticesResponse(response)
	case KindGetVerticesErrorResponse:
		var response model.GetVerticesErrorResponse
		if err := decoder.Decode(payload, &response); err != nil {
			return fmt.Errorf("could not decode vertex error response: %w", err)
		}
		receiver.OnGetVerticesErrorResponse(response)
	default:
		return fmt.Errorf("unknown message type %q", kind)
	}
	return nil
}
