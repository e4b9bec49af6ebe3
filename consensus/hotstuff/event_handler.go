package hotstuff

import (
	"context"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// EventHandler runs the state machine of one epoch's consensus instance.
// It reduces every inbound event (proposals, votes, local timeouts, vertex
// insertions, view updates and sync traffic) against safety rules, vertex
// store, pacemaker and vote aggregator, and emits the resulting messages.
//
// Errors returned by the handler are fatal. Invalid or untimely messages
// are dropped internally.
//
// EventHandler is not concurrency safe. The event loop serializes all calls.
type EventHandler interface {
	Start(ctx context.Context) error

	OnProposal(proposal *model.Proposal) error
	OnVote(vote *model.Vote) error
	OnLocalTimeout(timeout model.LocalTimeout) error
	OnBFTInsertUpdate(update model.BFTInsertUpdate) error
	OnViewUpdate(update model.ViewUpdate) error
	OnViewQuorumReached(event model.ViewQuorumReached) error

	OnGetVerticesRequest(request model.GetVerticesRequest) error
	OnGetVerticesResponse(response model.GetVerticesResponse) error
	OnGetVerticesErrorResponse(response model.GetVerticesErrorResponse) error
	OnVertexRequestTimeout(timeout model.VertexRequestTimeout) error

	// TimeoutChannel returns the channel of the pacemaker's armed timer.
	TimeoutChannel() <-chan model.LocalTimeout
}

// QuorumEvents receives the certificates the event handler's vote
// aggregation formed. Implementations queue them into the event loop.
type QuorumEvents interface {
	OnViewQuorumReached(event model.ViewQuorumReached)
}
