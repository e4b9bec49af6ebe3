package hotstuff

import (
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// Consumer consumes outbound notifications produced by the consensus
// components. Implementations must be non-blocking and concurrency safe;
// they are called from within the event loop.
type Consumer interface {
	// OnEventProcessed is called after the event loop handled one event.
	OnEventProcessed()

	// OnReceiveProposal is called when a proposal passed validation and is
	// handed to the event handler.
	OnReceiveProposal(currentView uint64, proposal *model.Proposal)

	// OnReceiveVote is called when a vote passed validation and is handed
	// to the event handler.
	OnReceiveVote(currentView uint64, vote *model.Vote)

	// OnEnteringView is called when the pacemaker moved to a new view.
	OnEnteringView(update model.ViewUpdate)

	// OnStartingTimeout is called when the pacemaker armed the local timer.
	OnStartingTimeout(timeout model.LocalTimeout)

	// OnLocalTimeout is called when the local timer of the current view fired.
	OnLocalTimeout(timeout model.LocalTimeout)

	// OnVertexInserted is called when a vertex was prepared and inserted.
	OnVertexInserted(update model.BFTInsertUpdate)

	// OnVertexCommitted is called when the vertex store advanced its root.
	OnVertexCommitted(update model.BFTCommittedUpdate)

	// OnQuorumReached is called when votes formed a QC or TC.
	OnQuorumReached(event model.ViewQuorumReached)

	// OnVoting is called right before a vote leaves the replica.
	OnVoting(vote *model.Vote)

	// OnNoVote is called when safety rules refused to vote.
	OnNoVote(event model.NoVote)

	// OnProposing is called right before the leader broadcasts its proposal.
	OnProposing(proposal *model.Proposal)

	// OnVoteRejected is called when the vote aggregator dropped a vote.
	OnVoteRejected(vote *model.Vote, reason model.VoteRejectReason)

	// OnInvalidMessage is called when an inbound message failed validation.
	OnInvalidMessage(err error)

	// OnSyncRequested is called when the replica asks a peer for missing vertices.
	OnSyncRequested(request model.GetVerticesRequest, target chain.Identifier)

	// OnEpochStarted is called when a consensus instance for an epoch starts.
	OnEpochStarted(epoch uint64)
}

// VertexStoreEvents receives the events the vertex store produces for the
// event handler. Implementations queue them into the event loop.
type VertexStoreEvents interface {
	OnBFTInsertUpdate(update model.BFTInsertUpdate)
}
