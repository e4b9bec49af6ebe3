package hotstuff

import (
	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// SafetyRules enforces all consensus rules that guarantee safety. It is the
// only component that signs votes, timeouts and proposals, and it persists
// its state before any signed message is returned.
//
// All methods return a model.NoVoteError when the replica must not sign.
// This is expected during normal operation. Any other error is fatal: the
// replica can no longer prove it will not equivocate.
type SafetyRules interface {
	// VoteFor produces a vote for a prepared vertex. Calling it again for
	// the vertex last voted for returns the identical vote.
	VoteFor(prepared *model.PreparedVertex, highQC model.HighQC) (*model.Vote, error)

	// SignTimeout produces a timeout vote for view. If the replica already
	// voted for a vertex in view, the same vote is returned with a timeout
	// signature attached.
	SignTimeout(view uint64, highQC model.HighQC) (*model.Vote, error)

	// GetLastVote returns the vote the replica cast in view, if any.
	GetLastVote(view uint64) (*model.Vote, bool)

	// SignProposal signs a vertex proposed by this replica.
	SignProposal(vertex *model.Vertex, highQC model.HighQC) (*model.Proposal, error)
}
