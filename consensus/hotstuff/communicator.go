package hotstuff

import (
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// Communicator dispatches outbound consensus messages. All methods are
// fire-and-forget: they must not block on network I/O.
type Communicator interface {
	// BroadcastProposal sends a proposal to every validator, the sender included.
	BroadcastProposal(proposal *model.Proposal, validators []chain.Identifier)

	// SendVote sends a vote to the next leader.
	SendVote(vote *model.Vote, leader chain.Identifier)

	// BroadcastVote sends a timeout vote to every validator, the sender included.
	BroadcastVote(vote *model.Vote, validators []chain.Identifier)

	// SendGetVerticesRequest asks target for missing vertices.
	SendGetVerticesRequest(request model.GetVerticesRequest, target chain.Identifier)

	// SendGetVerticesResponse answers a vertex request.
	SendGetVerticesResponse(response model.GetVerticesResponse, target chain.Identifier)

	// SendGetVerticesErrorResponse tells the requester its request cannot be served.
	SendGetVerticesErrorResponse(response model.GetVerticesErrorResponse, target chain.Identifier)
}
