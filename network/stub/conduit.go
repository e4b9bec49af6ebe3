package stub

import (
	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// Conduit is the outbound side of one replica on a Hub.
type Conduit struct {
	nodeID chain.Identifier
	hub    *Hub
}

var _ hotstuff.Communicator = (*Conduit)(nil)

func (c *Conduit) BroadcastProposal(proposal *model.Proposal, validators []chain.Identifier) {
	c.hub.send(c.nodeID, KindProposal, proposal, validators...)
}

func (c *Conduit) SendVote(vote *model.Vote, leader chain.Identifier) {
	c.hub.send(c.nodeID, KindVote, vote, leader)
}

func (c *Conduit) BroadcastVote(vote *model.Vote, validators []chain.Identifier) {
	c.hub.send(c.nodeID, KindVote, vote, validators...)
}

func (c *Conduit) SendGetVerticesRequest(request model.GetVerticesRequest, target chain.Identifier) {
	c.hub.send(c.nodeID, KindGetVerticesRequest, request, target)
}

func (c *Conduit) SendGetVerticesResponse(response model.GetVerticesResponse, target chain.Identifier) {
	c.hub.send(c.nodeID, KindGetVerticesResponse, response, target)
}

func (c *Conduit) SendGetVerticesErrorResponse(response model.GetVerticesErrorResponse, target chain.Identifier) {
	c.hub.send(c.nodeID, KindGetVerticesErrorResponse, response, target)
}
