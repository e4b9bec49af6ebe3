package notifications

import (
	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// NoopConsumer is an implementation of the notifications consumer that
// doesn't do anything.
type NoopConsumer struct{}

var _ hotstuff.Consumer = (*NoopConsumer)(nil)

func NewNoopConsumer() *NoopConsumer {
	nc := &NoopConsumer{}
	return nc
}

func (*NoopConsumer) OnEventProcessed() {}

func (*NoopConsumer) OnReceiveProposal(uint64, *model.Proposal) {}

func (*NoopConsumer) OnReceiveVote(uint64, *model.Vote) {}

func (*NoopConsumer) OnEnteringView(model.ViewUpdate) {}

func (*NoopConsumer) OnStartingTimeout(model.LocalTimeout) {}

func (*NoopConsumer) OnLocalTimeout(model.LocalTimeout) {}

func (*NoopConsumer) OnVertexInserted(model.BFTInsertUpdate) {}

func (*NoopConsumer) OnVertexCommitted(model.BFTCommittedUpdate) {}

func (*NoopConsumer) OnQuorumReached(model.ViewQuorumReached) {}

func (*NoopConsumer) OnVoting(*model.Vote) {}

func (*NoopConsumer) OnNoVote(model.NoVote) {}

func (*NoopConsumer) OnProposing(*model.Proposal) {}

func (*NoopConsumer) OnVoteRejected(*model.Vote, model.VoteRejectReason) {}

func (*NoopConsumer) OnInvalidMessage(error) {}

func (*NoopConsumer) OnSyncRequested(model.GetVerticesRequest, chain.Identifier) {}

func (*NoopConsumer) OnEpochStarted(uint64) {}
