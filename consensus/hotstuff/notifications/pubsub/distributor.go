package pubsub

import (
	"sync"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

type OnVertexCommittedConsumer = func(update model.BFTCommittedUpdate)

// Distributor distributes notifications to a list of subscribers (event consumers).
//
// It allows thread-safe subscription of multiple consumers to events.
type Distributor struct {
	subscribers                []hotstuff.Consumer
	vertexCommittedSubscribers []OnVertexCommittedConsumer
	lock                       sync.RWMutex
}

var _ hotstuff.Consumer = (*Distributor)(nil)

func NewDistributor() *Distributor {
	return &Distributor{}
}

// AddConsumer adds an event consumer to the Distributor
func (p *Distributor) AddConsumer(consumer hotstuff.Consumer) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.subscribers = append(p.subscribers, consumer)
}

// AddOnVertexCommittedConsumer registers a callback invoked whenever the root advances.
func (p *Distributor) AddOnVertexCommittedConsumer(consumer OnVertexCommittedConsumer) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.vertexCommittedSubscribers = append(p.vertexCommittedSubscribers, consumer)
}

func (p *Distributor) OnEventProcessed() {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnEventProcessed()
	}
}

func (p *Distributor) OnReceiveProposal(currentView uint64, proposal *model.Proposal) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnReceiveProposal(currentView, proposal)
	}
}

func (p *Distributor) OnReceiveVote(currentView uint64, vote *model.Vote) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnReceiveVote(currentView, vote)
	}
}

func (p *Distributor) OnEnteringView(update model.ViewUpdate) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnEnteringView(update)
	}
}

func (p *Distributor) OnStartingTimeout(timeout model.LocalTimeout) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnStartingTimeout(timeout)
	}
}

func (p *Distributor) OnLocalTimeout(timeout model.LocalTimeout) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnLocalTimeout(timeout)
	}
}

func (p *Distributor) OnVertexInserted(update model.BFTInsertUpdate) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnVertexInserted(update)
	}
}

func (p *Distributor) OnVertexCommitted(update model.BFTCommittedUpdate) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnVertexCommitted(update)
	}
	for _, consumer := range p.vertexCommittedSubscribers {
		consumer(update)
	}
}

func (p *Distributor) OnQuorumReached(event model.ViewQuorumReached) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnQuorumReached(event)
	}
}

func (p *Distributor) OnVoting(vote *model.Vote) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnVoting(vote)
	}
}

func (p *Distributor) OnNoVote(event model.NoVote) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnNoVote(event)
	}
}

func (p *Distributor) OnProposing(proposal *model.Proposal) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnProposing(proposal)
	}
}

func (p *Distributor) OnVoteRejected(vote *model.Vote, reason model.VoteRejectReason) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnVoteRejected(vote, reason)
	}
}

func (p *Distributor) OnInvalidMessage(err error) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnInvalidMessage(err)
	}
}

func (p *Distributor) OnSyncRequested(request model.GetVerticesRequest, target chain.Identifier) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnSyncRequested(request, target)
	}
}

func (p *Distributor) OnEpochStarted(epoch uint64) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	for _, subscriber := range p.subscribers {
		subscriber.OnEpochStarted(epoch)
	}
}
