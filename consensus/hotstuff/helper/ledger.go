package helper

import (
	"fmt"
	"sync"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/storage"
)

// Ledger is a deterministic test ledger. Prepared ledger headers follow
// MakeLedgerHeader, so QCs built with MakeQC match prepared vertices.
type Ledger struct {
	mu        sync.Mutex
	committed []*model.PreparedVertex
	commits   int
}

var _ hotstuff.Ledger = (*Ledger)(nil)

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Prepare(previous []*model.PreparedVertex, vertex *model.Vertex) (*model.PreparedVertex, error) {
	if len(previous) == 0 {
		return nil, fmt.Errorf("no root to prepare against")
	}
	parent := previous[len(previous)-1]
	if parent.VertexID != vertex.ParentID() {
		return nil, fmt.Errorf("last previous vertex %v is not the parent %v", parent.VertexID, vertex.ParentID())
	}
	return model.NewPreparedVertex(vertex, vertex.Payload, MakeLedgerHeader(vertex)), nil
}

func (l *Ledger) Commit(committed []*model.PreparedVertex, _ *model.QuorumCertificate) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.committed = append(l.committed, committed...)
	l.commits++
	return nil
}

// Committed returns every committed vertex in commit order.
func (l *Ledger) Committed() []*model.PreparedVertex {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]*model.PreparedVertex, len(l.committed))
	copy(cp, l.committed)
	return cp
}

// CommittedViews returns the views of every committed vertex in commit order.
func (l *Ledger) CommittedViews() []uint64 {
	committed := l.Committed()
	views := make([]uint64, 0, len(committed))
	for _, v := range committed {
		views = append(views, v.View())
	}
	return views
}

// Persister keeps persisted consensus state in memory.
type Persister struct {
	mu          sync.Mutex
	safety      *model.SafetyState
	vertexStore *model.VertexStoreState
	epochChange *model.EpochChange
	Writes      int
}

var _ hotstuff.Persister = (*Persister)(nil)

func NewPersister() *Persister {
	return &Persister{}
}

func (p *Persister) GetSafetyState() (*model.SafetyState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.safety == nil {
		return nil, storage.ErrNotFound
	}
	cp := *p.safety
	return &cp, nil
}

func (p *Persister) PutSafetyState(state *model.SafetyState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := *state
	p.safety = &cp
	p.Writes++
	return nil
}

func (p *Persister) GetVertexStoreState() (*model.VertexStoreState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.vertexStore == nil {
		return nil, storage.ErrNotFound
	}
	return p.vertexStore, nil
}

func (p *Persister) PutVertexStoreState(state *model.VertexStoreState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vertexStore = state
	p.Writes++
	return nil
}

func (p *Persister) GetEpochChange() (*model.EpochChange, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.epochChange == nil {
		return nil, storage.ErrNotFound
	}
	return p.epochChange, nil
}

func (p *Persister) PutEpochChange(change *model.EpochChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.epochChange = change
	p.Writes++
	return nil
}
