package persister

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/storage/badger/operation"
)

// Persister can persist relevant information for hotstuff. Every write is a
// single badger transaction, so it is atomic.
type Persister struct {
	db        *badger.DB
	networkID string
}

var _ hotstuff.Persister = (*Persister)(nil)

// New creates a new persister storing the state of the replica participating
// in network networkID.
func New(db *badger.DB, networkID string) *Persister {
	p := &Persister{
		db:        db,
		networkID: networkID,
	}
	return p
}

// GetSafetyState will retrieve last persisted safety state.
func (p *Persister) GetSafetyState() (*model.SafetyState, error) {
	var state model.SafetyState
	err := p.db.View(operation.RetrieveSafetyState(p.networkID, &state))
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// PutSafetyState persists the safety state.
func (p *Persister) PutSafetyState(state *model.SafetyState) error {
	return operation.TerminateOnFullDisk(operation.RetryOnConflict(p.db.Update, operation.UpsertSafetyState(p.networkID, state)))
}

// GetVertexStoreState will retrieve the last persisted vertex tree.
func (p *Persister) GetVertexStoreState() (*model.VertexStoreState, error) {
	var state model.VertexStoreState
	err := p.db.View(operation.RetrieveVertexStoreState(p.networkID, &state))
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// PutVertexStoreState persists the vertex tree.
func (p *Persister) PutVertexStoreState(state *model.VertexStoreState) error {
	return operation.RetryOnConflict(p.db.Update, operation.UpsertVertexStoreState(p.networkID, state))
}

// GetEpochChange will retrieve the epoch change the replica last started.
func (p *Persister) GetEpochChange() (*model.EpochChange, error) {
	var change model.EpochChange
	err := p.db.View(operation.RetrieveEpochChange(p.networkID, &change))
	if err != nil {
		return nil, err
	}
	return &change, nil
}

// PutEpochChange persists the epoch change the replica starts next.
func (p *Persister) PutEpochChange(change *model.EpochChange) error {
	return operation.RetryOnConflict(p.db.Update, operation.UpsertEpochChange(p.networkID, change))
}
