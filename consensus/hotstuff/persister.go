package hotstuff

import (
	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// Persister is responsible for persisting the state a replica needs to
// recover after a crash. Every Put is atomic: after a crash either the old
// or the new value is observed, never a mix.
type Persister interface {
	// GetSafetyState will retrieve the last persisted safety state.
	// Returns storage.ErrNotFound if nothing was persisted yet.
	GetSafetyState() (*model.SafetyState, error)

	// PutSafetyState persists the safety state. It returns only once the
	// write is durable.
	PutSafetyState(state *model.SafetyState) error

	// GetVertexStoreState will retrieve the last persisted vertex tree.
	// Returns storage.ErrNotFound if nothing was persisted yet.
	GetVertexStoreState() (*model.VertexStoreState, error)

	// PutVertexStoreState persists the vertex tree.
	PutVertexStoreState(state *model.VertexStoreState) error

	// GetEpochChange returns the epoch change the replica last started.
	// Returns storage.ErrNotFound if the replica never left its genesis epoch.
	GetEpochChange() (*model.EpochChange, error)

	// PutEpochChange persists the epoch change the replica starts next.
	PutEpochChange(change *model.EpochChange) error
}
