package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// UpsertSafetyState stores the safety state of a replica on network networkID.
func UpsertSafetyState(networkID string, state *model.SafetyState) func(*badger.Txn) error {
	return upsert(makePrefix(codeSafetyState, networkID), state)
}

// RetrieveSafetyState retrieves the safety state of a replica on network networkID.
func RetrieveSafetyState(networkID string, state *model.SafetyState) func(*badger.Txn) error {
	return retrieve(makePrefix(codeSafetyState, networkID), state)
}

// UpsertVertexStoreState stores the vertex tree of a replica.
func UpsertVertexStoreState(networkID string, state *model.VertexStoreState) func(*badger.Txn) error {
	return upsert(makePrefix(codeVertexStoreState, networkID), state)
}

// RetrieveVertexStoreState retrieves the vertex tree of a replica.
func RetrieveVertexStoreState(networkID string, state *model.VertexStoreState) func(*badger.Txn) error {
	return retrieve(makePrefix(codeVertexStoreState, networkID), state)
}

// UpsertEpochChange stores the epoch change the replica is running.
func UpsertEpochChange(networkID string, change *model.EpochChange) func(*badger.Txn) error {
	return upsert(makePrefix(codeEpochChange, networkID), change)
}

// RetrieveEpochChange retrieves the epoch change the replica is running.
func RetrieveEpochChange(networkID string, change *model.EpochChange) func(*badger.Txn) error {
	return retrieve(makePrefix(codeEpochChange, networkID), change)
}
