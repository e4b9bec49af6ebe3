package operation

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
	"github.com/quorumchain/bft/model/encoding"
)

// InsertCommittedVertex records a committed vertex under its epoch and view.
// It errors with storage.ErrAlreadyExists if the vertex was recorded before.
func InsertCommittedVertex(networkID string, vertex *model.PreparedVertex) func(*badger.Txn) error {
	return insert(makePrefix(codeCommittedVertex, networkID, vertex.Vertex.Epoch, vertex.View()), vertex)
}

// TraverseCommittedVertices calls handle for every committed vertex, ordered
// by epoch and view.
func TraverseCommittedVertices(networkID string, handle func(*model.PreparedVertex) error) func(*badger.Txn) error {
	return traverse(makePrefix(codeCommittedVertex, networkID), func(val []byte) error {
		var vertex model.PreparedVertex
		err := encoding.DefaultEncoder.Decode(val, &vertex)
		if err != nil {
			return fmt.Errorf("could not decode committed vertex: %w", err)
		}
		return handle(&vertex)
	})
}

// UpsertLedgerTip stores the header of the last committed ledger state.
func UpsertLedgerTip(networkID string, tip *chain.LedgerHeader) func(*badger.Txn) error {
	return upsert(makePrefix(codeLedgerTip, networkID), tip)
}

func RetrieveLedgerTip(networkID string, tip *chain.LedgerHeader) func(*badger.Txn) error {
	return retrieve(makePrefix(codeLedgerTip, networkID), tip)
}
