package operation

import (
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumchain/bft/consensus/hotstuff/helper"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
	"github.com/quorumchain/bft/storage"
	"github.com/quorumchain/bft/utils/unittest"
)

const network = "testnet"

func TestSafetyState(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		var actual model.SafetyState
		err := db.View(RetrieveSafetyState(network, &actual))
		require.ErrorIs(t, err, storage.ErrNotFound)

		expected := &model.SafetyState{Epoch: 2, LastVotedView: 9, LockedView: 7}
		require.NoError(t, RetryOnConflict(db.Update, UpsertSafetyState(network, expected)))

		require.NoError(t, db.View(RetrieveSafetyState(network, &actual)))
		assert.Equal(t, *expected, actual)

		// other networks are isolated
		err = db.View(RetrieveSafetyState("othernet", &actual))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestCommittedVertices(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		_, qc := helper.Genesis(1)
		first := helper.MakeVertex(qc, 1, helper.WithPayload([]byte("a")))
		second := helper.MakeVertex(helper.MakeQC(first), 2)

		for _, v := range []*model.Vertex{second, first} {
			prepared := model.NewPreparedVertex(v, v.Payload, helper.MakeLedgerHeader(v))
			require.NoError(t, db.Update(InsertCommittedVertex(network, prepared)))
		}

		dup := model.NewPreparedVertex(first, nil, helper.MakeLedgerHeader(first))
		err := db.Update(InsertCommittedVertex(network, dup))
		assert.True(t, errors.Is(err, storage.ErrAlreadyExists))

		var views []uint64
		var ids []chain.Identifier
		err = db.View(TraverseCommittedVertices(network, func(v *model.PreparedVertex) error {
			views = append(views, v.View())
			ids = append(ids, v.VertexID)
			return nil
		}))
		require.NoError(t, err)
		assert.Equal(t, []uint64{1, 2}, views)
		assert.Equal(t, []chain.Identifier{first.ID(), second.ID()}, ids)
	})
}

func TestLedgerTip(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		tip := chain.LedgerHeader{
			Epoch:       1,
			View:        4,
			Accumulator: chain.AccumulatorState{Version: 3, Hash: chain.HashToID([]byte("x"))},
			Timestamp:   100,
		}
		require.NoError(t, db.Update(UpsertLedgerTip(network, &tip)))

		var actual chain.LedgerHeader
		require.NoError(t, db.View(RetrieveLedgerTip(network, &actual)))
		assert.True(t, tip.Equals(actual))
	})
}
