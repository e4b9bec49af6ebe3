package persister

import (
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumchain/bft/consensus/hotstuff/helper"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/storage"
	"github.com/quorumchain/bft/utils/unittest"
)

func TestSafetyState(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		p := New(db, "net")

		_, err := p.GetSafetyState()
		require.ErrorIs(t, err, storage.ErrNotFound)

		_, genesisQC := helper.Genesis(1)
		v1 := helper.MakeVertex(genesisQC, 1)
		vote := helper.MakeVote(helper.MakeID(), v1)
		vote.HighQC = model.NewHighQC(genesisQC, genesisQC, nil)
		state := &model.SafetyState{Epoch: 1, LastVotedView: 1, LockedView: 0, LastVote: vote}
		require.NoError(t, p.PutSafetyState(state))

		loaded, err := p.GetSafetyState()
		require.NoError(t, err)
		assert.Equal(t, state.LastVotedView, loaded.LastVotedView)
		assert.Equal(t, vote.ID(), loaded.LastVote.ID())

		// overwrite
		state = &model.SafetyState{Epoch: 2}
		require.NoError(t, p.PutSafetyState(state))
		loaded, err = p.GetSafetyState()
		require.NoError(t, err)
		assert.Equal(t, uint64(2), loaded.Epoch)
		assert.Nil(t, loaded.LastVote)
	})
}

func TestVertexStoreState(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		p := New(db, "net")

		_, err := p.GetVertexStoreState()
		require.ErrorIs(t, err, storage.ErrNotFound)

		genesis, genesisQC := helper.Genesis(1)
		v1 := helper.MakeVertex(genesisQC, 1, helper.WithPayload([]byte("a"), []byte("b")))
		qc1 := helper.MakeQC(v1, helper.MakeID())
		v2 := helper.MakeVertex(qc1, 2)
		state := &model.VertexStoreState{
			Root:     genesis,
			RootQC:   genesisQC,
			HighQC:   model.NewHighQC(qc1, genesisQC, &model.TimeoutCertificate{Epoch: 1, View: 3}),
			Vertices: []*model.Vertex{v1, v2},
		}
		require.NoError(t, p.PutVertexStoreState(state))

		loaded, err := p.GetVertexStoreState()
		require.NoError(t, err)
		assert.Equal(t, genesis.ID(), loaded.Root.ID())
		require.Len(t, loaded.Vertices, 2)
		// content hashes survive the round trip through storage
		assert.Equal(t, v1.ID(), loaded.Vertices[0].ID())
		assert.Equal(t, v2.ID(), loaded.Vertices[1].ID())
		assert.Equal(t, qc1.ID(), loaded.HighQC.Highest.ID())
		assert.Equal(t, uint64(3), loaded.HighQC.HighestTC.View)
	})
}

func TestEpochChange_NetworksAreIsolated(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		a := New(db, "a")
		b := New(db, "b")

		change := &model.EpochChange{Epoch: 2, Validators: helper.MakeValidators(4)}
		require.NoError(t, a.PutEpochChange(change))

		loaded, err := a.GetEpochChange()
		require.NoError(t, err)
		assert.Equal(t, uint64(2), loaded.Epoch)
		assert.Len(t, loaded.Validators, 4)

		_, err = b.GetEpochChange()
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}
