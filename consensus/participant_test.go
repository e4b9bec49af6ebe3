package consensus_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumchain/bft/consensus"
	"github.com/quorumchain/bft/consensus/epochs"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/consensus/hotstuff/notifications"
	"github.com/quorumchain/bft/model/chain"
	"github.com/quorumchain/bft/module/irrecoverable"
	"github.com/quorumchain/bft/network/stub"
	"github.com/quorumchain/bft/utils/unittest"
)

func makeIdentities(t *testing.T, n int) ([]consensus.Identity, []chain.Validator) {
	identities := make([]consensus.Identity, 0, n)
	validators := make([]chain.Validator, 0, n)
	for i := 0; i < n; i++ {
		identity, err := consensus.NewIdentity(bytes.Repeat([]byte{byte(i + 1)}, 48), 1)
		require.NoError(t, err)
		identities = append(identities, identity)
		validators = append(validators, identity.Validator)
	}
	return identities, validators
}

func TestNewIdentity(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, 48)
	a, err := consensus.NewIdentity(seed, 3)
	require.NoError(t, err)
	b, err := consensus.NewIdentity(seed, 3)
	require.NoError(t, err)

	assert.Equal(t, a.NodeID, b.NodeID)
	assert.Equal(t, a.NodeID, a.Validator.NodeID)
	assert.Equal(t, chain.HashToID(a.Validator.PublicKey), a.NodeID)
	assert.Equal(t, uint64(3), a.Validator.Weight)

	_, err = consensus.NewIdentity([]byte("short"), 1)
	assert.Error(t, err)
}

// Four replicas connected through the stub network agree on the committed
// commands and move through epoch changes together.
func TestParticipants_CommitAndChangeEpochs(t *testing.T) {
	identities, validators := makeIdentities(t, 4)
	genesis := model.EpochChange{
		Epoch:      1,
		Validators: validators,
		Ledger:     chain.GenesisLedgerHeader(1, chain.AccumulatorState{}, time.Unix(1_700_000_000, 0)),
	}

	cfg := epochs.DefaultConfig()
	cfg.Timeout.Base = 500 * time.Millisecond

	hub := stub.NewHub(unittest.Logger(), 8, nil)
	participants := make([]*consensus.Participant, 0, len(identities))
	for _, identity := range identities {
		dir := unittest.TempDir(t)
		db := unittest.BadgerDB(t, dir)
		t.Cleanup(func() {
			require.NoError(t, db.Close())
			require.NoError(t, os.RemoveAll(dir))
		})

		p, err := consensus.NewParticipant(unittest.Logger(), db, consensus.ParticipantConfig{
			NetworkID:            "testnet",
			Identity:             identity,
			Genesis:              genesis,
			ViewsPerEpoch:        5,
			Validators:           func(uint64) []chain.Validator { return validators },
			MempoolSize:          100,
			MaxCommandsPerVertex: 5,
			Epochs:               cfg,
		}, hub.Conduit(identity.NodeID), notifications.NewNoopConsumer(), nil)
		require.NoError(t, err)
		hub.Register(identity.NodeID, p.Epochs)
		participants = append(participants, p)
	}
	t.Cleanup(hub.Stop)

	var commands [][]byte
	for i := 0; i < 10; i++ {
		command := []byte(fmt.Sprintf("command-%d", i))
		commands = append(commands, command)
		for _, p := range participants {
			require.NoError(t, p.Submit(command))
		}
	}

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	for _, p := range participants {
		p.Start(ctx)
	}
	for _, p := range participants {
		unittest.RequireCloseBefore(t, p.Ready(), 2*time.Second, "participant did not start")
	}

	require.Eventually(t, func() bool {
		for _, p := range participants {
			if len(p.Computer.History()) < len(commands) || p.Epochs.CurrentEpoch() < 2 {
				return false
			}
		}
		return true
	}, 30*time.Second, 50*time.Millisecond)

	cancel()
	for _, p := range participants {
		unittest.RequireCloseBefore(t, p.Done(), 2*time.Second, "participant did not stop")
	}

	reference := participants[0].Computer.History()
	assert.ElementsMatch(t, commands, reference)
	for _, p := range participants[1:] {
		assert.Equal(t, reference, p.Computer.History())
		assert.Equal(t, participants[0].Ledger.Tip().Accumulator.Version, p.Ledger.Tip().Accumulator.Version)
	}
}

// A participant rebuilt on the same database replays its committed ledger.
func TestParticipant_RestoresCommittedLedger(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		identities, validators := makeIdentities(t, 1)
		identity := identities[0]
		cfg := consensus.ParticipantConfig{
			NetworkID: "testnet",
			Identity:  identity,
			Genesis: model.EpochChange{
				Epoch:      1,
				Validators: validators,
				Ledger:     chain.GenesisLedgerHeader(1, chain.AccumulatorState{}, time.Unix(1_700_000_000, 0)),
			},
			Validators:           func(uint64) []chain.Validator { return validators },
			MempoolSize:          10,
			MaxCommandsPerVertex: 10,
			Epochs:               epochs.DefaultConfig(),
		}

		newParticipant := func(hub *stub.Hub) *consensus.Participant {
			p, err := consensus.NewParticipant(unittest.Logger(), db, cfg, hub.Conduit(identity.NodeID), notifications.NewNoopConsumer(), nil)
			require.NoError(t, err)
			hub.Register(identity.NodeID, p.Epochs)
			return p
		}

		hub := stub.NewHub(unittest.Logger(), 2, nil)
		p := newParticipant(hub)
		require.NoError(t, p.Submit([]byte("first")))
		require.NoError(t, p.Submit([]byte("second")))

		ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
		p.Start(ctx)
		require.Eventually(t, func() bool {
			return len(p.Computer.History()) == 2
		}, 10*time.Second, 10*time.Millisecond)
		cancel()
		unittest.RequireCloseBefore(t, p.Done(), 2*time.Second, "participant did not stop")
		hub.Stop()

		restoredHub := stub.NewHub(unittest.Logger(), 2, nil)
		defer restoredHub.Stop()
		restored := newParticipant(restoredHub)
		assert.Equal(t, p.Computer.History(), restored.Computer.History())
		assert.Equal(t, p.Ledger.Tip(), restored.Ledger.Tip())
	})
}
