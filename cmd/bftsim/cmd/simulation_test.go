package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/quorumchain/bft/consensus/epochs"
	"github.com/quorumchain/bft/module/irrecoverable"
	"github.com/quorumchain/bft/utils/unittest"
)

func testSimConfig(t *testing.T, nodes int) simConfig {
	epochCfg := epochs.DefaultConfig()
	epochCfg.Timeout.Base = 500 * time.Millisecond
	return simConfig{
		Nodes:           nodes,
		ViewsPerEpoch:   10,
		DataDir:         t.TempDir(),
		CommandInterval: 10 * time.Millisecond,
		ReportInterval:  time.Second,
		NetworkWorkers:  4,
		Epochs:          epochCfg,
	}
}

func TestMakeIdentities_Deterministic(t *testing.T) {
	first, validators, err := makeIdentities(3)
	require.NoError(t, err)
	second, _, err := makeIdentities(3)
	require.NoError(t, err)

	require.Len(t, validators, 3)
	for i := range first {
		assert.Equal(t, first[i].NodeID, second[i].NodeID)
		assert.Equal(t, first[i].Validator, validators[i])
	}
	assert.NotEqual(t, first[0].NodeID, first[1].NodeID)
}

func TestSimulation_Progresses(t *testing.T) {
	cfg := testSimConfig(t, 4)
	sim, err := newSimulation(unittest.Logger(), cfg, newSimMetrics(prometheus.NewRegistry(), cfg.Nodes), atomic.NewUint64(0))
	require.NoError(t, err)

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	sim.Start(ctx)
	unittest.RequireCloseBefore(t, sim.Ready(), 2*time.Second, "simulation did not start")

	require.Eventually(t, func() bool {
		for _, p := range sim.participants {
			if p.Epochs.CurrentEpoch() < 2 || p.Ledger.Tip().Accumulator.Version == 0 {
				return false
			}
		}
		return true
	}, 30*time.Second, 50*time.Millisecond)

	cancel()
	unittest.RequireCloseBefore(t, sim.Done(), 5*time.Second, "simulation did not stop")
	assert.NoError(t, sim.divergence.Load())
}

// A restarted simulation resumes from the databases of the previous run.
func TestSimulation_ResumesFromDisk(t *testing.T) {
	cfg := testSimConfig(t, 4)
	simMetrics := newSimMetrics(prometheus.NewRegistry(), cfg.Nodes)
	commands := atomic.NewUint64(0)

	sim, err := newSimulation(unittest.Logger(), cfg, simMetrics, commands)
	require.NoError(t, err)
	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	sim.Start(ctx)
	require.Eventually(t, func() bool {
		return sim.participants[0].Ledger.Tip().Accumulator.Version > 0
	}, 30*time.Second, 50*time.Millisecond)
	cancel()
	unittest.RequireCloseBefore(t, sim.Done(), 5*time.Second, "simulation did not stop")
	version := sim.participants[0].Ledger.Tip().Accumulator.Version

	restarted, err := newSimulation(unittest.Logger(), cfg, simMetrics, commands)
	require.NoError(t, err)
	assert.Equal(t, version, restarted.participants[0].Ledger.Tip().Accumulator.Version)

	ctx, cancel = irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	restarted.Start(ctx)
	require.Eventually(t, func() bool {
		return restarted.participants[0].Ledger.Tip().Accumulator.Version > version
	}, 30*time.Second, 50*time.Millisecond)
	cancel()
	unittest.RequireCloseBefore(t, restarted.Done(), 5*time.Second, "simulation did not stop")
	assert.NoError(t, restarted.divergence.Load())
}

func TestRunCommand(t *testing.T) {
	rootCmd.SetArgs([]string{
		"run",
		"--nodes=1",
		"--duration=2s",
		"--views-per-epoch=5",
		"--report-interval=500ms",
		"--data-dir=" + t.TempDir(),
		"--log-level=warn",
	})
	require.NoError(t, rootCmd.Execute())
}
