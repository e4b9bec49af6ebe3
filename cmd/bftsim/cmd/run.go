package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/quorumchain/bft/consensus/epochs"
	"github.com/quorumchain/bft/consensus/hotstuff/pacemaker/timeout"
	"github.com/quorumchain/bft/module/component"
	"github.com/quorumchain/bft/module/irrecoverable"
	"github.com/quorumchain/bft/module/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an in-process network and report commits and epoch changes",
	RunE:  run,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd.Flags())
	_ = viper.BindPFlags(runCmd.Flags())
}

func addRunFlags(flags *pflag.FlagSet) {
	flags.Int("nodes", 4, "number of validators")
	flags.Uint64("views-per-epoch", 100, "an epoch ends with its first vertex at or above this view, 0 disables epoch changes")
	flags.Duration("duration", 30*time.Second, "how long to run, 0 runs until interrupted")
	flags.String("data-dir", "", "directory for node databases, a temporary directory is used if empty")
	flags.Duration("command-interval", 50*time.Millisecond, "interval between submitted commands, 0 submits none")
	flags.Duration("report-interval", 5*time.Second, "interval between progress reports")
	flags.Float64("drop-rate", 0, "fraction of messages the network loses")
	flags.Int("network-workers", 16, "number of goroutines delivering messages")
	flags.Duration("timeout-base", time.Second, "view timeout on the happy path")
	flags.Float64("timeout-rate", 1.2, "view timeout growth per consecutive local timeout")
	flags.Uint64("timeout-max-exponent", 6, "cap on the view timeout exponent")
	flags.Int("restarts", 0, "how often the whole network is restarted from disk after an irrecoverable error")
	flags.String("metrics-address", "", "serve prometheus metrics on this address, for example :9090")
}

func run(cmd *cobra.Command, _ []string) error {
	nodes := viper.GetInt("nodes")
	if nodes < 1 {
		return fmt.Errorf("need at least one node, got %d", nodes)
	}
	dropRate := viper.GetFloat64("drop-rate")
	if dropRate < 0 || dropRate >= 1 {
		return fmt.Errorf("drop rate must be in [0, 1), got %f", dropRate)
	}
	timeouts, err := timeout.NewConfig(
		viper.GetDuration("timeout-base"),
		viper.GetFloat64("timeout-rate"),
		viper.GetUint64("timeout-max-exponent"),
	)
	if err != nil {
		return fmt.Errorf("invalid timeout configuration: %w", err)
	}
	epochCfg := epochs.DefaultConfig()
	epochCfg.Timeout = timeouts

	cfg := simConfig{
		Nodes:           nodes,
		ViewsPerEpoch:   viper.GetUint64("views-per-epoch"),
		DataDir:         viper.GetString("data-dir"),
		CommandInterval: viper.GetDuration("command-interval"),
		ReportInterval:  viper.GetDuration("report-interval"),
		DropRate:        dropRate,
		NetworkWorkers:  viper.GetInt("network-workers"),
		Epochs:          epochCfg,
	}
	if cfg.ReportInterval <= 0 {
		return fmt.Errorf("report interval must be positive, got %v", cfg.ReportInterval)
	}
	if cfg.DataDir == "" {
		dir, cleanup, err := tempDataDir()
		if err != nil {
			return err
		}
		defer cleanup()
		cfg.DataDir = dir
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if duration := viper.GetDuration("duration"); duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	registry := prometheus.NewRegistry()
	simMetrics := newSimMetrics(registry, cfg.Nodes)

	log.Info().
		Int("nodes", cfg.Nodes).
		Uint64("views_per_epoch", cfg.ViewsPerEpoch).
		Str("data_dir", cfg.DataDir).
		Msg("starting simulation")

	group, ctx := errgroup.WithContext(ctx)

	if address := viper.GetString("metrics-address"); address != "" {
		server := metrics.NewServer(log, address, registry)
		group.Go(func() error {
			return runUntilCancelled(ctx, server)
		})
	}

	// errors the simulation recovered from by restarting
	var recovered *multierror.Error
	commands := atomic.NewUint64(0)
	restarts := viper.GetInt("restarts")
	group.Go(func() error {
		var current *simulation
		err := component.RunComponent(ctx, func() (component.Component, error) {
			sim, err := newSimulation(log, cfg, simMetrics, commands)
			if err != nil {
				return nil, err
			}
			current = sim
			return sim, nil
		}, func(err error) component.ErrorHandlingResult {
			if restarts <= 0 {
				log.Error().Err(err).Msg("simulation failed")
				return component.ErrorHandlingStop
			}
			recovered = multierror.Append(recovered, err)
			restarts--
			log.Warn().Err(err).Int("restarts_left", restarts).Msg("simulation failed, restarting from disk")
			return component.ErrorHandlingRestart
		})
		if current != nil {
			if divergence := current.divergence.Load(); divergence != nil {
				return divergence
			}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})

	err = group.Wait()
	log.Info().
		Uint64("commands_submitted", commands.Load()).
		Int("restarts", len(recovered.WrappedErrors())).
		Msg("simulation finished")
	if err != nil {
		return multierror.Append(recovered, err)
	}
	return nil
}

// runUntilCancelled runs c until ctx is cancelled and reports its irrecoverable error.
func runUntilCancelled(ctx context.Context, c component.Component) error {
	signalerCtx, errChan := irrecoverable.WithSignaler(ctx)
	c.Start(signalerCtx)
	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
		<-c.Done()
		return nil
	case <-c.Done():
		return nil
	}
}
