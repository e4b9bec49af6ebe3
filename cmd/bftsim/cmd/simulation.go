package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/quorumchain/bft/consensus"
	"github.com/quorumchain/bft/consensus/epochs"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/ledger"
	"github.com/quorumchain/bft/ledger/inmem"
	"github.com/quorumchain/bft/model/chain"
	"github.com/quorumchain/bft/module/component"
	"github.com/quorumchain/bft/module/irrecoverable"
	"github.com/quorumchain/bft/module/metrics"
	"github.com/quorumchain/bft/module/util"
	"github.com/quorumchain/bft/network/stub"
)

const networkID = "bftsim"

type simConfig struct {
	Nodes           int
	ViewsPerEpoch   uint64
	DataDir         string
	CommandInterval time.Duration
	ReportInterval  time.Duration
	DropRate        float64
	NetworkWorkers  int
	Epochs          epochs.Config
}

// nodeMetrics are registered once per process and survive simulation restarts.
type nodeMetrics struct {
	hotstuff *metrics.HotstuffCollector
	ledger   *metrics.LedgerCollector
}

type simMetrics struct {
	network *metrics.NetworkCollector
	nodes   []nodeMetrics
}

func newSimMetrics(registerer prometheus.Registerer, nodes int) *simMetrics {
	m := &simMetrics{network: metrics.NewNetworkCollector(registerer)}
	for i := 0; i < nodes; i++ {
		node := prometheus.WrapRegistererWith(prometheus.Labels{"node": fmt.Sprint(i)}, registerer)
		m.nodes = append(m.nodes, nodeMetrics{
			hotstuff: metrics.NewHotstuffCollector(node),
			ledger:   metrics.NewLedgerCollector(node),
		})
	}
	return m
}

// makeIdentities derives deterministic node keys, so restarted simulations
// find their persisted state under the same node IDs.
func makeIdentities(n int) ([]consensus.Identity, []chain.Validator, error) {
	identities := make([]consensus.Identity, 0, n)
	validators := make([]chain.Validator, 0, n)
	for i := 0; i < n; i++ {
		seed := bytes.Repeat([]byte{byte(i + 1)}, 48)
		identity, err := consensus.NewIdentity(seed, 1)
		if err != nil {
			return nil, nil, fmt.Errorf("could not create identity of node %d: %w", i, err)
		}
		identities = append(identities, identity)
		validators = append(validators, identity.Validator)
	}
	return identities, validators, nil
}

// simulation runs every replica of the network on a stub hub, feeds them
// commands and reports their progress.
type simulation struct {
	*component.ComponentManager
	log          zerolog.Logger
	cfg          simConfig
	hub          *stub.Hub
	dbs          []*badger.DB
	participants []*consensus.Participant
	commands     *atomic.Uint64
	divergence   *atomic.Error
}

func newSimulation(log zerolog.Logger, cfg simConfig, m *simMetrics, commands *atomic.Uint64) (*simulation, error) {
	identities, validators, err := makeIdentities(cfg.Nodes)
	if err != nil {
		return nil, err
	}
	genesis := model.EpochChange{
		Epoch:      1,
		Validators: validators,
		Ledger:     chain.GenesisLedgerHeader(1, chain.AccumulatorState{}, time.Unix(0, 0)),
	}

	s := &simulation{
		log:        log.With().Str("component", "simulation").Logger(),
		cfg:        cfg,
		hub:        stub.NewHub(log, cfg.NetworkWorkers, m.network),
		commands:   commands,
		divergence: atomic.NewError(nil),
	}
	if cfg.DropRate > 0 {
		s.hub.SetFilter(func(chain.Identifier, chain.Identifier, string) bool {
			return rand.Float64() >= cfg.DropRate
		})
	}

	for i, identity := range identities {
		db, err := badger.Open(badger.DefaultOptions(filepath.Join(cfg.DataDir, fmt.Sprintf("node-%d", i))).WithLogger(nil))
		if err != nil {
			return nil, multierror.Append(fmt.Errorf("could not open database of node %d: %w", i, err), s.closeDBs())
		}
		s.dbs = append(s.dbs, db)

		p, err := consensus.NewParticipant(
			log.With().Int("node", i).Logger(),
			db,
			consensus.ParticipantConfig{
				NetworkID:            networkID,
				Identity:             identity,
				Genesis:              genesis,
				ViewsPerEpoch:        cfg.ViewsPerEpoch,
				Validators:           func(uint64) []chain.Validator { return validators },
				MempoolSize:          10_000,
				MaxCommandsPerVertex: 100,
				Epochs:               cfg.Epochs,
			},
			s.hub.Conduit(identity.NodeID),
			consensus.CreateConsumer(log.With().Int("node", i).Logger(), m.nodes[i].hotstuff),
			m.nodes[i].ledger,
			epochs.WithInboundLengthObserver(m.nodes[i].hotstuff.InboundQueueLength),
		)
		if err != nil {
			return nil, multierror.Append(fmt.Errorf("could not create node %d: %w", i, err), s.closeDBs())
		}
		node := i
		p.Updates.AddConsumer(ledger.UpdateConsumerFunc(func(update model.LedgerUpdate) {
			if update.EpochChange != nil {
				s.log.Info().
					Int("node", node).
					Uint64("epoch", update.EpochChange.Epoch).
					Uint64("version", update.Tip.Accumulator.Version).
					Msg("epoch change committed")
			}
		}))
		s.hub.Register(identity.NodeID, p.Epochs)
		s.participants = append(s.participants, p)
	}

	s.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(s.runParticipants).
		AddWorker(s.submitCommands).
		AddWorker(s.report).
		Build()
	return s, nil
}

func (s *simulation) components() []util.ReadyDoneAware {
	components := make([]util.ReadyDoneAware, 0, len(s.participants))
	for _, p := range s.participants {
		components = append(components, p)
	}
	return components
}

func (s *simulation) runParticipants(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	for _, p := range s.participants {
		p.Start(ctx)
	}
	select {
	case <-util.AllReady(s.components()...):
		ready()
	case <-ctx.Done():
	}

	<-util.AllDone(s.components()...)
	s.hub.Stop()

	err := s.checkAgreement()
	if err != nil {
		s.divergence.Store(err)
		s.log.Error().Err(err).Msg("replicas committed diverging ledgers")
	}
	err = s.closeDBs()
	if err != nil {
		s.log.Error().Err(err).Msg("could not close databases")
	}
}

// submitCommands sends a fresh command to every replica's mempool, the way
// a client would broadcast a transaction.
func (s *simulation) submitCommands(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()
	if s.cfg.CommandInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CommandInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		command := []byte(fmt.Sprintf("command-%d", s.commands.Inc()))
		for i, p := range s.participants {
			err := p.Submit(command)
			if errors.Is(err, inmem.ErrMempoolFull) {
				s.log.Debug().Int("node", i).Msg("mempool full, command not submitted")
				continue
			}
			if err != nil {
				s.log.Warn().Err(err).Int("node", i).Msg("could not submit command")
			}
		}
	}
}

func (s *simulation) report(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ready()
	ticker := time.NewTicker(s.cfg.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		for i, p := range s.participants {
			tip := p.Ledger.Tip()
			s.log.Info().
				Int("node", i).
				Uint64("epoch", p.Epochs.CurrentEpoch()).
				Uint64("committed_view", tip.View).
				Uint64("version", tip.Accumulator.Version).
				Int("mempool", p.Mempool.Size()).
				Msg("progress")
		}
	}
}

// checkAgreement verifies that the committed ledgers of all replicas are
// prefixes of each other.
func (s *simulation) checkAgreement() error {
	var reference []*model.PreparedVertex
	for i, p := range s.participants {
		committed, err := p.Ledger.CommittedVertices()
		if err != nil {
			return fmt.Errorf("could not read ledger of node %d: %w", i, err)
		}
		n := len(reference)
		if len(committed) < n {
			n = len(committed)
		}
		for j := 0; j < n; j++ {
			if !committed[j].Ledger.Equals(reference[j].Ledger) {
				return fmt.Errorf("node %d committed %v at position %d, another node committed %v",
					i, committed[j].VertexID, j, reference[j].VertexID)
			}
		}
		if len(committed) > len(reference) {
			reference = committed
		}
	}
	s.log.Info().Int("committed_vertices", len(reference)).Msg("all replicas agree on the committed ledger")
	return nil
}

func (s *simulation) closeDBs() error {
	var result *multierror.Error
	for _, db := range s.dbs {
		result = multierror.Append(result, db.Close())
	}
	s.dbs = nil
	return result.ErrorOrNil()
}

// tempDataDir creates the directory simulation state is kept in when none is configured.
func tempDataDir() (string, func(), error) {
	dir, err := os.MkdirTemp("", "bftsim-")
	if err != nil {
		return "", nil, fmt.Errorf("could not create data directory: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}
