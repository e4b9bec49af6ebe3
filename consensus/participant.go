package consensus

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"github.com/onflow/flow-go/crypto"
	"github.com/rs/zerolog"

	"github.com/quorumchain/bft/consensus/epochs"
	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/consensus/hotstuff/notifications"
	"github.com/quorumchain/bft/consensus/hotstuff/notifications/pubsub"
	"github.com/quorumchain/bft/consensus/hotstuff/persister"
	"github.com/quorumchain/bft/consensus/hotstuff/verification"
	"github.com/quorumchain/bft/ledger"
	"github.com/quorumchain/bft/ledger/inmem"
	"github.com/quorumchain/bft/model/chain"
	"github.com/quorumchain/bft/module/component"
	"github.com/quorumchain/bft/module/irrecoverable"
)

// Identity is a replica's consensus key and the validator entry derived from it.
type Identity struct {
	NodeID    chain.Identifier
	Key       crypto.PrivateKey
	Validator chain.Validator
}

// NewIdentity derives an identity from seed. The node ID is the hash of the
// encoded public key.
func NewIdentity(seed []byte, weight uint64) (Identity, error) {
	key, err := verification.GenerateKey(seed)
	if err != nil {
		return Identity{}, err
	}
	publicKey := key.PublicKey().Encode()
	nodeID := chain.HashToID(publicKey)
	return Identity{
		NodeID: nodeID,
		Key:    key,
		Validator: chain.Validator{
			NodeID:    nodeID,
			PublicKey: publicKey,
			Weight:    weight,
		},
	}, nil
}

// ParticipantConfig describes one replica.
type ParticipantConfig struct {
	NetworkID string
	Identity  Identity
	// Genesis is the first epoch, shared by every replica of the network.
	Genesis model.EpochChange
	// ViewsPerEpoch ends an epoch with its first vertex at or above this
	// view. Zero disables epoch changes.
	ViewsPerEpoch uint64
	// Validators returns the validator set of every epoch after genesis.
	Validators           inmem.ValidatorsForEpoch
	MempoolSize          int
	MaxCommandsPerVertex int
	Epochs               epochs.Config
}

// LedgerMetrics is implemented by metrics.LedgerCollector.
type LedgerMetrics interface {
	ledger.Metrics
	inmem.MempoolMetrics
}

// CreateConsumer combines the notification consumers of a replica.
func CreateConsumer(log zerolog.Logger, consumers ...hotstuff.Consumer) *pubsub.Distributor {
	dis := pubsub.NewDistributor()
	dis.AddConsumer(notifications.NewLogConsumer(log))
	for _, consumer := range consumers {
		dis.AddConsumer(consumer)
	}
	return dis
}

// Participant is a complete replica: ledger, mempool and the epoch manager
// running consensus on top of them. Its inbound side is Epochs.
type Participant struct {
	*component.ComponentManager
	NodeID   chain.Identifier
	Mempool  *inmem.Mempool
	Computer *inmem.StateComputer
	Ledger   *ledger.StateComputerLedger
	Updates  *ledger.UpdateDistributor
	Epochs   *epochs.EpochManager
}

// NewParticipant assembles a replica on db. Consensus messages leave through
// communicator; the caller routes inbound messages to Participant.Epochs.
func NewParticipant(
	log zerolog.Logger,
	db *badger.DB,
	cfg ParticipantConfig,
	communicator hotstuff.Communicator,
	notifier hotstuff.Consumer,
	ledgerMetrics LedgerMetrics,
	opts ...epochs.Option,
) (*Participant, error) {
	log = log.With().Hex("node_id", cfg.Identity.NodeID[:]).Logger()

	var mempoolMetrics inmem.MempoolMetrics
	var commitMetrics ledger.Metrics
	if ledgerMetrics != nil {
		mempoolMetrics = ledgerMetrics
		commitMetrics = ledgerMetrics
	}

	mempool, err := inmem.NewMempool(cfg.MempoolSize, cfg.MaxCommandsPerVertex, mempoolMetrics)
	if err != nil {
		return nil, fmt.Errorf("could not create mempool: %w", err)
	}
	computer := inmem.NewStateComputer(cfg.ViewsPerEpoch, cfg.Validators, mempool)

	updates := ledger.NewUpdateDistributor()
	l, err := ledger.New(log, db, cfg.NetworkID, cfg.Genesis.GenesisLedger(), computer, updates, commitMetrics)
	if err != nil {
		return nil, fmt.Errorf("could not create ledger: %w", err)
	}
	// the state computer is in memory, rebuild it from the committed ledger
	committed, err := l.CommittedVertices()
	if err != nil {
		return nil, err
	}
	for _, vertex := range committed {
		err = computer.Commit(vertex.Commands, vertex.Ledger)
		if err != nil {
			return nil, fmt.Errorf("could not replay committed vertex %v: %w", vertex.VertexID, err)
		}
	}

	verifier, err := verification.NewVerifier(cfg.Epochs.VerifierCacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create verifier: %w", err)
	}

	manager, err := epochs.New(
		log,
		cfg.Epochs,
		cfg.Identity.NodeID,
		cfg.Genesis,
		verification.NewSigner(cfg.Identity.NodeID, cfg.Identity.Key),
		verifier,
		persister.New(db, cfg.NetworkID),
		l,
		mempool,
		communicator,
		notifier,
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("could not create epoch manager: %w", err)
	}
	updates.AddConsumer(manager)

	p := &Participant{
		NodeID:   cfg.Identity.NodeID,
		Mempool:  mempool,
		Computer: computer,
		Ledger:   l,
		Updates:  updates,
		Epochs:   manager,
	}
	p.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(func(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
			manager.Start(ctx)
			select {
			case <-manager.Ready():
				ready()
			case <-ctx.Done():
			}
			<-manager.Done()
		}).
		Build()
	return p, nil
}

// Submit adds a command to the replica's mempool.
func (p *Participant) Submit(command []byte) error {
	return p.Mempool.Add(command)
}
