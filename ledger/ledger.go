package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
	"github.com/quorumchain/bft/storage"
	"github.com/quorumchain/bft/storage/badger/operation"
)

// StateComputer executes commands. It decides which commands of a vertex are
// valid on top of the uncommitted chain and when the epoch ends.
type StateComputer interface {
	// Prepare returns the commands of vertex that are valid on top of
	// previous, which is ordered from the committed root to the parent.
	// It must not have side effects.
	Prepare(previous []*model.PreparedVertex, vertex *model.Vertex) (PrepareResult, error)

	// Commit applies commands that were committed with header.
	Commit(commands [][]byte, header chain.LedgerHeader) error
}

// PrepareResult is the outcome of speculatively executing a vertex.
type PrepareResult struct {
	Accepted [][]byte
	// NextValidators is set if the vertex ends the epoch.
	NextValidators []chain.Validator
}

// UpdateConsumer receives every ledger update. It is called on the
// committing goroutine and must not block.
type UpdateConsumer interface {
	OnLedgerUpdate(update model.LedgerUpdate)
}

// Metrics is implemented by metrics.LedgerCollector.
type Metrics interface {
	CommandsCommitted(count int, version uint64)
	EpochChanged()
}

// StateComputerLedger implements hotstuff.Ledger on top of a StateComputer.
// Ledger headers commit to the command history with an accumulator, and the
// committed tip and vertices are persisted in badger so that a repeated
// commit after a restart is a no-op.
type StateComputerLedger struct {
	mu        sync.Mutex
	log       zerolog.Logger
	db        *badger.DB
	networkID string
	computer  StateComputer
	consumer  UpdateConsumer
	metrics   Metrics
	tip       chain.LedgerHeader
}

var _ hotstuff.Ledger = (*StateComputerLedger)(nil)

// New loads the committed tip from db, or starts from genesis if there is none.
func New(
	log zerolog.Logger,
	db *badger.DB,
	networkID string,
	genesis chain.LedgerHeader,
	computer StateComputer,
	consumer UpdateConsumer,
	metrics Metrics,
) (*StateComputerLedger, error) {
	tip := genesis
	err := db.View(operation.RetrieveLedgerTip(networkID, &tip))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("could not load ledger tip: %w", err)
	}

	return &StateComputerLedger{
		log:       log.With().Str("component", "ledger").Logger(),
		db:        db,
		networkID: networkID,
		computer:  computer,
		consumer:  consumer,
		metrics:   metrics,
		tip:       tip,
	}, nil
}

// Tip returns the header of the last committed ledger state.
func (l *StateComputerLedger) Tip() chain.LedgerHeader {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tip
}

func (l *StateComputerLedger) Prepare(previous []*model.PreparedVertex, vertex *model.Vertex) (*model.PreparedVertex, error) {
	if len(previous) == 0 {
		return nil, fmt.Errorf("no committed root to prepare %v against", vertex.ID())
	}
	parent := previous[len(previous)-1]
	if parent.VertexID != vertex.ParentID() {
		return nil, fmt.Errorf("last previous vertex %v is not the parent of %v", parent.VertexID, vertex.ID())
	}

	// the epoch is over, descendants only carry the final state forward
	if parent.Ledger.IsEndOfEpoch() {
		return model.NewPreparedVertex(vertex, nil, parent.Ledger), nil
	}

	result, err := l.computer.Prepare(previous, vertex)
	if err != nil {
		return nil, fmt.Errorf("could not execute vertex %v: %w", vertex.ID(), err)
	}

	header := chain.LedgerHeader{
		Epoch:          vertex.Epoch,
		View:           vertex.View,
		Accumulator:    AccumulateAll(parent.Ledger.Accumulator, result.Accepted),
		Timestamp:      vertex.Timestamp,
		NextValidators: result.NextValidators,
	}
	return model.NewPreparedVertex(vertex, result.Accepted, header), nil
}

// Commit applies committed in order. Vertices whose state is already part of
// the committed ledger are skipped.
func (l *StateComputerLedger) Commit(committed []*model.PreparedVertex, proof *model.QuorumCertificate) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var applied []*model.PreparedVertex
	var epochChange *model.EpochChange
	for _, vertex := range committed {
		header := vertex.Ledger
		if !l.extendsTip(header) {
			continue
		}

		commands, ok := Extension(l.tip.Accumulator, vertex.Commands, header.Accumulator)
		if !ok {
			return fmt.Errorf("vertex %v at version %d does not extend committed version %d",
				vertex.VertexID, header.Accumulator.Version, l.tip.Accumulator.Version)
		}

		err := l.computer.Commit(commands, header)
		if err != nil {
			return fmt.Errorf("could not apply commands of vertex %v: %w", vertex.VertexID, err)
		}
		err = operation.RetryOnConflict(l.db.Update, func(tx *badger.Txn) error {
			err := operation.InsertCommittedVertex(l.networkID, vertex)(tx)
			if err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
				return err
			}
			return operation.UpsertLedgerTip(l.networkID, &header)(tx)
		})
		if err != nil {
			return fmt.Errorf("could not persist committed vertex %v: %w", vertex.VertexID, operation.TerminateOnFullDisk(err))
		}

		l.tip = header
		applied = append(applied, vertex)
		if l.metrics != nil {
			l.metrics.CommandsCommitted(len(commands), header.Accumulator.Version)
		}
		if header.IsEndOfEpoch() {
			epochChange = &model.EpochChange{
				Epoch:      header.Epoch + 1,
				Validators: header.NextValidators,
				Ledger:     header,
			}
		}
	}

	if len(applied) == 0 {
		return nil
	}

	l.log.Debug().
		Uint64("version", l.tip.Accumulator.Version).
		Uint64("view", l.tip.View).
		Uint64("proof_view", proof.View()).
		Int("vertices", len(applied)).
		Msg("ledger committed")

	if epochChange != nil {
		l.log.Info().
			Uint64("next_epoch", epochChange.Epoch).
			Int("validators", len(epochChange.Validators)).
			Msg("epoch change committed")
		if l.metrics != nil {
			l.metrics.EpochChanged()
		}
	}

	if l.consumer != nil {
		l.consumer.OnLedgerUpdate(model.LedgerUpdate{
			Committed:   applied,
			Tip:         l.tip,
			EpochChange: epochChange,
		})
	}
	return nil
}

// extendsTip reports whether committing header advances the ledger. Once an
// epoch ended nothing more is committed in it, and the end-of-epoch header
// itself is committed even if it added no commands.
func (l *StateComputerLedger) extendsTip(header chain.LedgerHeader) bool {
	if header.Epoch < l.tip.Epoch {
		return false
	}
	if header.Epoch == l.tip.Epoch && l.tip.IsEndOfEpoch() {
		return false
	}
	if header.Accumulator.Version > l.tip.Accumulator.Version {
		return true
	}
	if header.Accumulator.Version < l.tip.Accumulator.Version {
		return false
	}
	return header.Epoch > l.tip.Epoch || header.View > l.tip.View
}

// CommittedVertices returns every committed vertex in epoch and view order.
func (l *StateComputerLedger) CommittedVertices() ([]*model.PreparedVertex, error) {
	var vertices []*model.PreparedVertex
	err := l.db.View(operation.TraverseCommittedVertices(l.networkID, func(v *model.PreparedVertex) error {
		vertices = append(vertices, v)
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("could not read committed vertices: %w", err)
	}
	return vertices, nil
}
