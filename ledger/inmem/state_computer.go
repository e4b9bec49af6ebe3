package inmem

import (
	"sync"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/ledger"
	"github.com/quorumchain/bft/model/chain"
)

// ValidatorsForEpoch returns the validator set of an epoch.
type ValidatorsForEpoch func(epoch uint64) []chain.Validator

// StateComputer is a reference state computer that keeps the committed
// command history in memory. Every non-empty command is valid exactly once.
// An epoch ends with the first vertex at or above viewsPerEpoch.
type StateComputer struct {
	mu            sync.Mutex
	viewsPerEpoch uint64
	validators    ValidatorsForEpoch
	mempool       *Mempool
	committed     map[chain.Identifier]struct{}
	history       [][]byte
}

var _ ledger.StateComputer = (*StateComputer)(nil)

// NewStateComputer creates a state computer. A viewsPerEpoch of zero means
// epochs never end. Committed commands are removed from mempool if it is set.
func NewStateComputer(viewsPerEpoch uint64, validators ValidatorsForEpoch, mempool *Mempool) *StateComputer {
	return &StateComputer{
		viewsPerEpoch: viewsPerEpoch,
		validators:    validators,
		mempool:       mempool,
		committed:     make(map[chain.Identifier]struct{}),
	}
}

func (s *StateComputer) Prepare(previous []*model.PreparedVertex, vertex *model.Vertex) (ledger.PrepareResult, error) {
	seen := make(map[chain.Identifier]struct{})
	for _, p := range previous {
		for _, command := range p.Commands {
			seen[chain.HashToID(command)] = struct{}{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var result ledger.PrepareResult
	for _, command := range vertex.Payload {
		if len(command) == 0 {
			continue
		}
		id := chain.HashToID(command)
		if _, ok := seen[id]; ok {
			continue
		}
		if _, ok := s.committed[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result.Accepted = append(result.Accepted, command)
	}

	if s.viewsPerEpoch > 0 && vertex.View >= s.viewsPerEpoch {
		result.NextValidators = s.validators(vertex.Epoch + 1)
	}
	return result, nil
}

func (s *StateComputer) Commit(commands [][]byte, _ chain.LedgerHeader) error {
	s.mu.Lock()
	for _, command := range commands {
		s.committed[chain.HashToID(command)] = struct{}{}
		s.history = append(s.history, command)
	}
	s.mu.Unlock()

	if s.mempool != nil {
		s.mempool.Remove(commands)
	}
	return nil
}

// History returns every committed command in commit order.
func (s *StateComputer) History() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([][]byte, len(s.history))
	copy(history, s.history)
	return history
}
