package inmem

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

var (
	ErrMempoolFull      = errors.New("mempool is full")
	ErrDuplicateCommand = errors.New("command already in mempool")
	ErrEmptyCommand     = errors.New("empty command")
)

// MempoolMetrics is implemented by metrics.LedgerCollector.
type MempoolMetrics interface {
	MempoolSize(size int)
}

// Mempool holds submitted commands in arrival order until they are committed.
type Mempool struct {
	mu           sync.Mutex
	pending      *lru.Cache[chain.Identifier, []byte]
	maxSize      int
	maxPerVertex int
	metrics      MempoolMetrics
}

var _ hotstuff.Mempool = (*Mempool)(nil)

func NewMempool(maxSize, maxPerVertex int, metrics MempoolMetrics) (*Mempool, error) {
	if maxPerVertex < 1 {
		return nil, fmt.Errorf("commands per vertex must be positive, got %d", maxPerVertex)
	}
	pending, err := lru.New[chain.Identifier, []byte](maxSize)
	if err != nil {
		return nil, fmt.Errorf("could not create pending command set: %w", err)
	}
	return &Mempool{
		pending:      pending,
		maxSize:      maxSize,
		maxPerVertex: maxPerVertex,
		metrics:      metrics,
	}, nil
}

// Add queues a command for inclusion in a future proposal.
func (m *Mempool) Add(command []byte) error {
	if len(command) == 0 {
		return ErrEmptyCommand
	}
	id := chain.HashToID(command)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending.Contains(id) {
		return ErrDuplicateCommand
	}
	if m.pending.Len() >= m.maxSize {
		return ErrMempoolFull
	}
	m.pending.Add(id, command)
	m.reportSize()
	return nil
}

// GetNextPayload returns up to maxPerVertex of the oldest commands that are
// not already part of the prepared chain.
func (m *Mempool) GetNextPayload(prepared []*model.PreparedVertex) [][]byte {
	exclude := make(map[chain.Identifier]struct{})
	for _, vertex := range prepared {
		for _, command := range vertex.Commands {
			exclude[chain.HashToID(command)] = struct{}{}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var payload [][]byte
	for _, id := range m.pending.Keys() {
		if len(payload) == m.maxPerVertex {
			break
		}
		if _, ok := exclude[id]; ok {
			continue
		}
		command, ok := m.pending.Peek(id)
		if ok {
			payload = append(payload, command)
		}
	}
	return payload
}

// Remove drops committed commands.
func (m *Mempool) Remove(commands [][]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, command := range commands {
		m.pending.Remove(chain.HashToID(command))
	}
	m.reportSize()
}

func (m *Mempool) Size() int {
	return m.pending.Len()
}

func (m *Mempool) reportSize() {
	if m.metrics != nil {
		m.metrics.MempoolSize(m.pending.Len())
	}
}
