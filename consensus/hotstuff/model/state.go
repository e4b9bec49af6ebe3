package model

import (
	"github.com/quorumchain/bft/model/chain"
)

// SafetyState is the minimal state a replica must never lose to stay safe
// across restarts. It is persisted before any vote derived from it leaves
// the process.
type SafetyState struct {
	Epoch         uint64
	LastVotedView uint64
	LockedView    uint64
	LastVote      *Vote `cbor:",omitempty"`
}

// NewSafetyState returns the initial safety state of an epoch.
func NewSafetyState(epoch uint64) *SafetyState {
	return &SafetyState{Epoch: epoch}
}

// VertexStoreState is everything needed to rebuild the vertex store: the
// committed root, the QC certifying it, the replica's HighQC and every
// uncommitted vertex in parent-first order.
type VertexStoreState struct {
	Root     *Vertex
	RootQC   *QuorumCertificate
	HighQC   HighQC
	Vertices []*Vertex
}

// Epoch returns the epoch the stored tree belongs to.
func (s *VertexStoreState) Epoch() uint64 {
	return s.Root.Epoch
}

// GenesisVertexStoreState returns the vertex tree of a fresh epoch: the
// genesis vertex as root, certified by its own QC.
func GenesisVertexStoreState(ledger chain.LedgerHeader) *VertexStoreState {
	genesis := GenesisVertex(ledger)
	qc := GenesisQC(genesis, ledger)
	return &VertexStoreState{
		Root:   genesis,
		RootQC: qc,
		HighQC: NewHighQC(qc, qc, nil),
	}
}
