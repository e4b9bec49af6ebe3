package hotstuff

import (
	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// Ledger is the execution collaborator of consensus. It speculatively
// executes vertices and durably commits them once the commit rule fires.
type Ledger interface {
	// Prepare executes vertex on top of the ledger state of its parent.
	// previous holds the uncommitted ancestors ordered from the root (first
	// element, always present) to the parent (last element). Prepare must
	// not have side effects.
	Prepare(previous []*model.PreparedVertex, vertex *model.Vertex) (*model.PreparedVertex, error)

	// Commit durably applies committed, ordered by ascending view, with
	// proof being the QC that triggered the commit. Committing a ledger
	// state version twice is a no-op.
	Commit(committed []*model.PreparedVertex, proof *model.QuorumCertificate) error
}

// Mempool supplies commands to the leader when it builds a proposal.
type Mempool interface {
	// GetNextPayload returns commands that are not part of any vertex in
	// prepared, the uncommitted chain the new vertex extends.
	GetNextPayload(prepared []*model.PreparedVertex) [][]byte
}
