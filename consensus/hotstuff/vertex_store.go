package hotstuff

import (
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// VertexStore holds the tree of prepared, uncommitted vertices of an epoch
// and applies the commit rule.
type VertexStore interface {
	// InsertVertex prepares and stores a vertex whose parent is known.
	InsertVertex(vertex *model.Vertex) (*model.PreparedVertex, error)

	// InsertQC records a QC for a known vertex. It returns false if the
	// certified vertex is unknown.
	InsertQC(qc *model.QuorumCertificate) (bool, error)

	// InsertTC records a TC.
	InsertTC(tc *model.TimeoutCertificate) error

	// GetPathFromRoot returns the uncommitted ancestors of vertexID, root excluded, in ascending view order.
	GetPathFromRoot(vertexID chain.Identifier) ([]*model.PreparedVertex, bool)

	// GetVertices returns up to count vertices starting at vertexID and walking towards the root.
	GetVertices(vertexID chain.Identifier, count int) ([]*model.Vertex, bool)

	// GetVertex returns a stored vertex, the root included.
	GetVertex(vertexID chain.Identifier) (*model.PreparedVertex, bool)

	ContainsVertex(vertexID chain.Identifier) bool

	// HighQC returns the highest QC, highest committed QC and highest TC known.
	HighQC() model.HighQC

	// Root returns the last committed vertex.
	Root() *model.PreparedVertex
}
