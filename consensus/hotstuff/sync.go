package hotstuff

import (
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// BFTSync brings the vertex store up to date with a HighQC learned from a
// peer, fetching missing vertices if needed.
type BFTSync interface {
	// SyncToQC inserts the certificates of highQC. If a certified vertex is
	// unknown, vertices are requested from author and the QC signers, and
	// false is returned. The caller retries once the vertex got inserted.
	SyncToQC(highQC model.HighQC, author chain.Identifier) (bool, error)

	OnGetVerticesResponse(response model.GetVerticesResponse) error
	OnGetVerticesErrorResponse(response model.GetVerticesErrorResponse) error
	OnVertexRequestTimeout(timeout model.VertexRequestTimeout) error

	// OnViewUpdate drops outstanding requests for vertices the replica no
	// longer needs.
	OnViewUpdate(update model.ViewUpdate)
}

// SyncEvents receives the timeouts BFTSync schedules for its requests.
// Implementations queue them into the event loop.
type SyncEvents interface {
	OnVertexRequestTimeout(timeout model.VertexRequestTimeout)
}
