package model

import (
	"time"

	"github.com/quorumchain/bft/model/chain"
)

// ViewUpdate is emitted by the pacemaker whenever the replica enters a new view.
type ViewUpdate struct {
	CurrentView uint64
	HighQC      HighQC
	Leader      chain.Identifier
	NextLeader  chain.Identifier
}

// LastCertifiedView returns the view certified by the HighQC that caused the update.
func (u ViewUpdate) LastCertifiedView() uint64 {
	return u.HighQC.HighestView()
}

// BFTInsertUpdate is emitted when a vertex was prepared and inserted into the vertex store.
type BFTInsertUpdate struct {
	Inserted        *PreparedVertex
	VertexStoreSize int
}

// BFTCommittedUpdate is emitted when the vertex store advanced its root.
// Committed is ordered by ascending view.
type BFTCommittedUpdate struct {
	Committed        []*PreparedVertex
	VertexStoreState *VertexStoreState
}

// LocalTimeout fires when the pacemaker's timer for View expires. Count is
// the number of times this view timed out locally, starting at zero.
type LocalTimeout struct {
	Epoch    uint64
	View     uint64
	Count    uint64
	Duration time.Duration
}

// ViewQuorumReached is emitted when votes for a view formed a certificate.
type ViewQuorumReached struct {
	Result     ViewVotingResult
	LastAuthor chain.Identifier
}

// NoVote is emitted when safety rules refused to vote for a vertex.
type NoVote struct {
	Vertex *Vertex
	Reason string
}

// GetVerticesRequest asks a peer for Count vertices ending at VertexID,
// walking towards the root.
type GetVerticesRequest struct {
	Sender   chain.Identifier
	Epoch    uint64
	VertexID chain.Identifier
	Count    uint32
}

// GetVerticesResponse answers a request with vertices ordered from VertexID
// towards the root.
type GetVerticesResponse struct {
	Sender   chain.Identifier
	Epoch    uint64
	VertexID chain.Identifier
	Vertices []*Vertex
}

// GetVerticesErrorResponse tells the requester that the vertices are not
// available and what the responder's HighQC is.
type GetVerticesErrorResponse struct {
	Sender  chain.Identifier
	Epoch   uint64
	HighQC  HighQC
	Request GetVerticesRequest
}

// VertexRequestTimeout fires when an outstanding vertex request got no answer in time.
type VertexRequestTimeout struct {
	Epoch    uint64
	VertexID chain.Identifier
	Attempt  uint
}

// EpochChange carries what is needed to start the next epoch.
type EpochChange struct {
	Epoch      uint64
	Validators []chain.Validator
	// Ledger is the ledger header of the committed end-of-epoch vertex.
	Ledger chain.LedgerHeader
}

// GenesisVertex returns the root vertex of the new epoch.
func (e EpochChange) GenesisVertex() *Vertex {
	return GenesisVertex(e.GenesisLedger())
}

// GenesisLedger returns the ledger header the new epoch starts from.
func (e EpochChange) GenesisLedger() chain.LedgerHeader {
	return chain.LedgerHeader{
		Epoch:       e.Epoch,
		View:        0,
		Accumulator: e.Ledger.Accumulator,
		Timestamp:   e.Ledger.Timestamp,
	}
}

// LedgerUpdate is emitted by the ledger after committing vertices.
type LedgerUpdate struct {
	Committed   []*PreparedVertex
	Tip         chain.LedgerHeader
	EpochChange *EpochChange
}
