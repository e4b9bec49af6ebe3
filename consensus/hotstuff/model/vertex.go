package model

import (
	"fmt"
	"time"

	"github.com/quorumchain/bft/model/chain"
)

// Vertex is the HotStuff algorithm's concept of a proposed unit of the
// ledger chain. Its parent is the vertex certified by its QC, so the chain
// of parent pointers is the chain of QCs.
type Vertex struct {
	Epoch     uint64
	View      uint64
	QC        *QuorumCertificate
	Payload   [][]byte
	Proposer  chain.Identifier
	Timestamp int64
}

// NewVertex creates a vertex proposed by proposer for view, extending the
// vertex certified by qc.
func NewVertex(qc *QuorumCertificate, view uint64, payload [][]byte, proposer chain.Identifier, timestamp time.Time) *Vertex {
	return &Vertex{
		Epoch:     qc.Epoch(),
		View:      view,
		QC:        qc,
		Payload:   payload,
		Proposer:  proposer,
		Timestamp: timestamp.UnixMilli(),
	}
}

// GenesisVertex returns the root vertex of an epoch. It has no QC and no payload.
func GenesisVertex(ledger chain.LedgerHeader) *Vertex {
	return &Vertex{
		Epoch:     ledger.Epoch,
		View:      0,
		Timestamp: ledger.Timestamp,
	}
}

// ID returns the content hash of the vertex.
func (v *Vertex) ID() chain.Identifier {
	return chain.MakeID(v)
}

// ParentID returns the ID of the vertex certified by the vertex's QC, or
// ZeroID for genesis.
func (v *Vertex) ParentID() chain.Identifier {
	if v.QC == nil {
		return chain.ZeroID
	}
	return v.QC.Proposed.VertexID
}

// ParentView returns the view of the parent vertex.
func (v *Vertex) ParentView() uint64 {
	if v.QC == nil {
		return 0
	}
	return v.QC.View()
}

// IsGenesis reports whether this is an epoch's root vertex.
func (v *Vertex) IsGenesis() bool {
	return v.View == 0 && v.QC == nil
}

// Time returns the proposer's timestamp.
func (v *Vertex) Time() time.Time {
	return time.UnixMilli(v.Timestamp).UTC()
}

func (v *Vertex) String() string {
	return fmt.Sprintf("Vertex{epoch=%d view=%d parent=%s proposer=%s}", v.Epoch, v.View, v.ParentID().TerminalString(), v.Proposer.TerminalString())
}

// PreparedVertex is a vertex whose payload was speculatively executed against
// its parent's ledger state. The vertex store only ever holds prepared vertices.
type PreparedVertex struct {
	Vertex   *Vertex
	VertexID chain.Identifier
	// Commands are the payload entries the ledger accepted.
	Commands [][]byte
	Ledger   chain.LedgerHeader
}

// NewPreparedVertex pairs a vertex with its execution result.
func NewPreparedVertex(vertex *Vertex, commands [][]byte, ledger chain.LedgerHeader) *PreparedVertex {
	return &PreparedVertex{
		Vertex:   vertex,
		VertexID: vertex.ID(),
		Commands: commands,
		Ledger:   ledger,
	}
}

// View returns the view of the underlying vertex.
func (p *PreparedVertex) View() uint64 { return p.Vertex.View }

// ParentID returns the ID of the parent vertex.
func (p *PreparedVertex) ParentID() chain.Identifier { return p.Vertex.ParentID() }

// Header returns the header a vote for this vertex refers to.
func (p *PreparedVertex) Header() Header {
	return Header{
		View:     p.Vertex.View,
		VertexID: p.VertexID,
		Ledger:   p.Ledger,
	}
}
