package helper

import (
	"time"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// Genesis returns the root vertex of epoch and its self-referencing QC.
func Genesis(epoch uint64) (*model.Vertex, *model.QuorumCertificate) {
	ledger := chain.LedgerHeader{Epoch: epoch, Timestamp: 1}
	genesis := model.GenesisVertex(ledger)
	return genesis, model.GenesisQC(genesis, ledger)
}

// MakeLedgerHeader returns the ledger header a test ledger produces for vertex.
func MakeLedgerHeader(vertex *model.Vertex) chain.LedgerHeader {
	parentID := vertex.ParentID()
	return chain.LedgerHeader{
		Epoch:       vertex.Epoch,
		View:        vertex.View,
		Accumulator: chain.AccumulatorState{Version: vertex.View, Hash: chain.HashToID(parentID[:])},
		Timestamp:   vertex.Timestamp,
	}
}

// MakeHeader returns the header of vertex with a ledger state from MakeLedgerHeader.
func MakeHeader(vertex *model.Vertex) model.Header {
	return model.Header{
		View:     vertex.View,
		VertexID: vertex.ID(),
		Ledger:   MakeLedgerHeader(vertex),
	}
}

// MakeQC certifies vertex. The parent header is taken from the vertex's own QC.
func MakeQC(vertex *model.Vertex, signers ...chain.Identifier) *model.QuorumCertificate {
	sigs := make(map[chain.Identifier]model.TimestampedSignature, len(signers))
	for _, s := range signers {
		sigs[s] = model.TimestampedSignature{Signer: s, Timestamp: vertex.Timestamp, Signature: []byte{1}}
	}
	return &model.QuorumCertificate{
		Proposed:   MakeHeader(vertex),
		Parent:     vertex.QC.Proposed,
		Signatures: model.NewSignatureBag(sigs),
	}
}

// VertexOption customizes a test vertex.
type VertexOption func(*model.Vertex)

func WithPayload(commands ...[]byte) VertexOption {
	return func(v *model.Vertex) { v.Payload = commands }
}

func WithProposer(id chain.Identifier) VertexOption {
	return func(v *model.Vertex) { v.Proposer = id }
}

// MakeVertex returns a vertex at view extending the vertex certified by qc.
func MakeVertex(qc *model.QuorumCertificate, view uint64, opts ...VertexOption) *model.Vertex {
	v := model.NewVertex(qc, view, nil, chain.ZeroID, time.UnixMilli(int64(1000+view)))
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// MakeVoteData returns the data a replica votes on for vertex.
func MakeVoteData(vertex *model.Vertex) *model.VoteData {
	return &model.VoteData{
		Proposed: MakeHeader(vertex),
		Parent:   vertex.QC.Proposed,
	}
}

// MakeVote returns a vote of author for vertex.
func MakeVote(author chain.Identifier, vertex *model.Vertex) *model.Vote {
	return &model.Vote{
		Author:    author,
		Epoch:     vertex.Epoch,
		View:      vertex.View,
		VoteData:  MakeVoteData(vertex),
		Timestamp: vertex.Timestamp,
		Signature: []byte{1},
	}
}

// MakeTimeoutVote returns a pure timeout vote of author for view.
func MakeTimeoutVote(author chain.Identifier, epoch, view uint64) *model.Vote {
	return &model.Vote{
		Author:           author,
		Epoch:            epoch,
		View:             view,
		Timestamp:        int64(view),
		TimeoutSignature: []byte{2},
	}
}
