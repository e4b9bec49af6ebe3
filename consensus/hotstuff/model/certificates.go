package model

import (
	"bytes"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/quorumchain/bft/model/chain"
)

// Header identifies a vertex together with the ledger state it produced.
type Header struct {
	View     uint64
	VertexID chain.Identifier
	Ledger   chain.LedgerHeader
}

// Epoch returns the epoch of the ledger state.
func (h Header) Epoch() uint64 { return h.Ledger.Epoch }

// Equals compares two headers including their ledger state.
func (h Header) Equals(other Header) bool {
	return h.View == other.View && h.VertexID == other.VertexID && h.Ledger.Equals(other.Ledger)
}

// VoteData is what a replica votes on: the proposed vertex and the parent
// it extends.
type VoteData struct {
	Proposed Header
	Parent   Header
}

// ID returns the content hash of the vote data. Votes for the same vote
// data aggregate into the same QC.
func (d VoteData) ID() chain.Identifier {
	return chain.MakeID(d)
}

// TimestampedSignature is one replica's contribution to a certificate.
type TimestampedSignature struct {
	Signer    chain.Identifier
	Timestamp int64
	Signature []byte
}

// SignatureBag is an additive set of signatures, at most one per signer,
// kept ordered by signer ID so equal bags encode identically.
type SignatureBag []TimestampedSignature

// NewSignatureBag builds a sorted bag from an unordered set of signatures.
func NewSignatureBag(sigs map[chain.Identifier]TimestampedSignature) SignatureBag {
	bag := make(SignatureBag, 0, len(sigs))
	for _, sig := range sigs {
		bag = append(bag, sig)
	}
	slices.SortFunc(bag, func(a, b TimestampedSignature) int {
		return bytes.Compare(a.Signer[:], b.Signer[:])
	})
	return bag
}

// Signers returns the signer IDs in bag order.
func (b SignatureBag) Signers() []chain.Identifier {
	signers := make([]chain.Identifier, 0, len(b))
	for _, sig := range b {
		signers = append(signers, sig.Signer)
	}
	return signers
}

// QuorumCertificate proves that a supermajority of weight voted for
// Proposed with parent Parent. The genesis QC of an epoch has
// Proposed == Parent and carries no signatures.
type QuorumCertificate struct {
	Proposed   Header
	Parent     Header
	Signatures SignatureBag
}

// GenesisQC creates the self-referencing QC for an epoch's root vertex.
func GenesisQC(genesis *Vertex, ledger chain.LedgerHeader) *QuorumCertificate {
	header := Header{
		View:     genesis.View,
		VertexID: genesis.ID(),
		Ledger:   ledger,
	}
	return &QuorumCertificate{
		Proposed: header,
		Parent:   header,
	}
}

// View returns the view of the certified vertex.
func (qc *QuorumCertificate) View() uint64 { return qc.Proposed.View }

// VertexID returns the ID of the certified vertex.
func (qc *QuorumCertificate) VertexID() chain.Identifier { return qc.Proposed.VertexID }

// Epoch returns the epoch the certificate belongs to.
func (qc *QuorumCertificate) Epoch() uint64 { return qc.Proposed.Ledger.Epoch }

// VoteData returns the vote data the signatures were produced over.
func (qc *QuorumCertificate) VoteData() VoteData {
	return VoteData{Proposed: qc.Proposed, Parent: qc.Parent}
}

// IsGenesis reports whether the QC is an epoch's self-referencing root QC.
func (qc *QuorumCertificate) IsGenesis() bool {
	return qc.Proposed.VertexID == qc.Parent.VertexID && qc.Proposed.View == 0
}

// ID returns the content hash of the QC.
func (qc *QuorumCertificate) ID() chain.Identifier {
	return chain.MakeID(qc)
}

func (qc *QuorumCertificate) String() string {
	return fmt.Sprintf("QC{epoch=%d view=%d vertex=%s parent_view=%d signers=%d}",
		qc.Epoch(), qc.View(), qc.VertexID().TerminalString(), qc.Parent.View, len(qc.Signatures))
}

// TimeoutCertificate proves that a supermajority of weight timed out View.
type TimeoutCertificate struct {
	Epoch      uint64
	View       uint64
	Signatures SignatureBag
}

func (tc *TimeoutCertificate) String() string {
	return fmt.Sprintf("TC{epoch=%d view=%d signers=%d}", tc.Epoch, tc.View, len(tc.Signatures))
}

// HighQC summarizes a replica's certificate knowledge. It is attached to
// proposals and votes so receivers can sync up before acting on them.
type HighQC struct {
	Highest          *QuorumCertificate
	HighestCommitted *QuorumCertificate
	HighestTC        *TimeoutCertificate `cbor:",omitempty"`
}

// NewHighQC creates a HighQC from its parts; highestTC may be nil.
func NewHighQC(highest, highestCommitted *QuorumCertificate, highestTC *TimeoutCertificate) HighQC {
	return HighQC{
		Highest:          highest,
		HighestCommitted: highestCommitted,
		HighestTC:        highestTC,
	}
}

// HighestView returns the highest view certified by either the QC or the TC.
func (h HighQC) HighestView() uint64 {
	view := h.Highest.View()
	if h.HighestTC != nil && h.HighestTC.View > view {
		view = h.HighestTC.View
	}
	return view
}

// WithTC returns a copy that carries tc if it is newer than the current TC.
func (h HighQC) WithTC(tc *TimeoutCertificate) HighQC {
	if tc == nil || (h.HighestTC != nil && h.HighestTC.View >= tc.View) {
		return h
	}
	h.HighestTC = tc
	return h
}
