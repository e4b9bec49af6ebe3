package model

import (
	"fmt"

	"github.com/quorumchain/bft/model/chain"
)

// Vote is a signed statement by Author about a view. A vote with VoteData
// supports a QC for the proposed vertex. A vote with a TimeoutSignature
// supports a TC for the view; a pure timeout vote carries no VoteData.
type Vote struct {
	Author           chain.Identifier
	Epoch            uint64
	View             uint64
	VoteData         *VoteData `cbor:",omitempty"`
	Timestamp        int64
	Signature        []byte `cbor:",omitempty"`
	TimeoutSignature []byte `cbor:",omitempty"`
	HighQC           HighQC
}

// ID returns the content hash of the vote.
func (v *Vote) ID() chain.Identifier {
	return chain.MakeID(v)
}

// IsTimeout reports whether the vote counts towards a TC.
func (v *Vote) IsTimeout() bool {
	return len(v.TimeoutSignature) > 0
}

// HasVoteData reports whether the vote counts towards a QC.
func (v *Vote) HasVoteData() bool {
	return v.VoteData != nil
}

// WithTimeoutSignature returns a copy of the vote that also carries sig.
func (v *Vote) WithTimeoutSignature(sig []byte) *Vote {
	cp := *v
	cp.TimeoutSignature = sig
	return &cp
}

func (v *Vote) String() string {
	return fmt.Sprintf("Vote{author=%s epoch=%d view=%d timeout=%t data=%t}",
		v.Author.TerminalString(), v.Epoch, v.View, v.IsTimeout(), v.HasVoteData())
}

// Proposal is a vertex broadcast by the leader of the vertex's view.
type Proposal struct {
	Vertex    *Vertex
	HighQC    HighQC
	Signature []byte
}

// Epoch returns the epoch of the proposed vertex.
func (p *Proposal) Epoch() uint64 { return p.Vertex.Epoch }

// View returns the view of the proposed vertex.
func (p *Proposal) View() uint64 { return p.Vertex.View }

// Author returns the proposer.
func (p *Proposal) Author() chain.Identifier { return p.Vertex.Proposer }
