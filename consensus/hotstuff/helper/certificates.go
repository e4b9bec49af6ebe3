package helper

import (
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// SignQC certifies vertex with signatures Verifier accepts.
func SignQC(vertex *model.Vertex, signers ...chain.Identifier) *model.QuorumCertificate {
	qc := MakeQC(vertex)
	sigs := make(map[chain.Identifier]model.TimestampedSignature, len(signers))
	for _, id := range signers {
		sig, _ := NewSigner(id).SignVote(qc.VoteData(), vertex.Timestamp)
		sigs[id] = model.TimestampedSignature{Signer: id, Timestamp: vertex.Timestamp, Signature: sig}
	}
	qc.Signatures = model.NewSignatureBag(sigs)
	return qc
}

// SignTC returns a TC for view with timeout signatures Verifier accepts.
func SignTC(epoch, view uint64, signers ...chain.Identifier) *model.TimeoutCertificate {
	sigs := make(map[chain.Identifier]model.TimestampedSignature, len(signers))
	for _, id := range signers {
		sig, _ := NewSigner(id).SignTimeout(epoch, view)
		sigs[id] = model.TimestampedSignature{Signer: id, Timestamp: int64(view), Signature: sig}
	}
	return &model.TimeoutCertificate{Epoch: epoch, View: view, Signatures: model.NewSignatureBag(sigs)}
}

// SignVote returns a vote of author for vertex signed the way Verifier expects.
func SignVote(author chain.Identifier, vertex *model.Vertex, highQC model.HighQC) *model.Vote {
	vote := MakeVote(author, vertex)
	vote.Signature, _ = NewSigner(author).SignVote(*vote.VoteData, vote.Timestamp)
	vote.HighQC = highQC
	return vote
}

// SignTimeoutVote returns a pure timeout vote of author signed the way Verifier expects.
func SignTimeoutVote(author chain.Identifier, epoch, view uint64, highQC model.HighQC) *model.Vote {
	vote := MakeTimeoutVote(author, epoch, view)
	vote.TimeoutSignature, _ = NewSigner(author).SignTimeout(epoch, view)
	vote.HighQC = highQC
	return vote
}

// SignProposal returns a proposal of vertex signed by its proposer.
func SignProposal(vertex *model.Vertex, highQC model.HighQC) *model.Proposal {
	sig, _ := NewSigner(vertex.Proposer).SignProposal(vertex.ID())
	return &model.Proposal{Vertex: vertex, HighQC: highQC, Signature: sig}
}
