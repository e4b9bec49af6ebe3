package helper

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// Signer produces deterministic fake signatures: the signer ID followed by
// a digest of the signed content. Verifier accepts exactly these.
type Signer struct {
	nodeID chain.Identifier
	Err    error
}

var _ hotstuff.Signer = (*Signer)(nil)

func NewSigner(nodeID chain.Identifier) *Signer {
	return &Signer{nodeID: nodeID}
}

func (s *Signer) NodeID() chain.Identifier { return s.nodeID }

func (s *Signer) SignVote(data model.VoteData, timestamp int64) ([]byte, error) {
	return s.sign(voteDigest(data, timestamp))
}

func (s *Signer) SignTimeout(epoch uint64, view uint64) ([]byte, error) {
	return s.sign(timeoutDigest(epoch, view))
}

func (s *Signer) SignProposal(vertexID chain.Identifier) ([]byte, error) {
	return s.sign(vertexID[:])
}

func (s *Signer) sign(digest []byte) ([]byte, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return fakeSignature(s.nodeID, digest), nil
}

// Verifier checks signatures produced by Signer.
type Verifier struct{}

var _ hotstuff.Verifier = Verifier{}

func (Verifier) VerifyVote(signer chain.Validator, sig []byte, data model.VoteData, timestamp int64) error {
	return verifyFake(signer.NodeID, sig, voteDigest(data, timestamp))
}

func (Verifier) VerifyTimeout(signer chain.Validator, sig []byte, epoch uint64, view uint64) error {
	return verifyFake(signer.NodeID, sig, timeoutDigest(epoch, view))
}

func (Verifier) VerifyProposal(signer chain.Validator, sig []byte, vertexID chain.Identifier) error {
	return verifyFake(signer.NodeID, sig, vertexID[:])
}

func voteDigest(data model.VoteData, timestamp int64) []byte {
	id := data.ID()
	return binary.BigEndian.AppendUint64(id[:], uint64(timestamp))
}

func timeoutDigest(epoch uint64, view uint64) []byte {
	digest := binary.BigEndian.AppendUint64([]byte("timeout"), epoch)
	return binary.BigEndian.AppendUint64(digest, view)
}

func fakeSignature(nodeID chain.Identifier, digest []byte) []byte {
	sig := make([]byte, 0, chain.IdentifierLen*2)
	sig = append(sig, nodeID[:]...)
	h := chain.HashToID(digest)
	return append(sig, h[:]...)
}

func verifyFake(nodeID chain.Identifier, sig []byte, digest []byte) error {
	if !bytes.Equal(sig, fakeSignature(nodeID, digest)) {
		return fmt.Errorf("fake signature of %v does not match: %w", nodeID, model.ErrInvalidSignature)
	}
	return nil
}
