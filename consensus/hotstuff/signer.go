package hotstuff

import (
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// Signer signs consensus messages with the replica's own key.
type Signer interface {
	// NodeID returns the ID of the replica owning the key.
	NodeID() chain.Identifier

	// SignVote signs vote data together with the vote timestamp.
	SignVote(data model.VoteData, timestamp int64) ([]byte, error)

	// SignTimeout signs the statement that the replica timed out (epoch, view).
	SignTimeout(epoch uint64, view uint64) ([]byte, error)

	// SignProposal signs a vertex the replica proposes.
	SignProposal(vertexID chain.Identifier) ([]byte, error)
}

// Verifier verifies signatures of other replicas. All methods return an
// error wrapping model.ErrInvalidSignature if the signature is invalid.
type Verifier interface {
	VerifyVote(signer chain.Validator, sig []byte, data model.VoteData, timestamp int64) error
	VerifyTimeout(signer chain.Validator, sig []byte, epoch uint64, view uint64) error
	VerifyProposal(signer chain.Validator, sig []byte, vertexID chain.Identifier) error
}
