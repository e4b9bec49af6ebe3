package verification

import (
	"fmt"

	"github.com/onflow/flow-go/crypto"
	"github.com/onflow/flow-go/crypto/hash"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// SigningAlgorithm is the key type used for consensus signatures.
const SigningAlgorithm = crypto.ECDSAP256

// Signer signs votes, timeouts and proposals with the replica's private key.
// Every message starts with a domain separation tag, so a signature over one
// kind of message never verifies as another.
type Signer struct {
	nodeID chain.Identifier
	key    crypto.PrivateKey
}

var _ hotstuff.Signer = (*Signer)(nil)

// NewSigner instantiates a signer for nodeID.
func NewSigner(nodeID chain.Identifier, key crypto.PrivateKey) *Signer {
	return &Signer{
		nodeID: nodeID,
		key:    key,
	}
}

// GenerateKey derives a consensus key from a seed of at least
// crypto.KeyGenSeedMinLen bytes.
func GenerateKey(seed []byte) (crypto.PrivateKey, error) {
	key, err := crypto.GeneratePrivateKey(SigningAlgorithm, seed)
	if err != nil {
		return nil, fmt.Errorf("could not generate consensus key: %w", err)
	}
	return key, nil
}

func (s *Signer) NodeID() chain.Identifier {
	return s.nodeID
}

func (s *Signer) SignVote(data model.VoteData, timestamp int64) ([]byte, error) {
	return s.sign(MakeVoteMessage(data, timestamp))
}

func (s *Signer) SignTimeout(epoch uint64, view uint64) ([]byte, error) {
	return s.sign(MakeTimeoutMessage(epoch, view))
}

func (s *Signer) SignProposal(vertexID chain.Identifier) ([]byte, error) {
	return s.sign(MakeProposalMessage(vertexID))
}

func (s *Signer) sign(msg []byte) ([]byte, error) {
	// hashers keep state, so every signature gets its own
	sig, err := s.key.Sign(msg, hash.NewSHA3_256())
	if err != nil {
		return nil, fmt.Errorf("could not sign message: %w", err)
	}
	return sig, nil
}
