package verification

import (
	"fmt"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/onflow/flow-go/crypto"
	"github.com/onflow/flow-go/crypto/hash"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// DefaultKeyCacheSize is the number of decoded public keys kept by a Verifier.
const DefaultKeyCacheSize = 1024

type cachedKey struct {
	encoded string
	key     crypto.PublicKey
}

// Verifier checks signatures against the public keys in validator entries.
// Decoded keys are cached by node ID. Verifier is safe for concurrent use.
type Verifier struct {
	keys *lru.Cache[chain.Identifier, cachedKey]
}

var _ hotstuff.Verifier = (*Verifier)(nil)

// NewVerifier creates a verifier with a key cache of the given size.
func NewVerifier(cacheSize int) (*Verifier, error) {
	keys, err := lru.New[chain.Identifier, cachedKey](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create key cache: %w", err)
	}
	return &Verifier{keys: keys}, nil
}

func (v *Verifier) VerifyVote(signer chain.Validator, sig []byte, data model.VoteData, timestamp int64) error {
	return v.verify(signer, sig, MakeVoteMessage(data, timestamp))
}

func (v *Verifier) VerifyTimeout(signer chain.Validator, sig []byte, epoch uint64, view uint64) error {
	return v.verify(signer, sig, MakeTimeoutMessage(epoch, view))
}

func (v *Verifier) VerifyProposal(signer chain.Validator, sig []byte, vertexID chain.Identifier) error {
	return v.verify(signer, sig, MakeProposalMessage(vertexID))
}

func (v *Verifier) verify(signer chain.Validator, sig []byte, msg []byte) error {
	key, err := v.publicKey(signer)
	if err != nil {
		return fmt.Errorf("invalid public key of %v: %v: %w", signer.NodeID, err, model.ErrInvalidSignature)
	}
	valid, err := key.Verify(sig, msg, hash.NewSHA3_256())
	if err != nil {
		return fmt.Errorf("could not verify signature of %v: %w", signer.NodeID, err)
	}
	if !valid {
		return fmt.Errorf("signature of %v does not verify: %w", signer.NodeID, model.ErrInvalidSignature)
	}
	return nil
}

func (v *Verifier) publicKey(signer chain.Validator) (crypto.PublicKey, error) {
	if cached, ok := v.keys.Get(signer.NodeID); ok && cached.encoded == string(signer.PublicKey) {
		return cached.key, nil
	}
	key, err := crypto.DecodePublicKey(SigningAlgorithm, signer.PublicKey)
	if err != nil {
		return nil, err
	}
	v.keys.Add(signer.NodeID, cachedKey{encoded: string(signer.PublicKey), key: key})
	return key, nil
}
