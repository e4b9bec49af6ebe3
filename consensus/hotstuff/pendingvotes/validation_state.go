package pendingvotes

import (
	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// validationState accumulates signatures for one certificate candidate and
// tracks the distinct-signer weight they carry.
type validationState struct {
	view       uint64
	signatures map[chain.Identifier]model.TimestampedSignature
	weight     uint64
}

func newValidationState(view uint64) *validationState {
	return &validationState{
		view:       view,
		signatures: make(map[chain.Identifier]model.TimestampedSignature),
	}
}

// addSignature records sig and reports whether the accumulated weight
// reached quorum. Adding the same signer twice does not add weight.
func (s *validationState) addSignature(sig model.TimestampedSignature, validators hotstuff.ValidatorSet) bool {
	if _, ok := s.signatures[sig.Signer]; !ok {
		s.weight += validators.WeightOf(sig.Signer)
	}
	s.signatures[sig.Signer] = sig
	return validators.HasQuorum(s.weight)
}

func (s *validationState) removeSignature(signer chain.Identifier, validators hotstuff.ValidatorSet) {
	if _, ok := s.signatures[signer]; !ok {
		return
	}
	delete(s.signatures, signer)
	s.weight -= validators.WeightOf(signer)
}

func (s *validationState) isEmpty() bool {
	return len(s.signatures) == 0
}

func (s *validationState) signatureBag() model.SignatureBag {
	return model.NewSignatureBag(s.signatures)
}
