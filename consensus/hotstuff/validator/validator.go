package validator

import (
	"errors"
	"fmt"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// Validator implements hotstuff.Validator for the validator set of one epoch.
type Validator struct {
	validators hotstuff.ValidatorSet
	verifier   hotstuff.Verifier
}

var _ hotstuff.Validator = (*Validator)(nil)

// New creates a validator checking messages against validators.
func New(validators hotstuff.ValidatorSet, verifier hotstuff.Verifier) *Validator {
	return &Validator{
		validators: validators,
		verifier:   verifier,
	}
}

// ValidateQC validates the QC. It doesn't validate the vertex the QC certifies.
func (v *Validator) ValidateQC(qc *model.QuorumCertificate) error {
	if qc.Epoch() != v.validators.Epoch() {
		return newInvalidCertificateError(qc.View(), model.EpochMismatchError{Expected: v.validators.Epoch(), Actual: qc.Epoch()})
	}
	if qc.IsGenesis() {
		if len(qc.Signatures) != 0 {
			return newInvalidCertificateError(qc.View(), fmt.Errorf("genesis qc must not carry signatures"))
		}
		return nil
	}
	if qc.Proposed.View <= qc.Parent.View {
		return newInvalidCertificateError(qc.View(), fmt.Errorf("certified view %d does not exceed parent view %d", qc.Proposed.View, qc.Parent.View))
	}

	data := qc.VoteData()
	signers, err := v.checkSigners(qc.Signatures)
	if err != nil {
		return newInvalidCertificateError(qc.View(), err)
	}
	for _, sig := range qc.Signatures {
		err := v.verifier.VerifyVote(signers[sig.Signer], sig.Signature, data, sig.Timestamp)
		if err != nil {
			return newInvalidCertificateError(qc.View(), fmt.Errorf("invalid signature of %v: %w", sig.Signer, err))
		}
	}
	return nil
}

// ValidateTC validates the TC.
func (v *Validator) ValidateTC(tc *model.TimeoutCertificate) error {
	if tc.Epoch != v.validators.Epoch() {
		return newInvalidCertificateError(tc.View, model.EpochMismatchError{Expected: v.validators.Epoch(), Actual: tc.Epoch})
	}
	signers, err := v.checkSigners(tc.Signatures)
	if err != nil {
		return newInvalidCertificateError(tc.View, err)
	}
	for _, sig := range tc.Signatures {
		err := v.verifier.VerifyTimeout(signers[sig.Signer], sig.Signature, tc.Epoch, tc.View)
		if err != nil {
			return newInvalidCertificateError(tc.View, fmt.Errorf("invalid timeout signature of %v: %w", sig.Signer, err))
		}
	}
	return nil
}

// checkSigners returns the validator entries of the signers if they are
// distinct members holding a quorum of the weight.
func (v *Validator) checkSigners(sigs model.SignatureBag) (map[chain.Identifier]chain.Validator, error) {
	signers := make(map[chain.Identifier]chain.Validator, len(sigs))
	var weight uint64
	for _, sig := range sigs {
		if _, dup := signers[sig.Signer]; dup {
			return nil, fmt.Errorf("duplicate signer %v", sig.Signer)
		}
		signer, ok := v.validators.ByNodeID(sig.Signer)
		if !ok {
			return nil, fmt.Errorf("signer %v is not a validator", sig.Signer)
		}
		signers[sig.Signer] = signer
		weight += signer.Weight
	}
	if !v.validators.HasQuorum(weight) {
		return nil, fmt.Errorf("signers hold weight %d, quorum is %d", weight, v.validators.QuorumThreshold())
	}
	return signers, nil
}

// ValidateHighQC validates every certificate carried by highQC.
func (v *Validator) ValidateHighQC(highQC model.HighQC) error {
	if highQC.Highest == nil || highQC.HighestCommitted == nil {
		return newInvalidCertificateError(0, fmt.Errorf("incomplete high qc"))
	}
	err := v.ValidateQC(highQC.Highest)
	if err != nil {
		return fmt.Errorf("invalid highest qc: %w", err)
	}
	if highQC.HighestCommitted.ID() != highQC.Highest.ID() {
		err = v.ValidateQC(highQC.HighestCommitted)
		if err != nil {
			return fmt.Errorf("invalid highest committed qc: %w", err)
		}
	}
	if highQC.HighestTC != nil {
		err = v.ValidateTC(highQC.HighestTC)
		if err != nil {
			return fmt.Errorf("invalid highest tc: %w", err)
		}
	}
	return nil
}

// ValidateProposal validates the vertex proposal: the proposer must lead
// the view, its signature must be valid and every carried certificate must
// be valid.
func (v *Validator) ValidateProposal(proposal *model.Proposal) error {
	vertex := proposal.Vertex
	if vertex == nil || vertex.QC == nil {
		return model.InvalidProposalError{Err: fmt.Errorf("proposal without vertex or qc")}
	}
	if vertex.Epoch != v.validators.Epoch() {
		return model.NewInvalidProposalErrorf(proposal, "epoch %d, expected %d", vertex.Epoch, v.validators.Epoch())
	}
	if vertex.View <= vertex.QC.View() {
		return model.NewInvalidProposalErrorf(proposal, "view must exceed qc view %d", vertex.QC.View())
	}

	leader := v.validators.LeaderForView(vertex.View)
	if vertex.Proposer != leader {
		return model.NewInvalidProposalErrorf(proposal, "proposer %v is not the leader %v", vertex.Proposer, leader)
	}
	proposer, ok := v.validators.ByNodeID(vertex.Proposer)
	if !ok {
		return model.NewInvalidProposalErrorf(proposal, "proposer %v is not a validator", vertex.Proposer)
	}
	err := v.verifier.VerifyProposal(proposer, proposal.Signature, vertex.ID())
	if err != nil {
		return model.NewInvalidProposalErrorf(proposal, "invalid proposer signature: %w", err)
	}

	err = v.ValidateQC(vertex.QC)
	if err != nil {
		return model.NewInvalidProposalErrorf(proposal, "invalid vertex qc: %w", err)
	}
	err = v.ValidateHighQC(proposal.HighQC)
	if err != nil {
		return model.NewInvalidProposalErrorf(proposal, "%w", err)
	}
	return nil
}

// ValidateVote validates the vote and the certificates it carries.
func (v *Validator) ValidateVote(vote *model.Vote) error {
	if vote.Epoch != v.validators.Epoch() {
		return model.NewInvalidVoteErrorf(vote, "epoch %d, expected %d", vote.Epoch, v.validators.Epoch())
	}
	author, ok := v.validators.ByNodeID(vote.Author)
	if !ok {
		return model.NewInvalidVoteErrorf(vote, "author %v is not a validator", vote.Author)
	}
	if !vote.HasVoteData() && !vote.IsTimeout() {
		return model.NewInvalidVoteErrorf(vote, "vote neither supports a vertex nor a timeout")
	}

	if vote.HasVoteData() {
		if vote.VoteData.Proposed.View != vote.View {
			return model.NewInvalidVoteErrorf(vote, "vote data is for view %d", vote.VoteData.Proposed.View)
		}
		err := v.verifier.VerifyVote(author, vote.Signature, *vote.VoteData, vote.Timestamp)
		if err != nil {
			return model.NewInvalidVoteErrorf(vote, "invalid signature: %w", err)
		}
	}
	if vote.IsTimeout() {
		err := v.verifier.VerifyTimeout(author, vote.TimeoutSignature, vote.Epoch, vote.View)
		if err != nil {
			return model.NewInvalidVoteErrorf(vote, "invalid timeout signature: %w", err)
		}
	}

	err := v.ValidateHighQC(vote.HighQC)
	if err != nil {
		return model.NewInvalidVoteErrorf(vote, "%w", err)
	}
	return nil
}

func newInvalidCertificateError(view uint64, err error) error {
	return model.InvalidCertificateError{View: view, Err: err}
}

// IsInvalidMessage reports whether err is one of the expected validation errors.
func IsInvalidMessage(err error) bool {
	return model.IsInvalidProposalError(err) ||
		model.IsInvalidVoteError(err) ||
		model.IsInvalidCertificateError(err) ||
		errors.Is(err, model.ErrInvalidSignature)
}
