package hotstuff

import (
	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// Validator checks inbound messages before they reach the event handler.
// Expected errors are model.InvalidProposalError, model.InvalidVoteError and
// model.InvalidCertificateError; anything else is an exception.
type Validator interface {
	// ValidateQC checks that qc carries a quorum of valid vote signatures.
	ValidateQC(qc *model.QuorumCertificate) error

	// ValidateTC checks that tc carries a quorum of valid timeout signatures.
	ValidateTC(tc *model.TimeoutCertificate) error

	// ValidateHighQC checks every certificate of highQC.
	ValidateHighQC(highQC model.HighQC) error

	// ValidateProposal checks that the proposal is signed by the leader of
	// its view and that its certificates are valid.
	ValidateProposal(proposal *model.Proposal) error

	// ValidateVote checks the signatures of a vote by a member.
	ValidateVote(vote *model.Vote) error
}
