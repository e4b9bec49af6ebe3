package model

import "fmt"

// ViewVotingResult is the certificate formed once votes for a view reach
// quorum. It is one of FormedQC or FormedTC.
type ViewVotingResult interface {
	View() uint64
	isViewVotingResult()
}

// FormedQC is the result of a quorum of regular votes.
type FormedQC struct {
	QC *QuorumCertificate
}

// FormedTC is the result of a quorum of timeout votes.
type FormedTC struct {
	TC *TimeoutCertificate
}

func (r FormedQC) View() uint64 { return r.QC.View() }
func (r FormedTC) View() uint64 { return r.TC.View }

func (FormedQC) isViewVotingResult() {}
func (FormedTC) isViewVotingResult() {}

// VoteRejectReason explains why a vote was not recorded.
type VoteRejectReason int

const (
	InvalidAuthor VoteRejectReason = iota + 1
	StaleView
	QuorumAlreadyReached
	DuplicateVote
	Unexpected
)

func (r VoteRejectReason) String() string {
	switch r {
	case InvalidAuthor:
		return "invalid_author"
	case StaleView:
		return "stale_view"
	case QuorumAlreadyReached:
		return "quorum_already_reached"
	case DuplicateVote:
		return "duplicate_vote"
	case Unexpected:
		return "unexpected"
	default:
		return fmt.Sprintf("unknown_reason_%d", int(r))
	}
}

// VoteProcessingResult is the outcome of inserting a vote into the vote
// aggregator. It is one of VoteAccepted, VoteRejected or QuorumReached.
type VoteProcessingResult interface {
	isVoteProcessingResult()
}

// VoteAccepted means the vote was recorded and quorum is not reached yet.
type VoteAccepted struct{}

// VoteRejected means the vote was dropped without any state change.
type VoteRejected struct {
	Reason VoteRejectReason
}

// QuorumReached carries the certificate the vote completed.
type QuorumReached struct {
	Result ViewVotingResult
}

func (VoteAccepted) isVoteProcessingResult()  {}
func (VoteRejected) isVoteProcessingResult()  {}
func (QuorumReached) isVoteProcessingResult() {}

func (r VoteRejected) String() string { return "rejected: " + r.Reason.String() }
