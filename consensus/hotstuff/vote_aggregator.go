package hotstuff

import (
	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// VoteAggregator accumulates votes and timeout votes per view until they
// form a QC or a TC. It is driven by the event loop.
type VoteAggregator interface {
	// InsertVote adds a verified vote and reports whether it formed a certificate.
	InsertVote(vote *model.Vote, validators ValidatorSet) model.VoteProcessingResult

	// PruneBelow drops all votes for views below view.
	PruneBelow(view uint64)
}
