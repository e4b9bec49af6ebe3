package pendingvotes

import (
	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// previousVote is what we remember about an author's latest vote so that a
// newer vote can replace it instead of double counting.
type previousVote struct {
	view      uint64
	epoch     uint64
	dataID    chain.Identifier
	isTimeout bool
}

type timeoutKey struct {
	epoch uint64
	view  uint64
}

// PendingVotes aggregates votes into QCs and timeout votes into TCs.
//
// PendingVotes is not concurrency safe. All votes of one epoch are expected
// to arrive through the single event loop of that epoch.
type PendingVotes struct {
	voteStates    map[chain.Identifier]*validationState
	timeoutStates map[timeoutKey]*validationState
	previousVotes map[chain.Identifier]previousVote
	quorumViews   map[uint64]struct{}
	lowestView    uint64
}

var _ hotstuff.VoteAggregator = (*PendingVotes)(nil)

// New creates an empty vote aggregator.
func New() *PendingVotes {
	return &PendingVotes{
		voteStates:    make(map[chain.Identifier]*validationState),
		timeoutStates: make(map[timeoutKey]*validationState),
		previousVotes: make(map[chain.Identifier]previousVote),
		quorumViews:   make(map[uint64]struct{}),
	}
}

// InsertVote records a vote that already passed signature verification and
// returns one of:
//   - model.VoteRejected if the author is not a member, the vote is for a
//     pruned view or another epoch, quorum for the view was already reached,
//     or it repeats the author's previous vote
//   - model.QuorumReached if the vote completed a QC or a TC; a QC takes
//     precedence if both become possible with the same vote
//   - model.VoteAccepted otherwise
//
// A new vote of an author replaces that author's previous vote.
func (p *PendingVotes) InsertVote(vote *model.Vote, validators hotstuff.ValidatorSet) model.VoteProcessingResult {
	if !validators.Contains(vote.Author) {
		return model.VoteRejected{Reason: model.InvalidAuthor}
	}
	if vote.Epoch != validators.Epoch() {
		return model.VoteRejected{Reason: model.Unexpected}
	}
	if vote.View < p.lowestView {
		return model.VoteRejected{Reason: model.StaleView}
	}
	if _, done := p.quorumViews[vote.View]; done {
		return model.VoteRejected{Reason: model.QuorumAlreadyReached}
	}

	var dataID chain.Identifier
	if vote.VoteData != nil {
		dataID = vote.VoteData.ID()
	}
	if !p.replacePreviousVote(vote, dataID, validators) {
		return model.VoteRejected{Reason: model.DuplicateVote}
	}

	if result, ok := p.processVoteForQC(vote, dataID, validators); ok {
		p.quorumViews[vote.View] = struct{}{}
		return model.QuorumReached{Result: result}
	}
	if result, ok := p.processVoteForTC(vote, validators); ok {
		p.quorumViews[vote.View] = struct{}{}
		return model.QuorumReached{Result: result}
	}
	return model.VoteAccepted{}
}

func (p *PendingVotes) processVoteForQC(vote *model.Vote, dataID chain.Identifier, validators hotstuff.ValidatorSet) (model.ViewVotingResult, bool) {
	if vote.VoteData == nil {
		return nil, false
	}
	state, ok := p.voteStates[dataID]
	if !ok {
		state = newValidationState(vote.View)
		p.voteStates[dataID] = state
	}
	sig := model.TimestampedSignature{Signer: vote.Author, Timestamp: vote.Timestamp, Signature: vote.Signature}
	if !state.addSignature(sig, validators) {
		return nil, false
	}
	qc := &model.QuorumCertificate{
		Proposed:   vote.VoteData.Proposed,
		Parent:     vote.VoteData.Parent,
		Signatures: state.signatureBag(),
	}
	return model.FormedQC{QC: qc}, true
}

func (p *PendingVotes) processVoteForTC(vote *model.Vote, validators hotstuff.ValidatorSet) (model.ViewVotingResult, bool) {
	if !vote.IsTimeout() {
		return nil, false
	}
	key := timeoutKey{epoch: vote.Epoch, view: vote.View}
	state, ok := p.timeoutStates[key]
	if !ok {
		state = newValidationState(vote.View)
		p.timeoutStates[key] = state
	}
	sig := model.TimestampedSignature{Signer: vote.Author, Timestamp: vote.Timestamp, Signature: vote.TimeoutSignature}
	if !state.addSignature(sig, validators) {
		return nil, false
	}
	tc := &model.TimeoutCertificate{
		Epoch:      vote.Epoch,
		View:       vote.View,
		Signatures: state.signatureBag(),
	}
	return model.FormedTC{TC: tc}, true
}

// replacePreviousVote removes the author's previous vote from whatever
// state it contributed to. It returns false if the vote is identical to the
// previous one, in which case nothing changes.
func (p *PendingVotes) replacePreviousVote(vote *model.Vote, dataID chain.Identifier, validators hotstuff.ValidatorSet) bool {
	current := previousVote{
		view:      vote.View,
		epoch:     vote.Epoch,
		dataID:    dataID,
		isTimeout: vote.IsTimeout(),
	}
	previous, ok := p.previousVotes[vote.Author]
	if ok && previous == current {
		return false
	}
	p.previousVotes[vote.Author] = current
	if !ok {
		return true
	}

	if !previous.dataID.IsZero() {
		if state, found := p.voteStates[previous.dataID]; found {
			state.removeSignature(vote.Author, validators)
			if state.isEmpty() {
				delete(p.voteStates, previous.dataID)
			}
		}
	}
	if previous.isTimeout {
		key := timeoutKey{epoch: previous.epoch, view: previous.view}
		if state, found := p.timeoutStates[key]; found {
			state.removeSignature(vote.Author, validators)
			if state.isEmpty() {
				delete(p.timeoutStates, key)
			}
		}
	}
	return true
}

// PruneBelow drops all state for views below view. Votes for those views
// are rejected as stale from now on.
func (p *PendingVotes) PruneBelow(view uint64) {
	if view <= p.lowestView {
		return
	}
	p.lowestView = view
	for id, state := range p.voteStates {
		if state.view < view {
			delete(p.voteStates, id)
		}
	}
	for key := range p.timeoutStates {
		if key.view < view {
			delete(p.timeoutStates, key)
		}
	}
	for author, prev := range p.previousVotes {
		if prev.view < view {
			delete(p.previousVotes, author)
		}
	}
	for v := range p.quorumViews {
		if v < view {
			delete(p.quorumViews, v)
		}
	}
}

// LowestView returns the lowest view for which votes are still accepted.
func (p *PendingVotes) LowestView() uint64 {
	return p.lowestView
}
