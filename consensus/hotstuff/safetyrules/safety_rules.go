package safetyrules

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/storage"
	"github.com/quorumchain/bft/utils/logging"
)

// SafetyRules produces votes, timeouts and proposal signatures. It never
// signs two different votes for the same view and never votes for a vertex
// whose QC is older than the locked view.
//
// SafetyRules is not concurrency safe. It is owned by the event handler.
type SafetyRules struct {
	log        zerolog.Logger
	signer     hotstuff.Signer
	persist    hotstuff.Persister
	validators hotstuff.ValidatorSet
	now        func() time.Time
	state      model.SafetyState
}

var _ hotstuff.SafetyRules = (*SafetyRules)(nil)

// Option customizes SafetyRules.
type Option func(*SafetyRules)

// WithTimeSupplier sets the clock used to timestamp votes.
func WithTimeSupplier(now func() time.Time) Option {
	return func(r *SafetyRules) {
		r.now = now
	}
}

// New creates SafetyRules for the epoch of validators, restoring the
// persisted safety state. State persisted for an earlier epoch is replaced
// by a fresh one. State persisted for a later epoch is a configuration error.
func New(
	log zerolog.Logger,
	signer hotstuff.Signer,
	persist hotstuff.Persister,
	validators hotstuff.ValidatorSet,
	opts ...Option,
) (*SafetyRules, error) {
	epoch := validators.Epoch()
	state, err := persist.GetSafetyState()
	if errors.Is(err, storage.ErrNotFound) {
		state = model.NewSafetyState(epoch)
	} else if err != nil {
		return nil, fmt.Errorf("could not load safety state: %w", err)
	}
	if state.Epoch > epoch {
		return nil, model.NewConfigurationErrorf("persisted safety state is for epoch %d, ahead of epoch %d", state.Epoch, epoch)
	}
	if state.Epoch < epoch {
		state = model.NewSafetyState(epoch)
	}

	r := &SafetyRules{
		log:        log.With().Str("hotstuff", "safety_rules").Uint64("epoch", epoch).Logger(),
		signer:     signer,
		persist:    persist,
		validators: validators,
		now:        time.Now,
		state:      *state,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// State returns a copy of the current safety state.
func (r *SafetyRules) State() model.SafetyState {
	return r.state
}

// VoteFor decides whether it is safe to vote for the prepared vertex and, if
// so, returns the signed vote after the new safety state is durable.
// Returns:
//   - (vote, nil): the vertex is safe to vote for, or it is the vertex already voted for
//   - (nil, model.NoVoteError): voting would violate safety or the vertex is malformed
//
// All other errors are fatal.
func (r *SafetyRules) VoteFor(prepared *model.PreparedVertex, highQC model.HighQC) (*model.Vote, error) {
	vertex := prepared.Vertex
	err := r.checkVertex(prepared)
	if err != nil {
		return nil, err
	}

	if last := r.state.LastVote; last != nil && last.View == vertex.View && last.HasVoteData() &&
		last.VoteData.Proposed.VertexID == prepared.VertexID {
		return last, nil
	}
	if vertex.View <= r.state.LastVotedView {
		return nil, model.NewNoVoteErrorf("already voted in view %d, vertex is at view %d", r.state.LastVotedView, vertex.View)
	}
	if vertex.QC.View() < r.state.LockedView {
		return nil, model.NewNoVoteErrorf("vertex QC view %d is below locked view %d", vertex.QC.View(), r.state.LockedView)
	}
	if !r.validators.Contains(r.signer.NodeID()) {
		return nil, model.NoVoteError{Msg: "not a member of the validator set"}
	}

	data := model.VoteData{
		Proposed: prepared.Header(),
		Parent:   vertex.QC.Proposed,
	}
	timestamp := r.now().UnixMilli()
	sig, err := r.signer.SignVote(data, timestamp)
	if err != nil {
		return nil, fmt.Errorf("could not sign vote for vertex %v: %w", prepared.VertexID, err)
	}
	vote := &model.Vote{
		Author:    r.signer.NodeID(),
		Epoch:     vertex.Epoch,
		View:      vertex.View,
		VoteData:  &data,
		Timestamp: timestamp,
		Signature: sig,
		HighQC:    highQC,
	}

	next := r.state
	next.LastVotedView = vertex.View
	next.LockedView = maxView(next.LockedView, vertex.QC.Parent.View)
	next.LastVote = vote
	err = r.commit(next)
	if err != nil {
		return nil, err
	}

	r.log.Debug().
		Uint64("vertex_view", vertex.View).
		Hex("vertex_id", prepared.VertexID[:]).
		Uint64("locked_view", next.LockedView).
		Msg("voted for vertex")
	return vote, nil
}

// SignTimeout signs a timeout for view. A vote already cast in view gets the
// timeout signature added, otherwise a pure timeout vote is created.
// Returns a model.NoVoteError if the replica already voted in a later view.
func (r *SafetyRules) SignTimeout(view uint64, highQC model.HighQC) (*model.Vote, error) {
	if view < r.state.LastVotedView {
		return nil, model.NewNoVoteErrorf("cannot time out view %d after voting in view %d", view, r.state.LastVotedView)
	}
	if !r.validators.Contains(r.signer.NodeID()) {
		return nil, model.NoVoteError{Msg: "not a member of the validator set"}
	}

	last := r.state.LastVote
	if last != nil && last.View == view && last.IsTimeout() {
		return last, nil
	}

	sig, err := r.signer.SignTimeout(r.state.Epoch, view)
	if err != nil {
		return nil, fmt.Errorf("could not sign timeout for view %d: %w", view, err)
	}
	var vote *model.Vote
	if last != nil && last.View == view {
		vote = last.WithTimeoutSignature(sig)
		vote.HighQC = highQC
	} else {
		vote = &model.Vote{
			Author:           r.signer.NodeID(),
			Epoch:            r.state.Epoch,
			View:             view,
			Timestamp:        r.now().UnixMilli(),
			TimeoutSignature: sig,
			HighQC:           highQC,
		}
	}

	next := r.state
	next.LastVotedView = view
	next.LastVote = vote
	err = r.commit(next)
	if err != nil {
		return nil, err
	}

	r.log.Debug().Uint64("timeout_view", view).Bool("with_vote_data", vote.HasVoteData()).Msg("signed timeout")
	return vote, nil
}

// GetLastVote returns the last vote if it was cast in view.
func (r *SafetyRules) GetLastVote(view uint64) (*model.Vote, bool) {
	last := r.state.LastVote
	if last == nil || last.View != view {
		return nil, false
	}
	return last, true
}

// SignProposal signs a vertex this replica proposes. The vertex must extend
// a QC at or above the locked view. The lock is advanced with highQC first.
func (r *SafetyRules) SignProposal(vertex *model.Vertex, highQC model.HighQC) (*model.Proposal, error) {
	if vertex.Proposer != r.signer.NodeID() {
		return nil, fmt.Errorf("cannot sign vertex %v proposed by %v", vertex.ID(), vertex.Proposer)
	}
	if vertex.IsGenesis() || vertex.View <= vertex.QC.View() {
		return nil, model.NewNoVoteErrorf("vertex at view %d does not extend a lower view", vertex.View)
	}
	if vertex.Epoch != r.state.Epoch {
		return nil, model.NewNoVoteErrorf("vertex epoch %d differs from epoch %d", vertex.Epoch, r.state.Epoch)
	}

	locked := maxView(r.state.LockedView, highQC.Highest.Parent.View)
	if vertex.QC.View() < locked {
		return nil, model.NewNoVoteErrorf("proposal QC view %d is below locked view %d", vertex.QC.View(), locked)
	}
	if locked != r.state.LockedView {
		next := r.state
		next.LockedView = locked
		err := r.commit(next)
		if err != nil {
			return nil, err
		}
	}

	vertexID := vertex.ID()
	sig, err := r.signer.SignProposal(vertexID)
	if err != nil {
		return nil, fmt.Errorf("could not sign proposal %v: %w", vertexID, err)
	}
	r.log.Debug().Uint64("vertex_view", vertex.View).Hex("vertex_id", logging.ID(vertex)).Msg("signed proposal")
	return &model.Proposal{
		Vertex:    vertex,
		HighQC:    highQC,
		Signature: sig,
	}, nil
}

// checkVertex performs the structural checks a vertex must pass before
// SafetyRules considers voting for it.
func (r *SafetyRules) checkVertex(prepared *model.PreparedVertex) error {
	vertex := prepared.Vertex
	if vertex.IsGenesis() {
		return model.NoVoteError{Msg: "cannot vote for a genesis vertex"}
	}
	if vertex.Epoch != r.state.Epoch {
		return model.NewNoVoteErrorf("vertex epoch %d differs from epoch %d", vertex.Epoch, r.state.Epoch)
	}
	if prepared.VertexID != vertex.ID() {
		return model.NewNoVoteErrorf("prepared vertex id %v does not match vertex content", prepared.VertexID)
	}
	if vertex.View <= vertex.QC.View() {
		return model.NewNoVoteErrorf("vertex view %d does not exceed parent view %d", vertex.View, vertex.QC.View())
	}
	if prepared.Ledger.Epoch != vertex.Epoch {
		return model.NewNoVoteErrorf("prepared ledger epoch %d differs from vertex epoch %d", prepared.Ledger.Epoch, vertex.Epoch)
	}
	return nil
}

// commit persists next and only then makes it the current state.
func (r *SafetyRules) commit(next model.SafetyState) error {
	err := r.persist.PutSafetyState(&next)
	if err != nil {
		return fmt.Errorf("could not persist safety state: %w", err)
	}
	r.state = next
	return nil
}

func maxView(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
