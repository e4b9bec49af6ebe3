package pacemaker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/consensus/hotstuff/pacemaker/timeout"
	"github.com/quorumchain/bft/model/chain"
)

// Pacemaker implements hotstuff.Pacemaker. A replica is in view v once it
// knows a QC or TC for view v-1. Entering a view arms a local timer with
// capped exponential backoff; when the timer fires the view is timed out
// and a timeout vote is broadcast to all validators. The timer is re-armed
// for the same view, so the timeout vote is rebroadcast until a
// certificate moves the replica on.
//
// View updates are not handled synchronously: they are emitted through
// hotstuff.PacemakerEvents and processed when the event loop dequeues them.
type Pacemaker struct {
	log          zerolog.Logger
	self         chain.Identifier
	validators   hotstuff.ValidatorSet
	vertexStore  hotstuff.VertexStore
	safetyRules  hotstuff.SafetyRules
	communicator hotstuff.Communicator
	mempool      hotstuff.Mempool
	timeouts     *timeout.Controller
	notifier     hotstuff.Consumer
	events       hotstuff.PacemakerEvents
	now          func() time.Time

	ctx          context.Context
	curView      uint64
	viewTimeouts uint64 // local timeouts of the current view
	started      *atomic.Bool
}

var _ hotstuff.Pacemaker = (*Pacemaker)(nil)

// New creates a new Pacemaker. It does nothing until started.
func New(
	log zerolog.Logger,
	self chain.Identifier,
	validators hotstuff.ValidatorSet,
	vertexStore hotstuff.VertexStore,
	safetyRules hotstuff.SafetyRules,
	communicator hotstuff.Communicator,
	mempool hotstuff.Mempool,
	timeouts *timeout.Controller,
	notifier hotstuff.Consumer,
	events hotstuff.PacemakerEvents,
) *Pacemaker {
	return &Pacemaker{
		log: log.With().
			Str("hotstuff", "pacemaker").
			Uint64("epoch", validators.Epoch()).
			Logger(),
		self:         self,
		validators:   validators,
		vertexStore:  vertexStore,
		safetyRules:  safetyRules,
		communicator: communicator,
		mempool:      mempool,
		timeouts:     timeouts,
		notifier:     notifier,
		events:       events,
		now:          time.Now,
		ctx:          context.Background(),
		started:      atomic.NewBool(false),
	}
}

// Start enters the view following the vertex store's HighQC. The context
// bounds the lifetime of all timers.
func (p *Pacemaker) Start(ctx context.Context) error {
	if p.started.Swap(true) {
		return nil
	}
	p.ctx = ctx
	highQC := p.vertexStore.HighQC()
	p.enterView(highQC.HighestView()+1, highQC)
	return nil
}

// CurView returns the current view
func (p *Pacemaker) CurView() uint64 {
	return p.curView
}

// TimeoutChannel returns the timeout channel for the currently armed timer.
func (p *Pacemaker) TimeoutChannel() <-chan model.LocalTimeout {
	return p.timeouts.Channel()
}

// ProcessQC notifies the pacemaker of the replica's HighQC, which might
// allow it to fast-forward its view. A QC for the view just left counts as
// progress and resets the backoff; a TC does not.
func (p *Pacemaker) ProcessQC(highQC model.HighQC) (bool, error) {
	newView := highQC.HighestView() + 1
	if newView <= p.curView {
		return false, nil
	}
	if highQC.Highest.View()+1 == newView {
		p.timeouts.OnProgress()
	}
	p.enterView(newView, highQC)
	return true, nil
}

func (p *Pacemaker) enterView(view uint64, highQC model.HighQC) {
	p.curView = view
	p.viewTimeouts = 0

	armed := p.timeouts.StartTimeout(p.ctx, p.validators.Epoch(), view, 0)
	p.notifier.OnStartingTimeout(armed)

	update := model.ViewUpdate{
		CurrentView: view,
		HighQC:      highQC,
		Leader:      p.validators.LeaderForView(view),
		NextLeader:  p.validators.LeaderForView(view + 1),
	}
	p.log.Debug().
		Uint64("cur_view", view).
		Uint64("last_certified_view", update.LastCertifiedView()).
		Dur("timeout", armed.Duration).
		Msg("entering view")
	p.events.OnViewUpdate(update)
}

// OnViewUpdate proposes if the replica leads the view of the update.
// Updates for views the replica already left are ignored.
func (p *Pacemaker) OnViewUpdate(update model.ViewUpdate) error {
	if update.CurrentView != p.curView {
		return nil
	}
	p.notifier.OnEnteringView(update)
	if update.Leader != p.self {
		return nil
	}
	return p.propose(update.CurrentView)
}

// propose builds a vertex on top of the HighQC. The certified vertex is
// always in the vertex store, so the new vertex never extends an
// unprepared parent.
func (p *Pacemaker) propose(view uint64) error {
	highQC := p.vertexStore.HighQC()
	parentID := highQC.Highest.VertexID()
	parent, ok := p.vertexStore.GetVertex(parentID)
	if !ok {
		return fmt.Errorf("high qc certifies vertex %v which is not in the vertex store", parentID)
	}
	path, ok := p.vertexStore.GetPathFromRoot(parentID)
	if !ok {
		return fmt.Errorf("no path from root to high qc vertex %v", parentID)
	}

	// after the end of the epoch only empty vertices are proposed
	var payload [][]byte
	if !parent.Ledger.IsEndOfEpoch() {
		payload = p.mempool.GetNextPayload(path)
	}

	vertex := model.NewVertex(highQC.Highest, view, payload, p.self, p.now())
	proposal, err := p.safetyRules.SignProposal(vertex, highQC)
	if model.IsNoVoteError(err) {
		p.log.Warn().Err(err).Uint64("cur_view", view).Msg("not proposing")
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not sign proposal for view %d: %w", view, err)
	}

	p.log.Debug().
		Uint64("cur_view", view).
		Uint64("qc_view", highQC.Highest.View()).
		Int("payload", len(payload)).
		Msg("proposing vertex")
	p.notifier.OnProposing(proposal)
	p.communicator.BroadcastProposal(proposal, p.validators.NodeIDs())
	return nil
}

// OnLocalTimeout times out the current view: it broadcasts a timeout vote
// and re-arms the timer with a longer duration. Timeouts of timers that
// were superseded are ignored.
func (p *Pacemaker) OnLocalTimeout(timeout model.LocalTimeout) (bool, error) {
	if timeout.Epoch != p.validators.Epoch() || timeout.View != p.curView || timeout.Count != p.viewTimeouts {
		return false, nil
	}

	p.notifier.OnLocalTimeout(timeout)
	p.timeouts.OnTimeout()
	p.viewTimeouts++

	vote, err := p.safetyRules.SignTimeout(timeout.View, p.vertexStore.HighQC())
	switch {
	case model.IsNoVoteError(err):
		p.log.Warn().Err(err).Uint64("cur_view", timeout.View).Msg("not signing timeout")
	case err != nil:
		return false, fmt.Errorf("could not sign timeout for view %d: %w", timeout.View, err)
	default:
		p.log.Info().
			Uint64("cur_view", timeout.View).
			Uint64("count", timeout.Count).
			Dur("duration", timeout.Duration).
			Msg("view timed out, broadcasting timeout vote")
		p.notifier.OnVoting(vote)
		p.communicator.BroadcastVote(vote, p.validators.NodeIDs())
	}

	armed := p.timeouts.StartTimeout(p.ctx, timeout.Epoch, timeout.View, p.viewTimeouts)
	p.notifier.OnStartingTimeout(armed)
	return true, nil
}
