package eventhandler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/consensus/hotstuff/validator"
	"github.com/quorumchain/bft/consensus/hotstuff/vertexstore"
	"github.com/quorumchain/bft/model/chain"
)

// bufferedEvent is a proposal or a vote that cannot be processed yet,
// either because it is for a future view or because the vertex its HighQC
// certifies is still being synced.
type bufferedEvent struct {
	proposal *model.Proposal
	vote     *model.Vote
}

func (b bufferedEvent) view() uint64 {
	if b.proposal != nil {
		return b.proposal.View()
	}
	return b.vote.View
}

// EventHandler is the main handler for individual events that trigger state
// transition. It exposes API to handle one event at a time synchronously.
// The caller is responsible for running the event loop to ensure that.
//
// A replica votes for the vertex of its current view only once both the
// vertex got inserted and the view update for that view was processed,
// whichever happens last. It never votes in a view that it timed out.
type EventHandler struct {
	log            zerolog.Logger
	self           chain.Identifier
	validators     hotstuff.ValidatorSet
	validator      hotstuff.Validator
	pacemaker      hotstuff.Pacemaker
	vertexStore    hotstuff.VertexStore
	safetyRules    hotstuff.SafetyRules
	voteAggregator hotstuff.VoteAggregator
	sync           hotstuff.BFTSync
	communicator   hotstuff.Communicator
	notifier       hotstuff.Consumer
	events         hotstuff.QuorumEvents
	cfg            config

	latestViewUpdate model.ViewUpdate
	latestInsert     *model.PreparedVertex
	hasReachedQuorum bool
	isViewTimedOut   bool

	syncWaiting  map[chain.Identifier][]bufferedEvent
	futureEvents map[uint64][]bufferedEvent
	buffered     int
}

var _ hotstuff.EventHandler = (*EventHandler)(nil)

// New creates an EventHandler instance with initial components.
func New(
	log zerolog.Logger,
	self chain.Identifier,
	validators hotstuff.ValidatorSet,
	validator hotstuff.Validator,
	pacemaker hotstuff.Pacemaker,
	vertexStore hotstuff.VertexStore,
	safetyRules hotstuff.SafetyRules,
	voteAggregator hotstuff.VoteAggregator,
	sync hotstuff.BFTSync,
	communicator hotstuff.Communicator,
	notifier hotstuff.Consumer,
	events hotstuff.QuorumEvents,
	opts ...Option,
) *EventHandler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &EventHandler{
		log: log.With().
			Str("hotstuff", "participant").
			Uint64("epoch", validators.Epoch()).
			Logger(),
		self:           self,
		validators:     validators,
		validator:      validator,
		pacemaker:      pacemaker,
		vertexStore:    vertexStore,
		safetyRules:    safetyRules,
		voteAggregator: voteAggregator,
		sync:           sync,
		communicator:   communicator,
		notifier:       notifier,
		events:         events,
		cfg:            cfg,
		syncWaiting:    make(map[chain.Identifier][]bufferedEvent),
		futureEvents:   make(map[uint64][]bufferedEvent),
	}
}

// Start starts the pacemaker. The first view update follows through the event loop.
func (e *EventHandler) Start(ctx context.Context) error {
	err := e.pacemaker.Start(ctx)
	if err != nil {
		return fmt.Errorf("could not start pacemaker: %w", err)
	}
	return nil
}

// TimeoutChannel returns the channel of the pacemaker's armed timer.
func (e *EventHandler) TimeoutChannel() <-chan model.LocalTimeout {
	return e.pacemaker.TimeoutChannel()
}

func (e *EventHandler) curView() uint64 {
	return e.latestViewUpdate.CurrentView
}

// OnProposal processes a proposal received from the network. The vertex is
// inserted into the vertex store but not voted for yet: voting happens
// when the insertion comes back as a BFTInsertUpdate.
func (e *EventHandler) OnProposal(proposal *model.Proposal) error {
	e.notifier.OnReceiveProposal(e.curView(), proposal)
	defer e.notifier.OnEventProcessed()

	err := e.validator.ValidateProposal(proposal)
	if validator.IsInvalidMessage(err) {
		e.notifier.OnInvalidMessage(err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not validate proposal: %w", err)
	}
	return e.processProposal(proposal)
}

func (e *EventHandler) processProposal(proposal *model.Proposal) error {
	vertex := proposal.Vertex
	vertexID := vertex.ID()
	log := e.log.With().
		Uint64("cur_view", e.curView()).
		Uint64("vertex_view", vertex.View).
		Hex("vertex_id", vertexID[:]).
		Uint64("qc_view", vertex.QC.View()).
		Hex("proposer_id", vertex.Proposer[:]).
		Logger()

	if vertex.View < e.curView() {
		log.Debug().Msg("stale proposal")
		return nil
	}

	event := bufferedEvent{proposal: proposal}
	ready, err := e.syncUp(proposal.HighQC, vertex.Proposer, event)
	if err != nil || !ready {
		return err
	}
	// a leader may extend a QC lower than the HighQC it sent along
	parentQC := model.NewHighQC(vertex.QC, proposal.HighQC.HighestCommitted, nil)
	ready, err = e.syncUp(parentQC, vertex.Proposer, event)
	if err != nil || !ready {
		return err
	}

	if vertex.View > e.curView() {
		log.Debug().Msg("proposal for future view buffered")
		e.bufferFuture(event)
		return nil
	}

	_, err = e.vertexStore.InsertVertex(vertex)
	if vertexstore.IsRecoverable(err) {
		e.notifier.OnInvalidMessage(fmt.Errorf("could not insert proposed vertex %v: %w", vertexID, err))
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not insert proposed vertex %v: %w", vertexID, err)
	}
	log.Debug().Msg("proposal inserted")
	return nil
}

// OnVote processes a vote received from the network.
func (e *EventHandler) OnVote(vote *model.Vote) error {
	e.notifier.OnReceiveVote(e.curView(), vote)
	defer e.notifier.OnEventProcessed()

	err := e.validator.ValidateVote(vote)
	if validator.IsInvalidMessage(err) {
		e.notifier.OnInvalidMessage(err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not validate vote: %w", err)
	}
	return e.processVote(vote)
}

func (e *EventHandler) processVote(vote *model.Vote) error {
	log := e.log.With().
		Uint64("cur_view", e.curView()).
		Uint64("vote_view", vote.View).
		Hex("voter_id", vote.Author[:]).
		Bool("timeout", vote.IsTimeout()).
		Logger()

	if vote.View < e.curView() {
		log.Debug().Msg("stale vote")
		return nil
	}

	event := bufferedEvent{vote: vote}
	ready, err := e.syncUp(vote.HighQC, vote.Author, event)
	if err != nil || !ready {
		return err
	}

	if vote.View > e.curView() {
		log.Debug().Msg("vote for future view buffered")
		e.bufferFuture(event)
		return nil
	}
	if e.hasReachedQuorum {
		log.Debug().Msg("quorum already reached, vote ignored")
		return nil
	}
	// regular votes go to the next leader, timeout votes to everybody
	if e.self != e.latestViewUpdate.NextLeader && !vote.IsTimeout() {
		log.Debug().Msg("unexpected vote, replica is not the next leader")
		return nil
	}

	result := e.voteAggregator.InsertVote(vote, e.validators)
	switch r := result.(type) {
	case model.VoteAccepted:
		log.Debug().Msg("vote accepted")
	case model.VoteRejected:
		log.Debug().Str("reason", r.Reason.String()).Msg("vote rejected")
		e.notifier.OnVoteRejected(vote, r.Reason)
	case model.QuorumReached:
		log.Info().Uint64("certified_view", r.Result.View()).Msg("quorum reached")
		e.hasReachedQuorum = true
		event := model.ViewQuorumReached{Result: r.Result, LastAuthor: vote.Author}
		e.notifier.OnQuorumReached(event)
		e.events.OnViewQuorumReached(event)
	default:
		return fmt.Errorf("unknown vote processing result %T", result)
	}
	return nil
}

// syncUp brings the vertex store up to date with the HighQC a message
// carries. If vertices are missing, the event is parked until the
// certified vertex gets inserted, and false is returned.
func (e *EventHandler) syncUp(highQC model.HighQC, author chain.Identifier, event bufferedEvent) (bool, error) {
	synced, err := e.sync.SyncToQC(highQC, author)
	if err != nil {
		return false, fmt.Errorf("could not sync to qc for view %d: %w", highQC.Highest.View(), err)
	}
	if !synced {
		if e.reserve() {
			vertexID := highQC.Highest.VertexID()
			e.syncWaiting[vertexID] = append(e.syncWaiting[vertexID], event)
		}
		return false, nil
	}
	return true, e.processHighQC()
}

// processHighQC lets the pacemaker advance on the vertex store's HighQC.
func (e *EventHandler) processHighQC() error {
	_, err := e.pacemaker.ProcessQC(e.vertexStore.HighQC())
	if err != nil {
		return fmt.Errorf("could not process high qc: %w", err)
	}
	return nil
}

func (e *EventHandler) bufferFuture(event bufferedEvent) {
	if e.reserve() {
		view := event.view()
		e.futureEvents[view] = append(e.futureEvents[view], event)
	}
}

// reserve accounts for one more parked event. It returns false if the
// buffer is full, in which case the event is dropped.
func (e *EventHandler) reserve() bool {
	if e.buffered >= e.cfg.maxBufferedEvents {
		e.log.Warn().Int("buffered", e.buffered).Msg("event buffer full, dropping event")
		return false
	}
	e.buffered++
	return true
}

func (e *EventHandler) replay(events []bufferedEvent) error {
	e.buffered -= len(events)
	for _, event := range events {
		var err error
		if event.proposal != nil {
			err = e.processProposal(event.proposal)
		} else {
			err = e.processVote(event.vote)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// OnViewQuorumReached processes a QC or TC formed by this replica's vote
// aggregation.
func (e *EventHandler) OnViewQuorumReached(event model.ViewQuorumReached) error {
	defer e.notifier.OnEventProcessed()

	switch r := event.Result.(type) {
	case model.FormedQC:
		highQC := model.NewHighQC(r.QC, e.vertexStore.HighQC().HighestCommitted, nil)
		synced, err := e.sync.SyncToQC(highQC, event.LastAuthor)
		if err != nil {
			return fmt.Errorf("could not insert formed qc for view %d: %w", r.QC.View(), err)
		}
		if !synced {
			// the pacemaker advances once the certified vertex arrived
			return nil
		}
	case model.FormedTC:
		err := e.vertexStore.InsertTC(r.TC)
		if err != nil {
			return fmt.Errorf("could not insert formed tc for view %d: %w", r.TC.View, err)
		}
	default:
		return fmt.Errorf("unknown view voting result %T", event.Result)
	}
	return e.processHighQC()
}

// OnLocalTimeout marks the current view as timed out and lets the pacemaker
// broadcast a timeout vote.
func (e *EventHandler) OnLocalTimeout(timeout model.LocalTimeout) error {
	defer e.notifier.OnEventProcessed()

	if timeout.View == e.curView() {
		e.isViewTimedOut = true
	}
	_, err := e.pacemaker.OnLocalTimeout(timeout)
	if err != nil {
		return fmt.Errorf("could not process local timeout for view %d: %w", timeout.View, err)
	}
	return nil
}

// OnBFTInsertUpdate processes a vertex that got inserted into the vertex
// store, either proposed or synced.
func (e *EventHandler) OnBFTInsertUpdate(update model.BFTInsertUpdate) error {
	defer e.notifier.OnEventProcessed()

	inserted := update.Inserted
	if inserted.View() >= e.curView() {
		e.latestInsert = inserted
		err := e.tryVote()
		if err != nil {
			return err
		}
	}

	err := e.processHighQC()
	if err != nil {
		return err
	}

	waiting, ok := e.syncWaiting[inserted.VertexID]
	if !ok {
		return nil
	}
	delete(e.syncWaiting, inserted.VertexID)
	return e.replay(waiting)
}

// OnViewUpdate processes the replica entering a new view.
func (e *EventHandler) OnViewUpdate(update model.ViewUpdate) error {
	defer e.notifier.OnEventProcessed()

	if update.CurrentView != e.pacemaker.CurView() || update.CurrentView <= e.curView() {
		// superseded by an update still in the queue
		return nil
	}

	e.hasReachedQuorum = false
	e.isViewTimedOut = false
	e.latestViewUpdate = update
	e.voteAggregator.PruneBelow(update.CurrentView)
	e.sync.OnViewUpdate(update)
	e.pruneSyncWaiting()

	err := e.pacemaker.OnViewUpdate(update)
	if err != nil {
		return fmt.Errorf("could not process view update for view %d: %w", update.CurrentView, err)
	}
	err = e.tryVote()
	if err != nil {
		return err
	}
	return e.replayFuture()
}

// pruneSyncWaiting drops parked events for views the replica already left.
func (e *EventHandler) pruneSyncWaiting() {
	for vertexID, events := range e.syncWaiting {
		kept := events[:0]
		for _, event := range events {
			if event.view() >= e.curView() {
				kept = append(kept, event)
			}
		}
		e.buffered -= len(events) - len(kept)
		if len(kept) == 0 {
			delete(e.syncWaiting, vertexID)
			continue
		}
		e.syncWaiting[vertexID] = kept
	}
}

// replayFuture processes the buffered events of every view up to the
// current one, in view order.
func (e *EventHandler) replayFuture() error {
	views := make([]uint64, 0, len(e.futureEvents))
	for view := range e.futureEvents {
		if view <= e.curView() {
			views = append(views, view)
		}
	}
	slices.Sort(views)
	for _, view := range views {
		events := e.futureEvents[view]
		delete(e.futureEvents, view)
		err := e.replay(events)
		if err != nil {
			return err
		}
	}
	return nil
}

// tryVote votes for the latest inserted vertex if it is for the current
// view, the replica did not vote in this view yet and the view did not
// time out.
func (e *EventHandler) tryVote() error {
	prepared := e.latestInsert
	if prepared == nil {
		return nil
	}
	view := e.curView()
	log := e.log.With().
		Uint64("cur_view", view).
		Uint64("vertex_view", prepared.View()).
		Hex("vertex_id", prepared.VertexID[:]).
		Logger()

	if prepared.View() != view {
		return nil
	}
	if _, voted := e.safetyRules.GetLastVote(view); voted {
		log.Debug().Msg("already voted in this view")
		return nil
	}
	if e.isViewTimedOut {
		log.Debug().Msg("not voting, view timed out")
		return nil
	}

	vote, err := e.safetyRules.VoteFor(prepared, e.vertexStore.HighQC())
	if model.IsNoVoteError(err) {
		log.Info().Err(err).Msg("not voting")
		e.notifier.OnNoVote(model.NoVote{Vertex: prepared.Vertex, Reason: err.Error()})
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not vote for vertex %v: %w", prepared.VertexID, err)
	}

	nextLeader := e.latestViewUpdate.NextLeader
	log.Debug().Hex("next_leader", nextLeader[:]).Msg("sending vote")
	e.notifier.OnVoting(vote)
	e.communicator.SendVote(vote, nextLeader)
	return nil
}

// OnGetVerticesRequest serves vertices to a syncing peer. If the vertices
// are not available, the peer learns this replica's HighQC instead.
func (e *EventHandler) OnGetVerticesRequest(request model.GetVerticesRequest) error {
	defer e.notifier.OnEventProcessed()

	if !e.validators.Contains(request.Sender) {
		e.notifier.OnInvalidMessage(fmt.Errorf("vertex request from non-member %v", request.Sender))
		return nil
	}
	count := request.Count
	if count == 0 || count > e.cfg.maxVerticesPerResponse {
		e.notifier.OnInvalidMessage(fmt.Errorf("vertex request from %v for %d vertices", request.Sender, count))
		return nil
	}

	vertices, ok := e.vertexStore.GetVertices(request.VertexID, int(count))
	if !ok {
		e.log.Debug().
			Hex("vertex_id", request.VertexID[:]).
			Hex("requester_id", request.Sender[:]).
			Msg("vertices not available")
		e.communicator.SendGetVerticesErrorResponse(model.GetVerticesErrorResponse{
			Sender:  e.self,
			Epoch:   e.validators.Epoch(),
			HighQC:  e.vertexStore.HighQC(),
			Request: request,
		}, request.Sender)
		return nil
	}
	e.communicator.SendGetVerticesResponse(model.GetVerticesResponse{
		Sender:   e.self,
		Epoch:    e.validators.Epoch(),
		VertexID: request.VertexID,
		Vertices: vertices,
	}, request.Sender)
	return nil
}

// OnGetVerticesResponse hands fetched vertices to BFTSync.
func (e *EventHandler) OnGetVerticesResponse(response model.GetVerticesResponse) error {
	defer e.notifier.OnEventProcessed()
	return e.sync.OnGetVerticesResponse(response)
}

// OnGetVerticesErrorResponse hands a failed vertex request to BFTSync.
func (e *EventHandler) OnGetVerticesErrorResponse(response model.GetVerticesErrorResponse) error {
	defer e.notifier.OnEventProcessed()

	err := e.validator.ValidateHighQC(response.HighQC)
	if validator.IsInvalidMessage(err) {
		e.notifier.OnInvalidMessage(err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not validate high qc of error response: %w", err)
	}
	return e.sync.OnGetVerticesErrorResponse(response)
}

func (e *EventHandler) OnVertexRequestTimeout(timeout model.VertexRequestTimeout) error {
	defer e.notifier.OnEventProcessed()
	return e.sync.OnVertexRequestTimeout(timeout)
}
