package eventhandler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/quorumchain/bft/consensus/hotstuff/committees"
	"github.com/quorumchain/bft/consensus/hotstuff/helper"
	"github.com/quorumchain/bft/consensus/hotstuff/mocks"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/consensus/hotstuff/notifications"
	"github.com/quorumchain/bft/consensus/hotstuff/pendingvotes"
	"github.com/quorumchain/bft/consensus/hotstuff/vertexstore"
	"github.com/quorumchain/bft/model/chain"
)

type insertRecorder struct {
	updates []model.BFTInsertUpdate
}

func (r *insertRecorder) OnBFTInsertUpdate(update model.BFTInsertUpdate) {
	r.updates = append(r.updates, update)
}

type recordingConsumer struct {
	*notifications.NoopConsumer
	noVotes []model.NoVote
	invalid []error
}

func (c *recordingConsumer) OnNoVote(event model.NoVote) {
	c.noVotes = append(c.noVotes, event)
}

func (c *recordingConsumer) OnInvalidMessage(err error) {
	c.invalid = append(c.invalid, err)
}

func TestEventHandler(t *testing.T) {
	suite.Run(t, new(EventHandlerSuite))
}

type EventHandlerSuite struct {
	suite.Suite

	validators *committees.ValidatorSet
	ids        []chain.Identifier
	self       chain.Identifier
	genesisQC  *model.QuorumCertificate
	store      *vertexstore.VertexStore
	inserts    *insertRecorder
	delivered  int

	pacemaker    *mocks.Pacemaker
	pmView       uint64
	safetyRules  *mocks.SafetyRules
	sync         *mocks.BFTSync
	communicator *mocks.Communicator
	quorumEvents *mocks.QuorumEvents
	validator    *mocks.Validator
	invalidErr   error
	notifier     *recordingConsumer

	handler *EventHandler
}

func (s *EventHandlerSuite) SetupTest() {
	s.validators, s.ids = helper.MakeValidatorSet(s.T(), 1, 4)
	// the replica collects the votes of view 1
	s.self = s.leader(2)
	_, s.genesisQC = helper.Genesis(1)
	s.inserts = &insertRecorder{}
	s.delivered = 0
	s.notifier = &recordingConsumer{NoopConsumer: notifications.NewNoopConsumer()}
	store, err := vertexstore.New(zerolog.Nop(), helper.NewLedger(), helper.NewPersister(), s.inserts,
		s.notifier, model.GenesisVertexStoreState(s.genesisQC.Proposed.Ledger))
	s.Require().NoError(err)
	s.store = store

	s.pmView = 0
	s.pacemaker = mocks.NewPacemaker(s.T())
	s.pacemaker.On("CurView").Return(func() uint64 { return s.pmView }).Maybe()
	s.pacemaker.On("ProcessQC", mock.Anything).Return(false, nil).Maybe()
	s.pacemaker.On("OnViewUpdate", mock.Anything).Return(nil).Maybe()

	// the sync stub only knows what the vertex store knows
	s.sync = mocks.NewBFTSync(s.T())
	s.sync.On("SyncToQC", mock.Anything, mock.Anything).Return(
		func(highQC model.HighQC, _ chain.Identifier) bool {
			if !s.store.ContainsVertex(highQC.Highest.VertexID()) {
				return false
			}
			_, err := s.store.InsertQC(highQC.Highest)
			s.Require().NoError(err)
			return true
		},
		func(model.HighQC, chain.Identifier) error { return nil },
	).Maybe()
	s.sync.On("OnViewUpdate", mock.Anything).Return().Maybe()

	s.invalidErr = nil
	s.validator = mocks.NewValidator(s.T())
	s.validator.On("ValidateProposal", mock.Anything).Return(func(*model.Proposal) error { return s.invalidErr }).Maybe()
	s.validator.On("ValidateVote", mock.Anything).Return(func(*model.Vote) error { return s.invalidErr }).Maybe()
	s.validator.On("ValidateHighQC", mock.Anything).Return(func(model.HighQC) error { return s.invalidErr }).Maybe()

	s.safetyRules = mocks.NewSafetyRules(s.T())
	s.communicator = mocks.NewCommunicator(s.T())
	s.quorumEvents = mocks.NewQuorumEvents(s.T())
	s.handler = s.newHandler(s.self)
}

func (s *EventHandlerSuite) newHandler(self chain.Identifier, opts ...Option) *EventHandler {
	return New(zerolog.Nop(), self, s.validators, s.validator, s.pacemaker, s.store, s.safetyRules,
		pendingvotes.New(), s.sync, s.communicator, s.notifier, s.quorumEvents, opts...)
}

func (s *EventHandlerSuite) leader(view uint64) chain.Identifier {
	return s.validators.LeaderForView(view)
}

// viewUpdate moves the pacemaker to view and delivers the resulting update.
func (s *EventHandlerSuite) viewUpdate(view uint64) {
	s.pmView = view
	err := s.handler.OnViewUpdate(model.ViewUpdate{
		CurrentView: view,
		HighQC:      s.store.HighQC(),
		Leader:      s.leader(view),
		NextLeader:  s.leader(view + 1),
	})
	s.Require().NoError(err)
}

// deliverInserts delivers every insert the vertex store emitted so far,
// including the ones emitted while delivering.
func (s *EventHandlerSuite) deliverInserts() {
	for s.delivered < len(s.inserts.updates) {
		update := s.inserts.updates[s.delivered]
		s.delivered++
		s.Require().NoError(s.handler.OnBFTInsertUpdate(update))
	}
}

func (s *EventHandlerSuite) proposal(qc *model.QuorumCertificate, view uint64) *model.Proposal {
	vertex := helper.MakeVertex(qc, view, helper.WithProposer(s.leader(view)))
	return &model.Proposal{Vertex: vertex, HighQC: model.NewHighQC(qc, s.genesisQC, nil)}
}

func (s *EventHandlerSuite) insert(vertex *model.Vertex) {
	_, err := s.store.InsertVertex(vertex)
	s.Require().NoError(err)
}

func preparedVertexOf(vertex *model.Vertex) interface{} {
	return mock.MatchedBy(func(prepared *model.PreparedVertex) bool {
		return prepared.VertexID == vertex.ID()
	})
}

func (s *EventHandlerSuite) expectVote(vertex *model.Vertex) *model.Vote {
	vote := helper.MakeVote(s.self, vertex)
	s.safetyRules.On("GetLastVote", vertex.View).Return(nil, false).Once()
	s.safetyRules.On("VoteFor", preparedVertexOf(vertex), mock.Anything).Return(vote, nil).Once()
	s.communicator.On("SendVote", vote, s.leader(vertex.View+1)).Once()
	return vote
}

func (s *EventHandlerSuite) TestStart() {
	ctx := context.Background()
	s.pacemaker.On("Start", ctx).Return(nil).Once()
	s.Require().NoError(s.handler.Start(ctx))
}

// TestVote_ViewUpdateFirst votes once the proposal of the current view got inserted.
func (s *EventHandlerSuite) TestVote_ViewUpdateFirst() {
	s.viewUpdate(1)
	p1 := s.proposal(s.genesisQC, 1)
	s.Require().NoError(s.handler.OnProposal(p1))
	s.Require().True(s.store.ContainsVertex(p1.Vertex.ID()))

	s.expectVote(p1.Vertex)
	s.deliverInserts()
}

// TestVote_InsertFirst votes once the view update for an inserted vertex arrives.
func (s *EventHandlerSuite) TestVote_InsertFirst() {
	v1 := helper.MakeVertex(s.genesisQC, 1)
	s.insert(v1)
	s.deliverInserts()

	s.expectVote(v1)
	s.viewUpdate(1)
}

// TestNoVoteAfterLocalTimeout checks that a replica does not vote in a view it timed out.
func (s *EventHandlerSuite) TestNoVoteAfterLocalTimeout() {
	s.viewUpdate(1)
	timeout := model.LocalTimeout{Epoch: 1, View: 1}
	s.pacemaker.On("OnLocalTimeout", timeout).Return(true, nil).Once()
	s.Require().NoError(s.handler.OnLocalTimeout(timeout))

	s.safetyRules.On("GetLastVote", uint64(1)).Return(nil, false).Once()
	s.insert(helper.MakeVertex(s.genesisQC, 1))
	s.deliverInserts()
	s.safetyRules.AssertNotCalled(s.T(), "VoteFor", mock.Anything, mock.Anything)
}

// TestAlreadyVoted checks that a replica does not ask for a second vote in a view.
func (s *EventHandlerSuite) TestAlreadyVoted() {
	s.viewUpdate(1)
	v1 := helper.MakeVertex(s.genesisQC, 1)
	s.safetyRules.On("GetLastVote", uint64(1)).Return(helper.MakeVote(s.self, v1), true).Once()
	s.insert(v1)
	s.deliverInserts()
	s.safetyRules.AssertNotCalled(s.T(), "VoteFor", mock.Anything, mock.Anything)
}

// TestNoVote checks that a refusal of safety rules is reported, not sent.
func (s *EventHandlerSuite) TestNoVote() {
	s.viewUpdate(1)
	v1 := helper.MakeVertex(s.genesisQC, 1)
	s.safetyRules.On("GetLastVote", uint64(1)).Return(nil, false).Once()
	s.safetyRules.On("VoteFor", preparedVertexOf(v1), mock.Anything).Return(nil, model.NewNoVoteErrorf("locked")).Once()
	s.insert(v1)
	s.deliverInserts()
	s.Require().Len(s.notifier.noVotes, 1)
	s.Assert().Equal(v1.ID(), s.notifier.noVotes[0].Vertex.ID())
}

// TestVoteFailure checks that a failure of safety rules is fatal.
func (s *EventHandlerSuite) TestVoteFailure() {
	s.viewUpdate(1)
	v1 := helper.MakeVertex(s.genesisQC, 1)
	s.safetyRules.On("GetLastVote", uint64(1)).Return(nil, false).Once()
	s.safetyRules.On("VoteFor", mock.Anything, mock.Anything).Return(nil, errors.New("disk failure")).Once()
	s.insert(v1)
	err := s.handler.OnBFTInsertUpdate(s.inserts.updates[0])
	s.Require().Error(err)
	s.Assert().False(model.IsNoVoteError(err))
}

func (s *EventHandlerSuite) TestStaleProposal() {
	s.viewUpdate(2)
	p1 := s.proposal(s.genesisQC, 1)
	s.Require().NoError(s.handler.OnProposal(p1))
	s.Assert().False(s.store.ContainsVertex(p1.Vertex.ID()))
}

func (s *EventHandlerSuite) TestInvalidProposal() {
	s.viewUpdate(1)
	p1 := s.proposal(s.genesisQC, 1)
	s.invalidErr = model.NewInvalidProposalErrorf(p1, "bad signature")
	s.Require().NoError(s.handler.OnProposal(p1))
	s.Assert().False(s.store.ContainsVertex(p1.Vertex.ID()))
	s.Assert().Len(s.notifier.invalid, 1)
}

func (s *EventHandlerSuite) TestValidationFailure() {
	s.viewUpdate(1)
	s.invalidErr = errors.New("verifier broken")
	err := s.handler.OnProposal(s.proposal(s.genesisQC, 1))
	s.Require().ErrorIs(err, s.invalidErr)
}

// TestFutureProposal checks that a proposal for the next view is inserted
// once the replica enters that view.
func (s *EventHandlerSuite) TestFutureProposal() {
	s.viewUpdate(1)
	v1 := helper.MakeVertex(s.genesisQC, 1)
	s.insert(v1)
	p2 := s.proposal(helper.MakeQC(v1), 2)

	s.Require().NoError(s.handler.OnProposal(p2))
	s.Assert().False(s.store.ContainsVertex(p2.Vertex.ID()))

	s.viewUpdate(2)
	s.Assert().True(s.store.ContainsVertex(p2.Vertex.ID()))
	s.Assert().Zero(s.handler.buffered)
}

// TestProposalWaitsForSync checks that a proposal extending an unknown
// vertex is processed once the vertex got synced.
func (s *EventHandlerSuite) TestProposalWaitsForSync() {
	s.viewUpdate(2)
	v1 := helper.MakeVertex(s.genesisQC, 1)
	p2 := s.proposal(helper.MakeQC(v1), 2)

	s.Require().NoError(s.handler.OnProposal(p2))
	s.Assert().False(s.store.ContainsVertex(p2.Vertex.ID()))
	s.Assert().Equal(1, s.handler.buffered)

	// sync delivers the parent, the proposal is replayed and voted for
	s.insert(v1)
	s.expectVote(p2.Vertex)
	s.deliverInserts()
	s.Assert().True(s.store.ContainsVertex(p2.Vertex.ID()))
	s.Assert().Zero(s.handler.buffered)
}

// TestBufferLimit checks that parked events are capped.
func (s *EventHandlerSuite) TestBufferLimit() {
	s.handler = s.newHandler(s.self, WithMaxBufferedEvents(1))
	s.viewUpdate(1)
	s.Require().NoError(s.handler.OnProposal(s.proposal(s.genesisQC, 3)))
	s.Require().NoError(s.handler.OnProposal(s.proposal(s.genesisQC, 4)))
	s.Assert().Equal(1, s.handler.buffered)
	s.Assert().Len(s.handler.futureEvents, 1)
}

// TestVoteAggregation checks that the next leader forms a QC from a quorum
// of votes and ignores votes after that.
func (s *EventHandlerSuite) TestVoteAggregation() {
	s.viewUpdate(1)
	v1 := helper.MakeVertex(s.genesisQC, 1)
	highQC := model.NewHighQC(s.genesisQC, s.genesisQC, nil)

	s.quorumEvents.On("OnViewQuorumReached", mock.MatchedBy(func(event model.ViewQuorumReached) bool {
		formed, ok := event.Result.(model.FormedQC)
		return ok && formed.QC.VertexID() == v1.ID() && event.LastAuthor == s.ids[2]
	})).Once()

	for _, id := range s.ids {
		vote := helper.MakeVote(id, v1)
		vote.HighQC = highQC
		s.Require().NoError(s.handler.OnVote(vote))
	}
}

// TestVoteAggregation_NotNextLeader checks that a replica only aggregates
// timeout votes when it does not lead the next view.
func (s *EventHandlerSuite) TestVoteAggregation_NotNextLeader() {
	var other chain.Identifier
	for _, id := range s.ids {
		if id != s.leader(2) {
			other = id
			break
		}
	}
	s.handler = s.newHandler(other)
	s.viewUpdate(1)
	v1 := helper.MakeVertex(s.genesisQC, 1)
	highQC := model.NewHighQC(s.genesisQC, s.genesisQC, nil)
	for _, id := range s.ids {
		vote := helper.MakeVote(id, v1)
		vote.HighQC = highQC
		s.Require().NoError(s.handler.OnVote(vote))
	}

	s.quorumEvents.On("OnViewQuorumReached", mock.MatchedBy(func(event model.ViewQuorumReached) bool {
		formed, ok := event.Result.(model.FormedTC)
		return ok && formed.TC.View == 1
	})).Once()
	for _, id := range s.ids[:3] {
		vote := helper.MakeTimeoutVote(id, 1, 1)
		vote.HighQC = highQC
		s.Require().NoError(s.handler.OnVote(vote))
	}
}

// TestFutureVote checks that votes for the next view are aggregated once
// the replica entered it.
func (s *EventHandlerSuite) TestFutureVote() {
	s.viewUpdate(1)
	highQC := model.NewHighQC(s.genesisQC, s.genesisQC, nil)
	for _, id := range s.ids[:3] {
		vote := helper.MakeTimeoutVote(id, 1, 2)
		vote.HighQC = highQC
		s.Require().NoError(s.handler.OnVote(vote))
	}
	s.Assert().Equal(3, s.handler.buffered)

	s.quorumEvents.On("OnViewQuorumReached", mock.MatchedBy(func(event model.ViewQuorumReached) bool {
		formed, ok := event.Result.(model.FormedTC)
		return ok && formed.TC.View == 2
	})).Once()
	s.viewUpdate(2)
	s.Assert().Zero(s.handler.buffered)
}

func (s *EventHandlerSuite) TestViewQuorumReached_QC() {
	s.viewUpdate(1)
	v1 := helper.MakeVertex(s.genesisQC, 1)
	s.insert(v1)
	qc1 := helper.MakeQC(v1)

	s.Require().NoError(s.handler.OnViewQuorumReached(model.ViewQuorumReached{Result: model.FormedQC{QC: qc1}, LastAuthor: s.ids[1]}))
	s.Assert().Equal(qc1.ID(), s.store.HighQC().Highest.ID())
	s.pacemaker.AssertCalled(s.T(), "ProcessQC", mock.MatchedBy(func(highQC model.HighQC) bool {
		return highQC.Highest.ID() == qc1.ID()
	}))
}

func (s *EventHandlerSuite) TestViewQuorumReached_TC() {
	s.viewUpdate(1)
	tc := helper.SignTC(1, 1, s.ids[0], s.ids[1], s.ids[2])

	s.Require().NoError(s.handler.OnViewQuorumReached(model.ViewQuorumReached{Result: model.FormedTC{TC: tc}, LastAuthor: s.ids[1]}))
	s.Assert().Equal(tc, s.store.HighQC().HighestTC)
	s.pacemaker.AssertCalled(s.T(), "ProcessQC", mock.MatchedBy(func(highQC model.HighQC) bool {
		return highQC.HighestTC == tc && highQC.HighestView() == 1
	}))
}

// TestStaleViewUpdate checks that updates superseded by a queued one are ignored.
func (s *EventHandlerSuite) TestStaleViewUpdate() {
	s.pmView = 3
	err := s.handler.OnViewUpdate(model.ViewUpdate{CurrentView: 2, HighQC: s.store.HighQC()})
	s.Require().NoError(err)
	s.Assert().Zero(s.handler.curView())
	s.pacemaker.AssertNotCalled(s.T(), "OnViewUpdate", mock.Anything)
}

func (s *EventHandlerSuite) TestGetVerticesRequest() {
	v1 := helper.MakeVertex(s.genesisQC, 1)
	s.insert(v1)
	requester := s.ids[1]
	if requester == s.self {
		requester = s.ids[2]
	}

	s.Run("served", func() {
		s.communicator.On("SendGetVerticesResponse", mock.MatchedBy(func(resp model.GetVerticesResponse) bool {
			return resp.VertexID == v1.ID() && len(resp.Vertices) == 2 && resp.Vertices[1].IsGenesis() && resp.Sender == s.self
		}), requester).Once()
		err := s.handler.OnGetVerticesRequest(model.GetVerticesRequest{Sender: requester, Epoch: 1, VertexID: v1.ID(), Count: 2})
		s.Require().NoError(err)
	})
	s.Run("not available", func() {
		request := model.GetVerticesRequest{Sender: requester, Epoch: 1, VertexID: v1.ID(), Count: 5}
		s.communicator.On("SendGetVerticesErrorResponse", mock.MatchedBy(func(resp model.GetVerticesErrorResponse) bool {
			return resp.Request == request && resp.HighQC.Highest.ID() == s.store.HighQC().Highest.ID()
		}), requester).Once()
		s.Require().NoError(s.handler.OnGetVerticesRequest(request))
	})
	s.Run("invalid", func() {
		err := s.handler.OnGetVerticesRequest(model.GetVerticesRequest{Sender: helper.MakeID(), Epoch: 1, VertexID: v1.ID(), Count: 1})
		s.Require().NoError(err)
		err = s.handler.OnGetVerticesRequest(model.GetVerticesRequest{Sender: requester, Epoch: 1, VertexID: v1.ID(), Count: 0})
		s.Require().NoError(err)
		s.Assert().Len(s.notifier.invalid, 2)
	})
}

func (s *EventHandlerSuite) TestSyncDelegation() {
	response := model.GetVerticesResponse{Sender: s.ids[1], Epoch: 1}
	s.sync.On("OnGetVerticesResponse", response).Return(nil).Once()
	s.Require().NoError(s.handler.OnGetVerticesResponse(response))

	errResponse := model.GetVerticesErrorResponse{Sender: s.ids[1], Epoch: 1, HighQC: s.store.HighQC()}
	s.sync.On("OnGetVerticesErrorResponse", errResponse).Return(nil).Once()
	s.Require().NoError(s.handler.OnGetVerticesErrorResponse(errResponse))

	timeout := model.VertexRequestTimeout{Epoch: 1, Attempt: 1}
	s.sync.On("OnVertexRequestTimeout", timeout).Return(nil).Once()
	s.Require().NoError(s.handler.OnVertexRequestTimeout(timeout))
}
