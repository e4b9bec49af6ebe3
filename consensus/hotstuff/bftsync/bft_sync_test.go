package bftsync

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/time/rate"

	"github.com/quorumchain/bft/consensus/hotstuff/committees"
	"github.com/quorumchain/bft/consensus/hotstuff/helper"
	"github.com/quorumchain/bft/consensus/hotstuff/mocks"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/consensus/hotstuff/notifications"
	"github.com/quorumchain/bft/consensus/hotstuff/vertexstore"
	"github.com/quorumchain/bft/model/chain"
	"github.com/quorumchain/bft/utils/unittest"
)

type noInserts struct{}

func (noInserts) OnBFTInsertUpdate(model.BFTInsertUpdate) {}

func TestBFTSync(t *testing.T) {
	suite.Run(t, new(SyncSuite))
}

type SyncSuite struct {
	suite.Suite

	validators   *committees.ValidatorSet
	ids          []chain.Identifier
	genesisQC    *model.QuorumCertificate
	store        *vertexstore.VertexStore
	communicator *mocks.Communicator
	events       *mocks.SyncEvents
	cfg          Config
	sync         *BFTSync

	// v1 <- v2 <- v3, unknown to the store
	v1, v2, v3    *model.Vertex
	qc1, qc2, qc3 *model.QuorumCertificate
}

func (s *SyncSuite) SetupTest() {
	s.validators, s.ids = helper.MakeValidatorSet(s.T(), 1, 4)
	_, s.genesisQC = helper.Genesis(1)
	store, err := vertexstore.New(zerolog.Nop(), helper.NewLedger(), helper.NewPersister(), noInserts{},
		notifications.NewNoopConsumer(), model.GenesisVertexStoreState(s.genesisQC.Proposed.Ledger))
	s.Require().NoError(err)
	s.store = store
	s.communicator = mocks.NewCommunicator(s.T())
	s.events = mocks.NewSyncEvents(s.T())

	s.v1 = helper.MakeVertex(s.genesisQC, 1)
	s.qc1 = helper.MakeQC(s.v1, s.ids[2], s.ids[3])
	s.v2 = helper.MakeVertex(s.qc1, 2)
	s.qc2 = helper.MakeQC(s.v2, s.ids[2], s.ids[3])
	s.v3 = helper.MakeVertex(s.qc2, 3)
	s.qc3 = helper.MakeQC(s.v3, s.ids[2], s.ids[3])

	s.cfg = DefaultConfig()
	// long enough to never fire during a test
	s.cfg.RequestTimeout = time.Hour
	s.cfg.MaxAttempts = 3
	s.cfg.RequestRate = rate.Inf
	s.sync = s.newSync(s.cfg)
}

func (s *SyncSuite) TearDownTest() {
	s.sync.Stop()
}

func (s *SyncSuite) newSync(cfg Config) *BFTSync {
	sync, err := New(zerolog.Nop(), s.ids[0], s.validators, s.store, s.communicator,
		notifications.NewNoopConsumer(), s.events, cfg)
	s.Require().NoError(err)
	return sync
}

func (s *SyncSuite) highQC(qc *model.QuorumCertificate) model.HighQC {
	return model.NewHighQC(qc, s.genesisQC, nil)
}

func (s *SyncSuite) expectRequest(vertexID chain.Identifier, target chain.Identifier) {
	s.communicator.On("SendGetVerticesRequest", mock.MatchedBy(func(req model.GetVerticesRequest) bool {
		return req.VertexID == vertexID && req.Count == 1 && req.Sender == s.ids[0] && req.Epoch == 1
	}), target).Once()
}

// expectRequestsAmong expects n requests for vertexID, each to one of
// targets, and records the targets actually used.
func (s *SyncSuite) expectRequestsAmong(vertexID chain.Identifier, n int, targets ...chain.Identifier) *[]chain.Identifier {
	var used []chain.Identifier
	s.communicator.On("SendGetVerticesRequest", mock.MatchedBy(func(req model.GetVerticesRequest) bool {
		return req.VertexID == vertexID
	}), mock.MatchedBy(func(target chain.Identifier) bool {
		for _, t := range targets {
			if t == target {
				return true
			}
		}
		return false
	})).Run(func(args mock.Arguments) {
		used = append(used, args.Get(1).(chain.Identifier))
	}).Times(n)
	return &used
}

func (s *SyncSuite) respond(vertices ...*model.Vertex) {
	err := s.sync.OnGetVerticesResponse(model.GetVerticesResponse{
		Sender:   s.ids[1],
		Epoch:    1,
		VertexID: vertices[0].ID(),
		Vertices: vertices,
	})
	s.Require().NoError(err)
}

// TestKnownVertex checks that a QC for a known vertex is inserted right away.
func (s *SyncSuite) TestKnownVertex() {
	_, err := s.store.InsertVertex(s.v1)
	s.Require().NoError(err)

	synced, err := s.sync.SyncToQC(s.highQC(s.qc1), s.ids[1])
	s.Require().NoError(err)
	s.Assert().True(synced)
	s.Assert().Equal(s.qc1.ID(), s.store.HighQC().Highest.ID())
	s.Assert().Zero(s.sync.Syncing())
}

// TestPrunedQC checks that a QC at or below the root needs no sync.
func (s *SyncSuite) TestPrunedQC() {
	synced, err := s.sync.SyncToQC(s.highQC(s.genesisQC), s.ids[1])
	s.Require().NoError(err)
	s.Assert().True(synced)
}

// TestSyncSingleVertex fetches a vertex whose parent is the root.
func (s *SyncSuite) TestSyncSingleVertex() {
	s.expectRequest(s.v1.ID(), s.ids[1])
	synced, err := s.sync.SyncToQC(s.highQC(s.qc1), s.ids[1])
	s.Require().NoError(err)
	s.Assert().False(synced)
	s.Assert().Equal(1, s.sync.Syncing())

	// a second QC for the same vertex does not trigger another request
	synced, err = s.sync.SyncToQC(s.highQC(s.qc1), s.ids[2])
	s.Require().NoError(err)
	s.Assert().False(synced)

	s.respond(s.v1)
	s.Assert().True(s.store.ContainsVertex(s.v1.ID()))
	s.Assert().Equal(s.qc1.ID(), s.store.HighQC().Highest.ID())
	s.Assert().Zero(s.sync.Syncing())
}

// TestSyncChain walks back two vertices before the chain connects to the root.
func (s *SyncSuite) TestSyncChain() {
	s.expectRequest(s.v3.ID(), s.ids[1])
	_, err := s.sync.SyncToQC(s.highQC(s.qc3), s.ids[1])
	s.Require().NoError(err)

	s.expectRequest(s.v2.ID(), s.ids[1])
	s.respond(s.v3)
	s.Assert().False(s.store.ContainsVertex(s.v3.ID()))

	// the peer may answer with more than one vertex
	s.respond(s.v2, s.v1)
	for _, v := range []*model.Vertex{s.v1, s.v2, s.v3} {
		s.Assert().True(s.store.ContainsVertex(v.ID()), "vertex at view %d missing", v.View)
	}
	s.Assert().Equal(s.qc3.ID(), s.store.HighQC().Highest.ID())
	s.Assert().Zero(s.sync.Syncing())
}

// TestMalformedResponse checks that responses not answering the request are dropped.
func (s *SyncSuite) TestMalformedResponse() {
	s.expectRequest(s.v2.ID(), s.ids[1])
	_, err := s.sync.SyncToQC(s.highQC(s.qc2), s.ids[1])
	s.Require().NoError(err)

	s.Run("wrong first vertex", func() {
		err := s.sync.OnGetVerticesResponse(model.GetVerticesResponse{
			Sender:   s.ids[1],
			VertexID: s.v2.ID(),
			Vertices: []*model.Vertex{s.v1},
		})
		s.Require().NoError(err)
		s.Assert().False(s.store.ContainsVertex(s.v1.ID()))
	})
	s.Run("not a chain", func() {
		err := s.sync.OnGetVerticesResponse(model.GetVerticesResponse{
			Sender:   s.ids[1],
			VertexID: s.v2.ID(),
			Vertices: []*model.Vertex{s.v2, s.v3},
		})
		s.Require().NoError(err)
		s.Assert().False(s.store.ContainsVertex(s.v2.ID()))
	})
	s.Run("unsolicited", func() {
		s.respond(s.v1)
		s.Assert().False(s.store.ContainsVertex(s.v1.ID()))
	})

	// the request is still outstanding
	s.respond(s.v2, s.v1)
	s.Assert().True(s.store.ContainsVertex(s.v2.ID()))
}

// TestRequestTimeout checks that unanswered requests rotate through the
// peers and are abandoned after the configured number of attempts.
func (s *SyncSuite) TestRequestTimeout() {
	qc := helper.MakeQC(s.v1, s.ids[2], s.ids[3])
	s.expectRequest(s.v1.ID(), s.ids[1])
	_, err := s.sync.SyncToQC(s.highQC(qc), s.ids[1])
	s.Require().NoError(err)

	// the signers follow the author in random order
	timeout := model.VertexRequestTimeout{Epoch: 1, VertexID: s.v1.ID(), Attempt: 0}
	used := s.expectRequestsAmong(s.v1.ID(), 2, s.ids[2], s.ids[3])
	s.Require().NoError(s.sync.OnVertexRequestTimeout(timeout))

	// the timeout of the superseded attempt is ignored
	s.Require().NoError(s.sync.OnVertexRequestTimeout(timeout))
	s.Require().Len(*used, 1)

	timeout.Attempt = 1
	s.Require().NoError(s.sync.OnVertexRequestTimeout(timeout))
	s.Require().ElementsMatch([]chain.Identifier{s.ids[2], s.ids[3]}, *used)

	timeout.Attempt = 2
	s.Require().NoError(s.sync.OnVertexRequestTimeout(timeout))
	s.Assert().Zero(s.sync.Syncing())

	// late responses are ignored
	s.respond(s.v1)
	s.Assert().False(s.store.ContainsVertex(s.v1.ID()))
}

// TestErrorResponse checks that an error response moves on to the next
// peer and follows a higher QC known by the responder.
func (s *SyncSuite) TestErrorResponse() {
	s.expectRequest(s.v1.ID(), s.ids[1])
	request := model.GetVerticesRequest{Sender: s.ids[0], Epoch: 1, VertexID: s.v1.ID(), Count: 1}
	_, err := s.sync.SyncToQC(s.highQC(s.qc1), s.ids[1])
	s.Require().NoError(err)

	s.expectRequestsAmong(s.v1.ID(), 1, s.ids[2], s.ids[3])
	s.expectRequest(s.v3.ID(), s.ids[1])
	err = s.sync.OnGetVerticesErrorResponse(model.GetVerticesErrorResponse{
		Sender:  s.ids[1],
		Epoch:   1,
		HighQC:  s.highQC(s.qc3),
		Request: request,
	})
	s.Require().NoError(err)
	s.Assert().Equal(2, s.sync.Syncing())
}

// TestRefusedByHonestMajority checks that a vertex refused by more than a
// third of the weight is no longer requested.
func (s *SyncSuite) TestRefusedByHonestMajority() {
	s.expectRequest(s.v1.ID(), s.ids[1])
	request := model.GetVerticesRequest{Sender: s.ids[0], Epoch: 1, VertexID: s.v1.ID(), Count: 1}
	_, err := s.sync.SyncToQC(s.highQC(s.qc1), s.ids[1])
	s.Require().NoError(err)

	refuse := func(sender chain.Identifier) {
		err := s.sync.OnGetVerticesErrorResponse(model.GetVerticesErrorResponse{
			Sender:  sender,
			Epoch:   1,
			HighQC:  s.highQC(s.genesisQC),
			Request: request,
		})
		s.Require().NoError(err)
	}

	// one refusal of four equal weights moves on to the next peer
	s.expectRequestsAmong(s.v1.ID(), 1, s.ids[2], s.ids[3])
	refuse(s.ids[1])
	// the same peer refusing again does not count twice
	s.expectRequestsAmong(s.v1.ID(), 1, s.ids[2], s.ids[3])
	refuse(s.ids[1])
	s.Assert().Equal(1, s.sync.Syncing())

	refuse(s.ids[2])
	s.Assert().Zero(s.sync.Syncing())
	s.communicator.AssertNumberOfCalls(s.T(), "SendGetVerticesRequest", 3)

	// the vertex can be synced again later
	s.expectRequest(s.v1.ID(), s.ids[1])
	_, err = s.sync.SyncToQC(s.highQC(s.qc1), s.ids[1])
	s.Require().NoError(err)
	s.Assert().Equal(1, s.sync.Syncing())
}

// TestViewUpdate checks that syncs towards QCs older than the new view are abandoned.
func (s *SyncSuite) TestViewUpdate() {
	s.expectRequest(s.v1.ID(), s.ids[1])
	_, err := s.sync.SyncToQC(s.highQC(s.qc1), s.ids[1])
	s.Require().NoError(err)

	s.sync.OnViewUpdate(model.ViewUpdate{CurrentView: 3, HighQC: s.highQC(s.qc2)})
	s.Assert().Zero(s.sync.Syncing())

	s.respond(s.v1)
	s.Assert().False(s.store.ContainsVertex(s.v1.ID()))
}

// TestOutstandingCap checks that a sync whose request is dropped to make
// room for another one is abandoned, so it can be started again.
func (s *SyncSuite) TestOutstandingCap() {
	cfg := s.cfg
	cfg.MaxOutstanding = 1
	s.sync = s.newSync(cfg)

	s.expectRequest(s.v3.ID(), s.ids[1])
	_, err := s.sync.SyncToQC(s.highQC(s.qc3), s.ids[1])
	s.Require().NoError(err)

	s.expectRequest(s.v2.ID(), s.ids[1])
	_, err = s.sync.SyncToQC(s.highQC(s.qc2), s.ids[1])
	s.Require().NoError(err)
	s.Assert().Equal(1, s.sync.Syncing())

	// the dropped sync is requested again
	s.expectRequest(s.v3.ID(), s.ids[1])
	synced, err := s.sync.SyncToQC(s.highQC(s.qc3), s.ids[1])
	s.Require().NoError(err)
	s.Assert().False(synced)
	s.Assert().Equal(1, s.sync.Syncing())

	s.expectRequest(s.v2.ID(), s.ids[1])
	s.respond(s.v3)
	s.respond(s.v2, s.v1)
	for _, v := range []*model.Vertex{s.v1, s.v2, s.v3} {
		s.Assert().True(s.store.ContainsVertex(v.ID()), "vertex at view %d missing", v.View)
	}
	s.Assert().Zero(s.sync.Syncing())
	s.communicator.AssertNumberOfCalls(s.T(), "SendGetVerticesRequest", 4)
}

// TestFallbackPeers checks that a QC signed only by this replica is synced
// from the other validators.
func (s *SyncSuite) TestFallbackPeers() {
	qc := helper.MakeQC(s.v1, s.ids[0])
	s.communicator.On("SendGetVerticesRequest", mock.Anything, mock.MatchedBy(func(target chain.Identifier) bool {
		return target != s.ids[0]
	})).Once()
	synced, err := s.sync.SyncToQC(s.highQC(qc), s.ids[0])
	s.Require().NoError(err)
	s.Assert().False(synced)
	s.Assert().Equal(1, s.sync.Syncing())
}

// TestRateLimited checks that a throttled request is not sent but still
// retried once its timeout fires.
func (s *SyncSuite) TestRateLimited() {
	cfg := s.cfg
	cfg.RequestRate = 0
	cfg.RequestBurst = 0
	cfg.RequestTimeout = 10 * time.Millisecond
	s.sync = s.newSync(cfg)

	fired := make(chan struct{})
	s.events.On("OnVertexRequestTimeout", model.VertexRequestTimeout{Epoch: 1, VertexID: s.v1.ID(), Attempt: 0}).
		Run(func(mock.Arguments) { close(fired) }).
		Once()

	_, err := s.sync.SyncToQC(s.highQC(s.qc1), s.ids[1])
	s.Require().NoError(err)
	unittest.RequireCloseBefore(s.T(), fired, time.Second, "request timeout did not fire")
	s.communicator.AssertNotCalled(s.T(), "SendGetVerticesRequest", mock.Anything, mock.Anything)
}

func TestNew_InvalidConfig(t *testing.T) {
	validators, ids := helper.MakeValidatorSet(t, 1, 4)
	cfg := DefaultConfig()
	cfg.MaxAttempts = 0
	_, err := New(zerolog.Nop(), ids[0], validators, nil, nil, nil, nil, cfg)
	require.True(t, model.IsConfigurationError(err), "unexpected error: %v", err)
}
