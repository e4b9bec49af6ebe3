package eventloop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/quorumchain/bft/consensus/hotstuff/helper"
	"github.com/quorumchain/bft/consensus/hotstuff/mocks"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/module/irrecoverable"
	"github.com/quorumchain/bft/utils/unittest"
)

const waitFor = time.Second

func TestEventLoop(t *testing.T) {
	suite.Run(t, new(EventLoopSuite))
}

type EventLoopSuite struct {
	suite.Suite

	handler  *mocks.EventHandler
	timeouts chan model.LocalTimeout
	loop     *EventLoop
	cancel   context.CancelFunc

	mu    sync.Mutex
	order []string
}

func (s *EventLoopSuite) SetupTest() {
	s.order = nil
	s.timeouts = make(chan model.LocalTimeout)
	s.handler = mocks.NewEventHandler(s.T())
	s.handler.On("Start", mock.Anything).Return(nil).Maybe()
	s.handler.On("TimeoutChannel").Return(func() <-chan model.LocalTimeout { return s.timeouts }).Maybe()

	var err error
	s.loop, err = New(unittest.Logger(), 1)
	require.NoError(s.T(), err)
	s.loop.SetEventHandler(s.handler)
}

func (s *EventLoopSuite) TearDownTest() {
	if s.cancel != nil {
		s.cancel()
		unittest.RequireCloseBefore(s.T(), s.loop.Done(), waitFor, "event loop did not stop")
		s.cancel = nil
	}
}

func (s *EventLoopSuite) start() {
	var ctx irrecoverable.SignalerContext
	ctx, s.cancel = irrecoverable.NewMockSignalerContextWithCancel(s.T(), context.Background())
	s.loop.Start(ctx)
	unittest.RequireCloseBefore(s.T(), s.loop.Ready(), waitFor, "event loop did not start")
}

func (s *EventLoopSuite) record(name string) func(mock.Arguments) {
	return func(mock.Arguments) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.order = append(s.order, name)
	}
}

func (s *EventLoopSuite) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

func (s *EventLoopSuite) TestDispatch() {
	genesis, qc := helper.Genesis(1)
	vertex := helper.MakeVertex(qc, 1)
	proposal := helper.SignProposal(vertex, model.NewHighQC(qc, qc, nil))
	vote := helper.MakeVote(helper.MakeValidators(1)[0].NodeID, vertex)
	request := model.GetVerticesRequest{Epoch: 1, VertexID: genesis.ID(), Count: 1}

	s.handler.On("OnProposal", proposal).Return(nil).Run(s.record("proposal")).Once()
	s.handler.On("OnVote", vote).Return(nil).Run(s.record("vote")).Once()
	s.handler.On("OnGetVerticesRequest", request).Return(nil).Run(s.record("request")).Once()
	s.start()

	s.Require().True(s.loop.SubmitProposal(proposal))
	s.Require().True(s.loop.SubmitVote(vote))
	s.Require().True(s.loop.SubmitGetVerticesRequest(request))

	s.Eventually(func() bool { return len(s.recorded()) == 3 }, waitFor, 5*time.Millisecond)
	s.Equal([]string{"proposal", "vote", "request"}, s.recorded())
}

// Internal events are handled before network messages queued earlier.
func (s *EventLoopSuite) TestInternalEventsFirst() {
	_, qc := helper.Genesis(1)
	vertex := helper.MakeVertex(qc, 1)
	proposal := helper.SignProposal(vertex, model.NewHighQC(qc, qc, nil))
	update := model.ViewUpdate{CurrentView: 1, HighQC: model.NewHighQC(qc, qc, nil)}
	timeout := model.VertexRequestTimeout{Epoch: 1, VertexID: vertex.ID(), Attempt: 1}

	s.handler.On("OnProposal", proposal).Return(nil).Run(s.record("proposal")).Once()
	s.handler.On("OnViewUpdate", update).Return(nil).Run(s.record("view_update")).Once()
	s.handler.On("OnVertexRequestTimeout", timeout).Return(nil).Run(s.record("request_timeout")).Once()

	s.Require().True(s.loop.SubmitProposal(proposal))
	s.loop.OnViewUpdate(update)
	s.loop.OnVertexRequestTimeout(timeout)
	s.start()

	s.Eventually(func() bool { return len(s.recorded()) == 3 }, waitFor, 5*time.Millisecond)
	s.Equal([]string{"view_update", "request_timeout", "proposal"}, s.recorded())
}

func (s *EventLoopSuite) TestLocalTimeout() {
	timeout := model.LocalTimeout{Epoch: 1, View: 3}
	processed := make(chan struct{})
	s.handler.On("OnLocalTimeout", timeout).Return(nil).Run(func(mock.Arguments) { close(processed) }).Once()
	s.start()

	s.timeouts <- timeout
	unittest.RequireCloseBefore(s.T(), processed, waitFor, "local timeout not processed")
}

func (s *EventLoopSuite) TestInboundCapacity() {
	_, qc := helper.Genesis(1)
	ids := helper.MakeValidators(3)
	vertex := helper.MakeVertex(qc, 1)

	loop, err := New(unittest.Logger(), 1, WithInboundCapacity(2))
	s.Require().NoError(err)
	loop.SetEventHandler(s.handler)

	s.True(loop.SubmitVote(helper.MakeVote(ids[0].NodeID, vertex)))
	s.True(loop.SubmitVote(helper.MakeVote(ids[1].NodeID, vertex)))
	s.False(loop.SubmitVote(helper.MakeVote(ids[2].NodeID, vertex)))

	// internal events are never dropped
	for i := 0; i < 10; i++ {
		loop.OnBFTInsertUpdate(model.BFTInsertUpdate{})
	}
	s.Equal(10, loop.internal.Len())
}

func TestEventLoop_HandlerErrorIsFatal(t *testing.T) {
	fatal := errors.New("corrupted state")
	_, qc := helper.Genesis(1)

	handler := mocks.NewEventHandler(t)
	handler.On("Start", mock.Anything).Return(nil).Once()
	handler.On("TimeoutChannel").Return(nil).Maybe()
	handler.On("OnViewQuorumReached", mock.Anything).Return(fatal).Once()

	loop, err := New(unittest.Logger(), 1)
	require.NoError(t, err)
	loop.SetEventHandler(handler)

	ctx, errChan := irrecoverable.WithSignaler(context.Background())
	loop.Start(ctx)
	loop.OnViewQuorumReached(model.ViewQuorumReached{Result: model.FormedQC{QC: qc}})

	select {
	case err := <-errChan:
		assert.ErrorIs(t, err, fatal)
	case <-time.After(waitFor):
		t.Fatal("handler error was not thrown")
	}
	unittest.RequireCloseBefore(t, loop.Done(), waitFor, "event loop did not stop")
}

func TestEventLoop_StartErrorIsFatal(t *testing.T) {
	fatal := errors.New("no persisted state")
	handler := mocks.NewEventHandler(t)
	handler.On("Start", mock.Anything).Return(fatal).Once()

	loop, err := New(unittest.Logger(), 1)
	require.NoError(t, err)
	loop.SetEventHandler(handler)

	ctx, errChan := irrecoverable.WithSignaler(context.Background())
	loop.Start(ctx)

	select {
	case err := <-errChan:
		assert.ErrorIs(t, err, fatal)
	case <-time.After(waitFor):
		t.Fatal("start error was not thrown")
	}
}
