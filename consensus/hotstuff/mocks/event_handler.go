package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// EventHandler is a mock type for the EventHandler type
type EventHandler struct {
	mock.Mock
}

// Start provides a mock function with given fields: ctx
func (_m *EventHandler) Start(ctx context.Context) error {
	ret := _m.Called(ctx)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context) error); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// OnProposal provides a mock function with given fields: proposal
func (_m *EventHandler) OnProposal(proposal *model.Proposal) error {
	ret := _m.Called(proposal)

	var r0 error
	if rf, ok := ret.Get(0).(func(*model.Proposal) error); ok {
		r0 = rf(proposal)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// OnVote provides a mock function with given fields: vote
func (_m *EventHandler) OnVote(vote *model.Vote) error {
	ret := _m.Called(vote)

	var r0 error
	if rf, ok := ret.Get(0).(func(*model.Vote) error); ok {
		r0 = rf(vote)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// OnLocalTimeout provides a mock function with given fields: timeout
func (_m *EventHandler) OnLocalTimeout(timeout model.LocalTimeout) error {
	ret := _m.Called(timeout)

	var r0 error
	if rf, ok := ret.Get(0).(func(model.LocalTimeout) error); ok {
		r0 = rf(timeout)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// OnBFTInsertUpdate provides a mock function with given fields: update
func (_m *EventHandler) OnBFTInsertUpdate(update model.BFTInsertUpdate) error {
	ret := _m.Called(update)

	var r0 error
	if rf, ok := ret.Get(0).(func(model.BFTInsertUpdate) error); ok {
		r0 = rf(update)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// OnViewUpdate provides a mock function with given fields: update
func (_m *EventHandler) OnViewUpdate(update model.ViewUpdate) error {
	ret := _m.Called(update)

	var r0 error
	if rf, ok := ret.Get(0).(func(model.ViewUpdate) error); ok {
		r0 = rf(update)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// OnViewQuorumReached provides a mock function with given fields: event
func (_m *EventHandler) OnViewQuorumReached(event model.ViewQuorumReached) error {
	ret := _m.Called(event)

	var r0 error
	if rf, ok := ret.Get(0).(func(model.ViewQuorumReached) error); ok {
		r0 = rf(event)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// OnGetVerticesRequest provides a mock function with given fields: request
func (_m *EventHandler) OnGetVerticesRequest(request model.GetVerticesRequest) error {
	ret := _m.Called(request)

	var r0 error
	if rf, ok := ret.Get(0).(func(model.GetVerticesRequest) error); ok {
		r0 = rf(request)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// OnGetVerticesResponse provides a mock function with given fields: response
func (_m *EventHandler) OnGetVerticesResponse(response model.GetVerticesResponse) error {
	ret := _m.Called(response)

	var r0 error
	if rf, ok := ret.Get(0).(func(model.GetVerticesResponse) error); ok {
		r0 = rf(response)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// OnGetVerticesErrorResponse provides a mock function with given fields: response
func (_m *EventHandler) OnGetVerticesErrorResponse(response model.GetVerticesErrorResponse) error {
	ret := _m.Called(response)

	var r0 error
	if rf, ok := ret.Get(0).(func(model.GetVerticesErrorResponse) error); ok {
		r0 = rf(response)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// OnVertexRequestTimeout provides a mock function with given fields: timeout
func (_m *EventHandler) OnVertexRequestTimeout(timeout model.VertexRequestTimeout) error {
	ret := _m.Called(timeout)

	var r0 error
	if rf, ok := ret.Get(0).(func(model.VertexRequestTimeout) error); ok {
		r0 = rf(timeout)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// TimeoutChannel provides a mock function with given fields:
func (_m *EventHandler) TimeoutChannel() <-chan model.LocalTimeout {
	ret := _m.Called()

	var r0 <-chan model.LocalTimeout
	if rf, ok := ret.Get(0).(func() <-chan model.LocalTimeout); ok {
		r0 = rf()
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(<-chan model.LocalTimeout)
	}

	return r0
}

type mockConstructorTestingTNewEventHandler interface {
	mock.TestingT
	Cleanup(func())
}

// NewEventHandler creates a new instance of EventHandler. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewEventHandler(t mockConstructorTestingTNewEventHandler) *EventHandler {
	mock := &EventHandler{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
