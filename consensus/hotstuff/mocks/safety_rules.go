package mocks

import (
	mock "github.com/stretchr/testify/mock"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// SafetyRules is a mock type for the SafetyRules type
type SafetyRules struct {
	mock.Mock
}

// VoteFor provides a mock function with given fields: prepared, highQC
func (_m *SafetyRules) VoteFor(prepared *model.PreparedVertex, highQC model.HighQC) (*model.Vote, error) {
	ret := _m.Called(prepared, highQC)

	var r0 *model.Vote
	if rf, ok := ret.Get(0).(func(*model.PreparedVertex, model.HighQC) *model.Vote); ok {
		r0 = rf(prepared, highQC)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Vote)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(*model.PreparedVertex, model.HighQC) error); ok {
		r1 = rf(prepared, highQC)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// SignTimeout provides a mock function with given fields: view, highQC
func (_m *SafetyRules) SignTimeout(view uint64, highQC model.HighQC) (*model.Vote, error) {
	ret := _m.Called(view, highQC)

	var r0 *model.Vote
	if rf, ok := ret.Get(0).(func(uint64, model.HighQC) *model.Vote); ok {
		r0 = rf(view, highQC)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Vote)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(uint64, model.HighQC) error); ok {
		r1 = rf(view, highQC)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// GetLastVote provides a mock function with given fields: view
func (_m *SafetyRules) GetLastVote(view uint64) (*model.Vote, bool) {
	ret := _m.Called(view)

	var r0 *model.Vote
	if rf, ok := ret.Get(0).(func(uint64) *model.Vote); ok {
		r0 = rf(view)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Vote)
	}

	var r1 bool
	if rf, ok := ret.Get(1).(func(uint64) bool); ok {
		r1 = rf(view)
	} else {
		r1 = ret.Get(1).(bool)
	}

	return r0, r1
}

// SignProposal provides a mock function with given fields: vertex, highQC
func (_m *SafetyRules) SignProposal(vertex *model.Vertex, highQC model.HighQC) (*model.Proposal, error) {
	ret := _m.Called(vertex, highQC)

	var r0 *model.Proposal
	if rf, ok := ret.Get(0).(func(*model.Vertex, model.HighQC) *model.Proposal); ok {
		r0 = rf(vertex, highQC)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Proposal)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(*model.Vertex, model.HighQC) error); ok {
		r1 = rf(vertex, highQC)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type mockConstructorTestingTNewSafetyRules interface {
	mock.TestingT
	Cleanup(func())
}

// NewSafetyRules creates a new instance of SafetyRules. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewSafetyRules(t mockConstructorTestingTNewSafetyRules) *SafetyRules {
	mock := &SafetyRules{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
