package mocks

import (
	mock "github.com/stretchr/testify/mock"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// QuorumEvents is a mock type for the QuorumEvents type
type QuorumEvents struct {
	mock.Mock
}

// OnViewQuorumReached provides a mock function with given fields: event
func (_m *QuorumEvents) OnViewQuorumReached(event model.ViewQuorumReached) {
	_m.Called(event)
}

type mockConstructorTestingTNewQuorumEvents interface {
	mock.TestingT
	Cleanup(func())
}

// NewQuorumEvents creates a new instance of QuorumEvents. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewQuorumEvents(t mockConstructorTestingTNewQuorumEvents) *QuorumEvents {
	mock := &QuorumEvents{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
