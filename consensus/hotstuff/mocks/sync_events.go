package mocks

import (
	mock "github.com/stretchr/testify/mock"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// SyncEvents is a mock type for the SyncEvents type
type SyncEvents struct {
	mock.Mock
}

// OnVertexRequestTimeout provides a mock function with given fields: timeout
func (_m *SyncEvents) OnVertexRequestTimeout(timeout model.VertexRequestTimeout) {
	_m.Called(timeout)
}

type mockConstructorTestingTNewSyncEvents interface {
	mock.TestingT
	Cleanup(func())
}

// NewSyncEvents creates a new instance of SyncEvents. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewSyncEvents(t mockConstructorTestingTNewSyncEvents) *SyncEvents {
	mock := &SyncEvents{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
