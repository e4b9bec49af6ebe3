package mocks

import (
	mock "github.com/stretchr/testify/mock"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// VertexStoreEvents is a mock type for the VertexStoreEvents type
type VertexStoreEvents struct {
	mock.Mock
}

// OnBFTInsertUpdate provides a mock function with given fields: update
func (_m *VertexStoreEvents) OnBFTInsertUpdate(update model.BFTInsertUpdate) {
	_m.Called(update)
}

type mockConstructorTestingTNewVertexStoreEvents interface {
	mock.TestingT
	Cleanup(func())
}

// NewVertexStoreEvents creates a new instance of VertexStoreEvents. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewVertexStoreEvents(t mockConstructorTestingTNewVertexStoreEvents) *VertexStoreEvents {
	mock := &VertexStoreEvents{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
