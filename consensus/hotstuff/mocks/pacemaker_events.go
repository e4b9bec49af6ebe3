package mocks

import (
	mock "github.com/stretchr/testify/mock"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// PacemakerEvents is a mock type for the PacemakerEvents type
type PacemakerEvents struct {
	mock.Mock
}

// OnViewUpdate provides a mock function with given fields: update
func (_m *PacemakerEvents) OnViewUpdate(update model.ViewUpdate) {
	_m.Called(update)
}

type mockConstructorTestingTNewPacemakerEvents interface {
	mock.TestingT
	Cleanup(func())
}

// NewPacemakerEvents creates a new instance of PacemakerEvents. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewPacemakerEvents(t mockConstructorTestingTNewPacemakerEvents) *PacemakerEvents {
	mock := &PacemakerEvents{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
