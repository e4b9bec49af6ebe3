package mocks

import (
	mock "github.com/stretchr/testify/mock"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// Mempool is a mock type for the Mempool type
type Mempool struct {
	mock.Mock
}

// GetNextPayload provides a mock function with given fields: prepared
func (_m *Mempool) GetNextPayload(prepared []*model.PreparedVertex) [][]byte {
	ret := _m.Called(prepared)

	var r0 [][]byte
	if rf, ok := ret.Get(0).(func([]*model.PreparedVertex) [][]byte); ok {
		r0 = rf(prepared)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([][]byte)
	}

	return r0
}

type mockConstructorTestingTNewMempool interface {
	mock.TestingT
	Cleanup(func())
}

// NewMempool creates a new instance of Mempool. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMempool(t mockConstructorTestingTNewMempool) *Mempool {
	mock := &Mempool{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
