package mocks

import (
	mock "github.com/stretchr/testify/mock"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// BFTSync is a mock type for the BFTSync type
type BFTSync struct {
	mock.Mock
}

// SyncToQC provides a mock function with given fields: highQC, author
func (_m *BFTSync) SyncToQC(highQC model.HighQC, author chain.Identifier) (bool, error) {
	ret := _m.Called(highQC, author)

	var r0 bool
	if rf, ok := ret.Get(0).(func(model.HighQC, chain.Identifier) bool); ok {
		r0 = rf(highQC, author)
	} else {
		r0 = ret.Get(0).(bool)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(model.HighQC, chain.Identifier) error); ok {
		r1 = rf(highQC, author)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// OnGetVerticesResponse provides a mock function with given fields: response
func (_m *BFTSync) OnGetVerticesResponse(response model.GetVerticesResponse) error {
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
func (_m *BFTSync) OnGetVerticesErrorResponse(response model.GetVerticesErrorResponse) error {
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
func (_m *BFTSync) OnVertexRequestTimeout(timeout model.VertexRequestTimeout) error {
	ret := _m.Called(timeout)

	var r0 error
	if rf, ok := ret.Get(0).(func(model.VertexRequestTimeout) error); ok {
		r0 = rf(timeout)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// OnViewUpdate provides a mock function with given fields: update
func (_m *BFTSync) OnViewUpdate(update model.ViewUpdate) {
	_m.Called(update)
}

type mockConstructorTestingTNewBFTSync interface {
	mock.TestingT
	Cleanup(func())
}

// NewBFTSync creates a new instance of BFTSync. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewBFTSync(t mockConstructorTestingTNewBFTSync) *BFTSync {
	mock := &BFTSync{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
