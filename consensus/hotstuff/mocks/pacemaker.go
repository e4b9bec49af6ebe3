package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// Pacemaker is a mock type for the Pacemaker type
type Pacemaker struct {
	mock.Mock
}

// Start provides a mock function with given fields: ctx
func (_m *Pacemaker) Start(ctx context.Context) error {
	ret := _m.Called(ctx)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context) error); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// CurView provides a mock function with given fields:
func (_m *Pacemaker) CurView() uint64 {
	ret := _m.Called()

	var r0 uint64
	if rf, ok := ret.Get(0).(func() uint64); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(uint64)
	}

	return r0
}

// ProcessQC provides a mock function with given fields: highQC
func (_m *Pacemaker) ProcessQC(highQC model.HighQC) (bool, error) {
	ret := _m.Called(highQC)

	var r0 bool
	if rf, ok := ret.Get(0).(func(model.HighQC) bool); ok {
		r0 = rf(highQC)
	} else {
		r0 = ret.Get(0).(bool)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(model.HighQC) error); ok {
		r1 = rf(highQC)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// OnViewUpdate provides a mock function with given fields: update
func (_m *Pacemaker) OnViewUpdate(update model.ViewUpdate) error {
	ret := _m.Called(update)

	var r0 error
	if rf, ok := ret.Get(0).(func(model.ViewUpdate) error); ok {
		r0 = rf(update)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// OnLocalTimeout provides a mock function with given fields: timeout
func (_m *Pacemaker) OnLocalTimeout(timeout model.LocalTimeout) (bool, error) {
	ret := _m.Called(timeout)

	var r0 bool
	if rf, ok := ret.Get(0).(func(model.LocalTimeout) bool); ok {
		r0 = rf(timeout)
	} else {
		r0 = ret.Get(0).(bool)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(model.LocalTimeout) error); ok {
		r1 = rf(timeout)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// TimeoutChannel provides a mock function with given fields:
func (_m *Pacemaker) TimeoutChannel() <-chan model.LocalTimeout {
	ret := _m.Called()

	var r0 <-chan model.LocalTimeout
	if rf, ok := ret.Get(0).(func() <-chan model.LocalTimeout); ok {
		r0 = rf()
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(<-chan model.LocalTimeout)
	}

	return r0
}

type mockConstructorTestingTNewPacemaker interface {
	mock.TestingT
	Cleanup(func())
}

// NewPacemaker creates a new instance of Pacemaker. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewPacemaker(t mockConstructorTestingTNewPacemaker) *Pacemaker {
	mock := &Pacemaker{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
