package mocks

import (
	mock "github.com/stretchr/testify/mock"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// Validator is a mock type for the Validator type
type Validator struct {
	mock.Mock
}

// ValidateQC provides a mock function with given fields: qc
func (_m *Validator) ValidateQC(qc *model.QuorumCertificate) error {
	ret := _m.Called(qc)

	var r0 error
	if rf, ok := ret.Get(0).(func(*model.QuorumCertificate) error); ok {
		r0 = rf(qc)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// ValidateTC provides a mock function with given fields: tc
func (_m *Validator) ValidateTC(tc *model.TimeoutCertificate) error {
	ret := _m.Called(tc)

	var r0 error
	if rf, ok := ret.Get(0).(func(*model.TimeoutCertificate) error); ok {
		r0 = rf(tc)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// ValidateHighQC provides a mock function with given fields: highQC
func (_m *Validator) ValidateHighQC(highQC model.HighQC) error {
	ret := _m.Called(highQC)

	var r0 error
	if rf, ok := ret.Get(0).(func(model.HighQC) error); ok {
		r0 = rf(highQC)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// ValidateProposal provides a mock function with given fields: proposal
func (_m *Validator) ValidateProposal(proposal *model.Proposal) error {
	ret := _m.Called(proposal)

	var r0 error
	if rf, ok := ret.Get(0).(func(*model.Proposal) error); ok {
		r0 = rf(proposal)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// ValidateVote provides a mock function with given fields: vote
func (_m *Validator) ValidateVote(vote *model.Vote) error {
	ret := _m.Called(vote)

	var r0 error
	if rf, ok := ret.Get(0).(func(*model.Vote) error); ok {
		r0 = rf(vote)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

type mockConstructorTestingTNewValidator interface {
	mock.TestingT
	Cleanup(func())
}

// NewValidator creates a new instance of Validator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewValidator(t mockConstructorTestingTNewValidator) *Validator {
	mock := &Validator{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
