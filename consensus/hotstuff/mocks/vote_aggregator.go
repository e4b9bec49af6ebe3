package mocks

import (
	mock "github.com/stretchr/testify/mock"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// VoteAggregator is a mock type for the VoteAggregator type
type VoteAggregator struct {
	mock.Mock
}

// InsertVote provides a mock function with given fields: vote, validators
func (_m *VoteAggregator) InsertVote(vote *model.Vote, validators hotstuff.ValidatorSet) model.VoteProcessingResult {
	ret := _m.Called(vote, validators)

	var r0 model.VoteProcessingResult
	if rf, ok := ret.Get(0).(func(*model.Vote, hotstuff.ValidatorSet) model.VoteProcessingResult); ok {
		r0 = rf(vote, validators)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(model.VoteProcessingResult)
	}

	return r0
}

// PruneBelow provides a mock function with given fields: view
func (_m *VoteAggregator) PruneBelow(view uint64) {
	_m.Called(view)
}

type mockConstructorTestingTNewVoteAggregator interface {
	mock.TestingT
	Cleanup(func())
}

// NewVoteAggregator creates a new instance of VoteAggregator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewVoteAggregator(t mockConstructorTestingTNewVoteAggregator) *VoteAggregator {
	mock := &VoteAggregator{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
