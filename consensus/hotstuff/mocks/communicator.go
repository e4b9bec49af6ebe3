package mocks

import (
	mock "github.com/stretchr/testify/mock"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// Communicator is a mock type for the Communicator type
type Communicator struct {
	mock.Mock
}

// BroadcastProposal provides a mock function with given fields: proposal, validators
func (_m *Communicator) BroadcastProposal(proposal *model.Proposal, validators []chain.Identifier) {
	_m.Called(proposal, validators)
}

// SendVote provides a mock function with given fields: vote, leader
func (_m *Communicator) SendVote(vote *model.Vote, leader chain.Identifier) {
	_m.Called(vote, leader)
}

// BroadcastVote provides a mock function with given fields: vote, validators
func (_m *Communicator) BroadcastVote(vote *model.Vote, validators []chain.Identifier) {
	_m.Called(vote, validators)
}

// SendGetVerticesRequest provides a mock function with given fields: request, target
func (_m *Communicator) SendGetVerticesRequest(request model.GetVerticesRequest, target chain.Identifier) {
	_m.Called(request, target)
}

// SendGetVerticesResponse provides a mock function with given fields: response, target
func (_m *Communicator) SendGetVerticesResponse(response model.GetVerticesResponse, target chain.Identifier) {
	_m.Called(response, target)
}

// SendGetVerticesErrorResponse provides a mock function with given fields: response, target
func (_m *Communicator) SendGetVerticesErrorResponse(response model.GetVerticesErrorResponse, target chain.Identifier) {
	_m.Called(response, target)
}

type mockConstructorTestingTNewCommunicator interface {
	mock.TestingT
	Cleanup(func())
}

// NewCommunicator creates a new instance of Communicator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewCommunicator(t mockConstructorTestingTNewCommunicator) *Communicator {
	mock := &Communicator{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
