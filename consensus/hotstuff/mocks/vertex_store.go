package mocks

import (
	mock "github.com/stretchr/testify/mock"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// VertexStore is a mock type for the VertexStore type
type VertexStore struct {
	mock.Mock
}

// InsertVertex provides a mock function with given fields: vertex
func (_m *VertexStore) InsertVertex(vertex *model.Vertex) (*model.PreparedVertex, error) {
	ret := _m.Called(vertex)

	var r0 *model.PreparedVertex
	if rf, ok := ret.Get(0).(func(*model.Vertex) *model.PreparedVertex); ok {
		r0 = rf(vertex)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.PreparedVertex)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(*model.Vertex) error); ok {
		r1 = rf(vertex)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// InsertQC provides a mock function with given fields: qc
func (_m *VertexStore) InsertQC(qc *model.QuorumCertificate) (bool, error) {
	ret := _m.Called(qc)

	var r0 bool
	if rf, ok := ret.Get(0).(func(*model.QuorumCertificate) bool); ok {
		r0 = rf(qc)
	} else {
		r0 = ret.Get(0).(bool)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(*model.QuorumCertificate) error); ok {
		r1 = rf(qc)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// InsertTC provides a mock function with given fields: tc
func (_m *VertexStore) InsertTC(tc *model.TimeoutCertificate) error {
	ret := _m.Called(tc)

	var r0 error
	if rf, ok := ret.Get(0).(func(*model.TimeoutCertificate) error); ok {
		r0 = rf(tc)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// GetPathFromRoot provides a mock function with given fields: vertexID
func (_m *VertexStore) GetPathFromRoot(vertexID chain.Identifier) ([]*model.PreparedVertex, bool) {
	ret := _m.Called(vertexID)

	var r0 []*model.PreparedVertex
	if rf, ok := ret.Get(0).(func(chain.Identifier) []*model.PreparedVertex); ok {
		r0 = rf(vertexID)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.PreparedVertex)
	}

	var r1 bool
	if rf, ok := ret.Get(1).(func(chain.Identifier) bool); ok {
		r1 = rf(vertexID)
	} else {
		r1 = ret.Get(1).(bool)
	}

	return r0, r1
}

// GetVertices provides a mock function with given fields: vertexID, count
func (_m *VertexStore) GetVertices(vertexID chain.Identifier, count int) ([]*model.Vertex, bool) {
	ret := _m.Called(vertexID, count)

	var r0 []*model.Vertex
	if rf, ok := ret.Get(0).(func(chain.Identifier, int) []*model.Vertex); ok {
		r0 = rf(vertexID, count)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.Vertex)
	}

	var r1 bool
	if rf, ok := ret.Get(1).(func(chain.Identifier, int) bool); ok {
		r1 = rf(vertexID, count)
	} else {
		r1 = ret.Get(1).(bool)
	}

	return r0, r1
}

// GetVertex provides a mock function with given fields: vertexID
func (_m *VertexStore) GetVertex(vertexID chain.Identifier) (*model.PreparedVertex, bool) {
	ret := _m.Called(vertexID)

	var r0 *model.PreparedVertex
	if rf, ok := ret.Get(0).(func(chain.Identifier) *model.PreparedVertex); ok {
		r0 = rf(vertexID)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.PreparedVertex)
	}

	var r1 bool
	if rf, ok := ret.Get(1).(func(chain.Identifier) bool); ok {
		r1 = rf(vertexID)
	} else {
		r1 = ret.Get(1).(bool)
	}

	return r0, r1
}

// ContainsVertex provides a mock function with given fields: vertexID
func (_m *VertexStore) ContainsVertex(vertexID chain.Identifier) bool {
	ret := _m.Called(vertexID)

	var r0 bool
	if rf, ok := ret.Get(0).(func(chain.Identifier) bool); ok {
		r0 = rf(vertexID)
	} else {
		r0 = ret.Get(0).(bool)
	}

	return r0
}

// HighQC provides a mock function with given fields:
func (_m *VertexStore) HighQC() model.HighQC {
	ret := _m.Called()

	var r0 model.HighQC
	if rf, ok := ret.Get(0).(func() model.HighQC); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(model.HighQC)
	}

	return r0
}

// Root provides a mock function with given fields:
func (_m *VertexStore) Root() *model.PreparedVertex {
	ret := _m.Called()

	var r0 *model.PreparedVertex
	if rf, ok := ret.Get(0).(func() *model.PreparedVertex); ok {
		r0 = rf()
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.PreparedVertex)
	}

	return r0
}

type mockConstructorTestingTNewVertexStore interface {
	mock.TestingT
	Cleanup(func())
}

// NewVertexStore creates a new instance of VertexStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewVertexStore(t mockConstructorTestingTNewVertexStore) *VertexStore {
	mock := &VertexStore{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
