package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/consensus/hotstuff/notifications"
)

type countingConsumer struct {
	notifications.NoopConsumer
	epochs   []uint64
	commits  int
	timeouts int
}

func (c *countingConsumer) OnEpochStarted(epoch uint64) { c.epochs = append(c.epochs, epoch) }
func (c *countingConsumer) OnVertexCommitted(model.BFTCommittedUpdate) { c.commits++ }
func (c *countingConsumer) OnLocalTimeout(model.LocalTimeout) { c.timeouts++ }

func TestDistributor_FansOut(t *testing.T) {
	d := NewDistributor()
	a, b := &countingConsumer{}, &countingConsumer{}
	d.AddConsumer(a)
	d.AddConsumer(b)

	var callbacks int
	d.AddOnVertexCommittedConsumer(func(model.BFTCommittedUpdate) { callbacks++ })

	d.OnEpochStarted(3)
	d.OnVertexCommitted(model.BFTCommittedUpdate{})
	d.OnLocalTimeout(model.LocalTimeout{View: 4})

	for _, c := range []*countingConsumer{a, b} {
		assert.Equal(t, []uint64{3}, c.epochs)
		assert.Equal(t, 1, c.commits)
		assert.Equal(t, 1, c.timeouts)
	}
	assert.Equal(t, 1, callbacks)
}
