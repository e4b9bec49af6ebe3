package committees

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

func makeValidators(weights ...uint64) []chain.Validator {
	vs := make([]chain.Validator, 0, len(weights))
	for i, w := range weights {
		vs = append(vs, chain.Validator{NodeID: chain.HashToID([]byte{byte(i), 0xaa}), Weight: w})
	}
	return vs
}

func TestValidatorSet_EqualWeights(t *testing.T) {
	vs := makeValidators(1, 1, 1, 1)
	set, err := NewValidatorSet(1, vs)
	require.NoError(t, err)

	assert.Equal(t, uint64(4), set.TotalWeight())
	assert.Equal(t, uint64(3), set.QuorumThreshold())
	assert.True(t, set.HasQuorum(3))
	assert.False(t, set.HasQuorum(2))
	assert.Equal(t, 4, set.Size())
	for _, v := range vs {
		assert.True(t, set.Contains(v.NodeID))
		assert.Equal(t, uint64(1), set.WeightOf(v.NodeID))
	}

	outsider := chain.HashToID([]byte("outsider"))
	assert.False(t, set.Contains(outsider))
	assert.Zero(t, set.WeightOf(outsider))
}

func TestValidatorSet_SortedAndCopied(t *testing.T) {
	vs := makeValidators(5, 3, 2, 7)
	set, err := NewValidatorSet(2, vs)
	require.NoError(t, err)

	ids := set.NodeIDs()
	for i := 1; i < len(ids); i++ {
		assert.Negative(t, compareIDs(ids[i-1], ids[i]))
	}

	got := set.Validators()
	got[0].Weight = 1000
	assert.NotEqual(t, uint64(1000), set.Validators()[0].Weight)
}

func TestValidatorSet_WeightOfSigners(t *testing.T) {
	vs := makeValidators(5, 3, 2)
	set, err := NewValidatorSet(1, vs)
	require.NoError(t, err)

	// duplicates and outsiders add nothing
	signers := []chain.Identifier{vs[0].NodeID, vs[0].NodeID, vs[2].NodeID, chain.HashToID([]byte("x"))}
	assert.Equal(t, uint64(7), set.WeightOfSigners(signers))
}

func TestValidatorSet_LeaderIsMember(t *testing.T) {
	set, err := NewValidatorSet(3, makeValidators(1, 2, 3, 4))
	require.NoError(t, err)

	for view := uint64(0); view < 200; view++ {
		assert.True(t, set.Contains(set.LeaderForView(view)))
	}
}

func TestValidatorSet_Invalid(t *testing.T) {
	_, err := NewValidatorSet(1, nil)
	assert.True(t, model.IsConfigurationError(err))

	vs := makeValidators(1, 1)
	vs[1].NodeID = vs[0].NodeID
	_, err = NewValidatorSet(1, vs)
	assert.True(t, model.IsConfigurationError(err))

	_, err = NewValidatorSet(1, makeValidators(1, 0))
	assert.True(t, model.IsConfigurationError(err))

	_, err = NewValidatorSet(1, makeValidators(1<<63, 1<<63))
	assert.True(t, model.IsConfigurationError(err))
}

func compareIDs(a, b chain.Identifier) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
