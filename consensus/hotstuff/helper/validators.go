package helper

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quorumchain/bft/consensus/hotstuff/committees"
	"github.com/quorumchain/bft/model/chain"
)

// MakeID returns a random identifier.
func MakeID() chain.Identifier {
	var id chain.Identifier
	_, _ = rand.Read(id[:])
	return id
}

// MakeValidators returns n validators of weight 1 with deterministic IDs.
func MakeValidators(n int) []chain.Validator {
	vs := make([]chain.Validator, 0, n)
	for i := 0; i < n; i++ {
		vs = append(vs, chain.Validator{
			NodeID: chain.HashToID([]byte(fmt.Sprintf("validator-%d", i))),
			Weight: 1,
		})
	}
	return vs
}

// MakeValidatorSet returns a set of n validators of weight 1 and their IDs in creation order.
func MakeValidatorSet(t testing.TB, epoch uint64, n int) (*committees.ValidatorSet, []chain.Identifier) {
	vs := MakeValidators(n)
	set, err := committees.NewValidatorSet(epoch, vs)
	require.NoError(t, err)
	ids := make([]chain.Identifier, 0, n)
	for _, v := range vs {
		ids = append(ids, v.NodeID)
	}
	return set, ids
}
