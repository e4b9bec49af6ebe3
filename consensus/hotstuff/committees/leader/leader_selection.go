package leader

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/quorumchain/bft/model/chain"
)

// Selection picks the leader of a view with a probability proportional to
// each validator's weight. The choice is a pure function of (seed, view),
// so every replica of an epoch computes the same leader without coordination.
type Selection struct {
	memberIDs  []chain.Identifier
	weightSums []uint64
	seed       uint64
}

// NewSelection creates a leader selection over the given validators. The
// order of validators must be the same on every replica.
func NewSelection(seed uint64, validators []chain.Validator) (*Selection, error) {
	if len(validators) == 0 {
		return nil, fmt.Errorf("validators is empty")
	}

	// create an array of weight ranges for each validator.
	// an i-th validator is selected as the leader if the pseudo-random number falls into its weight range.
	weightSums := make([]uint64, 0, len(validators))
	memberIDs := make([]chain.Identifier, 0, len(validators))
	var cumsum uint64
	for _, v := range validators {
		if cumsum+v.Weight < cumsum {
			return nil, fmt.Errorf("total weight overflows")
		}
		cumsum += v.Weight
		weightSums = append(weightSums, cumsum)
		memberIDs = append(memberIDs, v.NodeID)
	}
	if cumsum == 0 {
		return nil, fmt.Errorf("total weight must be greater than 0")
	}

	return &Selection{
		memberIDs:  memberIDs,
		weightSums: weightSums,
		seed:       seed,
	}, nil
}

// LeaderForView returns the node ID of the leader for a given view.
func (s *Selection) LeaderForView(view uint64) chain.Identifier {
	total := s.weightSums[len(s.weightSums)-1]
	randomness := s.draw(view) % total
	return s.memberIDs[binarySearchStrictlyBigger(randomness, s.weightSums)]
}

func (s *Selection) draw(view uint64) uint64 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], s.seed)
	binary.BigEndian.PutUint64(buf[8:], view)
	digest := sha3.Sum256(buf[:])
	return binary.BigEndian.Uint64(digest[:8])
}

// binarySearchStriclyBigger finds the index of the first item in the given array that is
// strictly bigger to the given value.
// There are a few assumptions on inputs:
// - `arr` must be non-empty
// - items in `arr` must be in non-decreasing order
// - `value` must be less than the last item in `arr`
func binarySearchStrictlyBigger(value uint64, arr []uint64) int {
	left := 0
	right := len(arr) - 1
	for left < right {
		mid := (left + right) >> 1
		if arr[mid] <= value {
			left = mid + 1
		} else {
			right = mid
		}
	}
	return left
}
