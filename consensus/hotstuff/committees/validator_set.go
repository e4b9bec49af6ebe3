package committees

import (
	"bytes"

	"golang.org/x/exp/slices"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/committees/leader"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// ValidatorSet is the immutable, weighted membership of one epoch.
// Validators are kept ordered by node ID.
type ValidatorSet struct {
	epoch       uint64
	validators  []chain.Validator
	index       map[chain.Identifier]int
	totalWeight uint64
	threshold   uint64
	leaders     *leader.Selection
}

// NewValidatorSet creates the validator set of an epoch. It returns a
// model.ConfigurationError if the set is empty, contains duplicates or
// zero weights, or its total weight overflows.
func NewValidatorSet(epoch uint64, validators []chain.Validator) (*ValidatorSet, error) {
	if len(validators) == 0 {
		return nil, model.NewConfigurationErrorf("validator set of epoch %d is empty", epoch)
	}

	sorted := make([]chain.Validator, len(validators))
	copy(sorted, validators)
	slices.SortFunc(sorted, func(a, b chain.Validator) int {
		return bytes.Compare(a.NodeID[:], b.NodeID[:])
	})

	index := make(map[chain.Identifier]int, len(sorted))
	var total uint64
	for i, v := range sorted {
		if _, dup := index[v.NodeID]; dup {
			return nil, model.NewConfigurationErrorf("duplicate validator %v", v.NodeID)
		}
		if v.Weight == 0 {
			return nil, model.NewConfigurationErrorf("validator %v has zero weight", v.NodeID)
		}
		if total+v.Weight < total {
			return nil, model.NewConfigurationErrorf("total weight of epoch %d overflows", epoch)
		}
		total += v.Weight
		index[v.NodeID] = i
	}

	leaders, err := leader.NewSelection(epoch, sorted)
	if err != nil {
		return nil, model.NewConfigurationError(err)
	}

	return &ValidatorSet{
		epoch:       epoch,
		validators:  sorted,
		index:       index,
		totalWeight: total,
		threshold:   WeightThresholdToBuildQC(total),
		leaders:     leaders,
	}, nil
}

// Epoch returns the epoch the set belongs to.
func (s *ValidatorSet) Epoch() uint64 { return s.epoch }

// TotalWeight returns the sum of all validator weights.
func (s *ValidatorSet) TotalWeight() uint64 { return s.totalWeight }

// QuorumThreshold returns the smallest weight strictly greater than 2/3 of the total.
func (s *ValidatorSet) QuorumThreshold() uint64 { return s.threshold }

// HasQuorum reports whether weight is enough to form a QC or TC.
func (s *ValidatorSet) HasQuorum(weight uint64) bool { return weight >= s.threshold }

// Contains reports whether nodeID is a member.
func (s *ValidatorSet) Contains(nodeID chain.Identifier) bool {
	_, ok := s.index[nodeID]
	return ok
}

// WeightOf returns the weight of nodeID, or zero for non-members.
func (s *ValidatorSet) WeightOf(nodeID chain.Identifier) uint64 {
	i, ok := s.index[nodeID]
	if !ok {
		return 0
	}
	return s.validators[i].Weight
}

// ByNodeID returns the validator with the given ID.
func (s *ValidatorSet) ByNodeID(nodeID chain.Identifier) (chain.Validator, bool) {
	i, ok := s.index[nodeID]
	if !ok {
		return chain.Validator{}, false
	}
	return s.validators[i], true
}

// WeightOfSigners sums the weight of the distinct members among signers.
func (s *ValidatorSet) WeightOfSigners(signers []chain.Identifier) uint64 {
	seen := make(map[chain.Identifier]struct{}, len(signers))
	var weight uint64
	for _, id := range signers {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		weight += s.WeightOf(id)
	}
	return weight
}

// Validators returns a copy of the members ordered by node ID.
func (s *ValidatorSet) Validators() []chain.Validator {
	cp := make([]chain.Validator, len(s.validators))
	copy(cp, s.validators)
	return cp
}

// NodeIDs returns the member IDs ordered by node ID.
func (s *ValidatorSet) NodeIDs() []chain.Identifier {
	ids := make([]chain.Identifier, 0, len(s.validators))
	for _, v := range s.validators {
		ids = append(ids, v.NodeID)
	}
	return ids
}

// Size returns the number of members.
func (s *ValidatorSet) Size() int { return len(s.validators) }

// LeaderForView returns the leader of view in this epoch.
func (s *ValidatorSet) LeaderForView(view uint64) chain.Identifier {
	return s.leaders.LeaderForView(view)
}

var _ hotstuff.ValidatorSet = (*ValidatorSet)(nil)
