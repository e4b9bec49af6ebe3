package hotstuff

import (
	"github.com/quorumchain/bft/model/chain"
)

// ValidatorSet is the weighted membership of one epoch. It is immutable for
// the lifetime of the epoch.
type ValidatorSet interface {
	// Epoch returns the epoch this set governs.
	Epoch() uint64

	// TotalWeight returns the sum of all validator weights.
	TotalWeight() uint64

	// QuorumThreshold returns the smallest weight strictly greater than 2/3 of the total.
	QuorumThreshold() uint64

	// HasQuorum reports whether weight reaches the quorum threshold.
	HasQuorum(weight uint64) bool

	// Contains reports whether nodeID is a member of the set.
	Contains(nodeID chain.Identifier) bool

	// WeightOf returns the weight of nodeID, zero for non-members.
	WeightOf(nodeID chain.Identifier) uint64

	// WeightOfSigners sums the weight of the distinct members among signers.
	WeightOfSigners(signers []chain.Identifier) uint64

	// ByNodeID returns the validator entry for nodeID.
	ByNodeID(nodeID chain.Identifier) (chain.Validator, bool)

	// NodeIDs returns all member IDs in canonical order.
	NodeIDs() []chain.Identifier

	// Validators returns all members in canonical order.
	Validators() []chain.Validator

	// LeaderForView returns the leader of a view. Leader selection is fork
	// independent: it only depends on the epoch and the view.
	LeaderForView(view uint64) chain.Identifier
}
