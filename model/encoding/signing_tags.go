package encoding

// Domain separation tags. Every signed message is hashed together with the
// tag of its kind, so a vote signature can never pass as a timeout or a
// proposal signature.

func tag(domain string) string {
	return protocolPrefix + domain
}

const protocolPrefix = "BFT-V0.1_"

var (
	// ConsensusVoteTag is used for votes on a vertex.
	ConsensusVoteTag = tag("Consensus-Vote")
	// ConsensusTimeoutTag is used for timeout signatures over (epoch, view).
	ConsensusTimeoutTag = tag("Consensus-Timeout")
	// ProposalTag is used by the leader to sign its vertex proposal.
	ProposalTag = tag("Proposal")
)
