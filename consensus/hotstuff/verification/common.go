package verification

import (
	"encoding/binary"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
	"github.com/quorumchain/bft/model/encoding"
)

// MakeVoteMessage generates the message a replica signs when voting. The
// vote data is committed to by its content hash, so signatures can be
// verified from a QC without the vertex.
func MakeVoteMessage(data model.VoteData, timestamp int64) []byte {
	dataID := data.ID()
	msg := make([]byte, 0, len(encoding.ConsensusVoteTag)+chain.IdentifierLen+8)
	msg = append(msg, encoding.ConsensusVoteTag...)
	msg = append(msg, dataID[:]...)
	return binary.BigEndian.AppendUint64(msg, uint64(timestamp))
}

// MakeTimeoutMessage generates the message a replica signs when it times out a view.
func MakeTimeoutMessage(epoch uint64, view uint64) []byte {
	msg := make([]byte, 0, len(encoding.ConsensusTimeoutTag)+16)
	msg = append(msg, encoding.ConsensusTimeoutTag...)
	msg = binary.BigEndian.AppendUint64(msg, epoch)
	return binary.BigEndian.AppendUint64(msg, view)
}

// MakeProposalMessage generates the message a leader signs for its vertex.
func MakeProposalMessage(vertexID chain.Identifier) []byte {
	msg := make([]byte, 0, len(encoding.ProposalTag)+chain.IdentifierLen)
	msg = append(msg, encoding.ProposalTag...)
	return append(msg, vertexID[:]...)
}
