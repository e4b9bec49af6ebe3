package chain

import (
	"bytes"
	"time"
)

// AccumulatorState is the running commitment over every command the ledger
// has executed. Version counts the commands applied so far.
type AccumulatorState struct {
	Version uint64
	Hash    Identifier
}

// Equals reports whether two accumulator states commit to the same history.
func (a AccumulatorState) Equals(other AccumulatorState) bool {
	return a.Version == other.Version && a.Hash == other.Hash
}

// LedgerHeader is the result of speculatively executing a vertex's payload
// against its parent's ledger state. It travels inside every QC so replicas
// agree on execution results without re-executing.
type LedgerHeader struct {
	Epoch       uint64
	View        uint64
	Accumulator AccumulatorState
	// Timestamp is unix milliseconds, taken from the proposing vertex.
	Timestamp int64
	// NextValidators is set only on the last header of an epoch and carries
	// the validator set of the following epoch.
	NextValidators []Validator `cbor:",omitempty"`
}

// GenesisLedgerHeader returns the ledger header an epoch starts from.
func GenesisLedgerHeader(epoch uint64, accumulator AccumulatorState, timestamp time.Time) LedgerHeader {
	return LedgerHeader{
		Epoch:       epoch,
		View:        0,
		Accumulator: accumulator,
		Timestamp:   timestamp.UnixMilli(),
	}
}

// IsEndOfEpoch reports whether committing this header ends the epoch.
func (h LedgerHeader) IsEndOfEpoch() bool {
	return len(h.NextValidators) > 0
}

// Time returns the header timestamp.
func (h LedgerHeader) Time() time.Time {
	return time.UnixMilli(h.Timestamp).UTC()
}

// Equals compares two headers field by field, including the next validator set.
func (h LedgerHeader) Equals(other LedgerHeader) bool {
	if h.Epoch != other.Epoch || h.View != other.View || h.Timestamp != other.Timestamp {
		return false
	}
	if !h.Accumulator.Equals(other.Accumulator) {
		return false
	}
	if len(h.NextValidators) != len(other.NextValidators) {
		return false
	}
	for i := range h.NextValidators {
		if !h.NextValidators[i].Equals(other.NextValidators[i]) {
			return false
		}
	}
	return true
}

// Validator is a weighted member of a validator set.
type Validator struct {
	NodeID    Identifier
	PublicKey []byte
	Weight    uint64
}

// Equals compares all fields of two validators.
func (v Validator) Equals(other Validator) bool {
	return v.NodeID == other.NodeID && v.Weight == other.Weight && bytes.Equal(v.PublicKey, other.PublicKey)
}
