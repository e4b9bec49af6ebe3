package ledger

import (
	"github.com/quorumchain/bft/model/chain"
)

// Accumulate extends the accumulator by one command:
// hash' = H(hash || H(command)), version' = version + 1.
func Accumulate(parent chain.AccumulatorState, command []byte) chain.AccumulatorState {
	commandHash := chain.HashToID(command)
	concat := make([]byte, 0, 2*len(commandHash))
	concat = append(concat, parent.Hash[:]...)
	concat = append(concat, commandHash[:]...)
	return chain.AccumulatorState{
		Version: parent.Version + 1,
		Hash:    chain.HashToID(concat),
	}
}

// AccumulateAll folds commands into start in order.
func AccumulateAll(start chain.AccumulatorState, commands [][]byte) chain.AccumulatorState {
	state := start
	for _, command := range commands {
		state = Accumulate(state, command)
	}
	return state
}

// Verify reports whether applying commands to start yields end.
func Verify(start chain.AccumulatorState, commands [][]byte, end chain.AccumulatorState) bool {
	return AccumulateAll(start, commands).Equals(end)
}

// Extension returns the suffix of commands that extends current to tail,
// where commands end at tail. It returns false if commands do not reach back
// to current or do not hash to tail.
func Extension(current chain.AccumulatorState, commands [][]byte, tail chain.AccumulatorState) ([][]byte, bool) {
	if tail.Version < current.Version {
		return nil, false
	}
	missing := tail.Version - current.Version
	if missing > uint64(len(commands)) {
		return nil, false
	}
	extension := commands[uint64(len(commands))-missing:]
	if !Verify(current, extension, tail) {
		return nil, false
	}
	return extension, true
}
