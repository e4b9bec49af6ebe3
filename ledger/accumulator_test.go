package ledger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/quorumchain/bft/model/chain"
)

func commands(n int) [][]byte {
	cmds := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		cmds = append(cmds, []byte(fmt.Sprintf("cmd-%d", i)))
	}
	return cmds
}

func TestAccumulate(t *testing.T) {
	start := chain.AccumulatorState{}
	a := Accumulate(start, []byte("a"))
	b := Accumulate(start, []byte("b"))

	assert.Equal(t, uint64(1), a.Version)
	assert.NotEqual(t, a.Hash, b.Hash)
	assert.Equal(t, a, Accumulate(start, []byte("a")))
	assert.NotEqual(t, Accumulate(a, []byte("b")), Accumulate(b, []byte("a")))
}

func TestVerify(t *testing.T) {
	cmds := commands(5)
	start := chain.AccumulatorState{Version: 10}
	end := AccumulateAll(start, cmds)

	assert.Equal(t, uint64(15), end.Version)
	assert.True(t, Verify(start, cmds, end))
	assert.False(t, Verify(start, cmds[1:], end))
	assert.False(t, Verify(start, commands(6), end))
}

func TestExtension(t *testing.T) {
	cmds := commands(6)
	start := chain.AccumulatorState{}
	current := AccumulateAll(start, cmds[:2])
	tail := AccumulateAll(start, cmds)

	ext, ok := Extension(current, cmds, tail)
	require.True(t, ok)
	assert.Equal(t, cmds[2:], ext)

	ext, ok = Extension(tail, cmds, tail)
	require.True(t, ok)
	assert.Empty(t, ext)

	_, ok = Extension(current, cmds[3:], tail)
	assert.False(t, ok, "commands do not reach back to current")

	_, ok = Extension(tail, cmds, current)
	assert.False(t, ok, "tail behind current")
}

// Splitting a command sequence anywhere yields the same accumulator.
func TestAccumulateAll_Associative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cmds := rapid.SliceOf(rapid.SliceOfN(rapid.Byte(), 1, 16)).Draw(t, "commands")
		split := rapid.IntRange(0, len(cmds)).Draw(t, "split")

		whole := AccumulateAll(chain.AccumulatorState{}, cmds)
		parts := AccumulateAll(AccumulateAll(chain.AccumulatorState{}, cmds[:split]), cmds[split:])
		if !whole.Equals(parts) {
			t.Fatalf("accumulator depends on split point %d", split)
		}
		if whole.Version != uint64(len(cmds)) {
			t.Fatalf("version %d for %d commands", whole.Version, len(cmds))
		}
	})
}
