package inmem_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/ledger/inmem"
)

type sizeRecorder struct {
	sizes []int
}

func (r *sizeRecorder) MempoolSize(size int) {
	r.sizes = append(r.sizes, size)
}

func commands(names ...string) [][]byte {
	result := make([][]byte, 0, len(names))
	for _, name := range names {
		result = append(result, []byte(name))
	}
	return result
}

func TestNewMempool_InvalidConfig(t *testing.T) {
	_, err := inmem.NewMempool(10, 0, nil)
	assert.Error(t, err)
	_, err = inmem.NewMempool(0, 1, nil)
	assert.Error(t, err)
}

func TestMempool_Add(t *testing.T) {
	recorder := &sizeRecorder{}
	mempool, err := inmem.NewMempool(2, 10, recorder)
	require.NoError(t, err)

	require.NoError(t, mempool.Add([]byte("a")))
	assert.ErrorIs(t, mempool.Add([]byte("a")), inmem.ErrDuplicateCommand)
	assert.ErrorIs(t, mempool.Add(nil), inmem.ErrEmptyCommand)
	require.NoError(t, mempool.Add([]byte("b")))
	assert.ErrorIs(t, mempool.Add([]byte("c")), inmem.ErrMempoolFull)

	assert.Equal(t, 2, mempool.Size())
	assert.Equal(t, []int{1, 2}, recorder.sizes)
}

// Payloads are built from the oldest commands that the uncommitted chain
// does not already carry.
func TestMempool_GetNextPayload(t *testing.T) {
	mempool, err := inmem.NewMempool(10, 2, nil)
	require.NoError(t, err)
	for _, command := range commands("a", "b", "c", "d") {
		require.NoError(t, mempool.Add(command))
	}

	assert.Equal(t, commands("a", "b"), mempool.GetNextPayload(nil))

	prepared := []*model.PreparedVertex{{Commands: commands("a", "c")}}
	assert.Equal(t, commands("b", "d"), mempool.GetNextPayload(prepared))

	mempool.Remove(commands("a", "b", "x"))
	assert.Equal(t, 2, mempool.Size())
	assert.Equal(t, commands("c", "d"), mempool.GetNextPayload(nil))
}
