package fifoqueue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFifoQueue_Order(t *testing.T) {
	q, err := New[int]()
	require.NoError(t, err)

	_, ok := q.Pop()
	assert.False(t, ok)

	for i := 0; i < 5; i++ {
		require.True(t, q.Push(i))
	}
	head, ok := q.Front()
	require.True(t, ok)
	assert.Equal(t, 0, head)
	assert.Equal(t, 5, q.Len())

	for i := 0; i < 5; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.Zero(t, q.Len())
}

func TestFifoQueue_Capacity(t *testing.T) {
	q, err := New(WithCapacity[string](2))
	require.NoError(t, err)

	assert.True(t, q.Push("a"))
	assert.True(t, q.Push("b"))
	assert.False(t, q.Push("c"))
	assert.Equal(t, 2, q.Len())

	_, _ = q.Pop()
	assert.True(t, q.Push("c"))
}

func TestFifoQueue_LengthObserver(t *testing.T) {
	var lengths []int
	q, err := New(WithLengthObserver[int](func(l int) { lengths = append(lengths, l) }))
	require.NoError(t, err)

	q.Push(1)
	q.Push(2)
	q.Pop()
	q.Pop()
	q.Pop()
	assert.Equal(t, []int{1, 2, 1, 0}, lengths)
}

func TestFifoQueue_InvalidOptions(t *testing.T) {
	_, err := New(WithCapacity[int](0))
	assert.Error(t, err)
	_, err = New(WithLengthObserver[int](nil))
	assert.Error(t, err)
}

func TestFifoQueue_Concurrent(t *testing.T) {
	q, err := New[int]()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(i)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, q.Len())
}
