package fifoqueue

import (
	"fmt"
	"math"
	"sync"

	"github.com/ef-ds/deque"
)

// FifoQueue is a concurrency-safe FIFO queue with an optional capacity bound.
// Pushes beyond the capacity are rejected. Every change in length is reported
// to the length observer, which must not block.
type FifoQueue[T any] struct {
	mu             sync.Mutex
	queue          deque.Deque
	maxCapacity    int
	lengthObserver LengthObserver
}

type Option[T any] func(*FifoQueue[T]) error

// LengthObserver is called with the queue length after each Push and Pop.
type LengthObserver func(int)

// WithCapacity bounds the number of elements the queue holds.
func WithCapacity[T any](capacity int) Option[T] {
	return func(q *FifoQueue[T]) error {
		if capacity < 1 {
			return fmt.Errorf("capacity must be positive, got %d", capacity)
		}
		q.maxCapacity = capacity
		return nil
	}
}

func WithLengthObserver[T any](observer LengthObserver) Option[T] {
	return func(q *FifoQueue[T]) error {
		if observer == nil {
			return fmt.Errorf("nil length observer")
		}
		q.lengthObserver = observer
		return nil
	}
}

func New[T any](opts ...Option[T]) (*FifoQueue[T], error) {
	q := &FifoQueue[T]{
		maxCapacity:    math.MaxInt,
		lengthObserver: func(int) {},
	}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, fmt.Errorf("could not apply fifo queue option: %w", err)
		}
	}
	return q, nil
}

// Push appends element to the tail. It returns false if the queue is full.
func (q *FifoQueue[T]) Push(element T) bool {
	q.mu.Lock()
	if q.queue.Len() >= q.maxCapacity {
		q.mu.Unlock()
		return false
	}
	q.queue.PushBack(element)
	length := q.queue.Len()
	q.mu.Unlock()

	q.lengthObserver(length)
	return true
}

// Front returns the head without removing it.
func (q *FifoQueue[T]) Front() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	v, ok := q.queue.Front()
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Pop removes and returns the head.
func (q *FifoQueue[T]) Pop() (T, bool) {
	q.mu.Lock()
	v, ok := q.queue.PopFront()
	length := q.queue.Len()
	q.mu.Unlock()

	if !ok {
		var zero T
		return zero, false
	}
	q.lengthObserver(length)
	return v.(T), true
}

func (q *FifoQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.queue.Len()
}
