package window

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gammazero/deque"
)

// ErrInvalidConfiguration is returned for a non-positive capacity or a seed
// whose length does not match the capacity.
var ErrInvalidConfiguration = errors.New("window: invalid configuration")

// Buffer is a fixed-capacity FIFO window. Once seeded it always holds exactly
// Cap() items and every Push evicts the oldest one.
type Buffer[T any] struct {
	mu  sync.RWMutex
	q   *deque.Deque[T]
	cap int
}

// New creates an empty window holding at most capacity items.
func New[T any](capacity int) (*Buffer[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be > 0, got %d", ErrInvalidConfiguration, capacity)
	}
	q := new(deque.Deque[T])
	q.SetBaseCap(capacity + 1)
	return &Buffer[T]{q: q, cap: capacity}, nil
}

// Seed replaces the contents. len(items) must equal the capacity.
func (b *Buffer[T]) Seed(items []T) error {
	if len(items) != b.cap {
		return fmt.Errorf("%w: seed length %d != capacity %d", ErrInvalidConfiguration, len(items), b.cap)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.q.Clear()
	for _, it := range items {
		b.q.PushBack(it)
	}
	return nil
}

// Push appends item and evicts the oldest one when over capacity.
// The evicted item is returned with ok=true.
func (b *Buffer[T]) Push(item T) (evicted T, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.q.PushBack(item)
	if b.q.Len() > b.cap {
		return b.q.PopFront(), true
	}
	return evicted, false
}

// Window returns a copy of the contents, oldest first.
func (b *Buffer[T]) Window() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]T, b.q.Len())
	for i := range out {
		out[i] = b.q.At(i)
	}
	return out
}

// Last returns up to n newest items, oldest first.
func (b *Buffer[T]) Last(n int) []T {
	b.mu.RLock()
	defer b.mu.RUnlock()
	l := b.q.Len()
	if n > l {
		n = l
	}
	if n <= 0 {
		return []T{}
	}
	out := make([]T, n)
	for i := range out {
		out[i] = b.q.At(l - n + i)
	}
	return out
}

// Newest returns the most recent item.
func (b *Buffer[T]) Newest() (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var zero T
	if b.q.Len() == 0 {
		return zero, false
	}
	return b.q.Back(), true
}

func (b *Buffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.q.Len()
}

func (b *Buffer[T]) Cap() int { return b.cap }
