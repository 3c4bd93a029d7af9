// Package broadcast provides a latest-value broadcast cell: one current
// value, synchronous fan-out on every Set, and replay of the stored value to
// late subscribers.
package broadcast

import "sync"

// Cell holds the latest value of type T and a registry of subscribers.
// Set stores the value and notifies every subscriber before returning;
// Subscribe immediately delivers the stored value to the new subscriber.
// Only the single latest value is retained, never history.
//
// Callbacks run while the cell's lock is held, which is what guarantees
// subscribers observe updates in Set order. They must return promptly and
// must not call back into the cell.
type Cell[T any] struct {
	mu   sync.Mutex
	val  T
	next int
	subs map[int]func(T)
}

func NewCell[T any]() *Cell[T] {
	return &Cell[T]{subs: make(map[int]func(T))}
}

// Set stores v and notifies all current subscribers.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.val = v
	for _, fn := range c.subs {
		fn(v)
	}
}

// Reset stores the zero value and notifies all current subscribers. Calling
// Reset on an already-reset cell still notifies; callers that need strict
// idempotence filter on the value itself.
func (c *Cell[T]) Reset() {
	var zero T
	c.Set(zero)
}

// Get returns the latest stored value (the zero value if nothing was set).
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.val
}

// Subscribe registers fn, immediately delivers the latest value to it, and
// returns a cancel func that removes the subscription. Cancel is idempotent.
func (c *Cell[T]) Subscribe(fn func(T)) (cancel func()) {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	fn(c.val)
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}
