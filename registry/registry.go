// Package registry implements an insert-only lock-free singly linked
// list used as the hazard-pointer reclaimer's thread registry
// (spec §4.2). Because cells are never removed, there is no ABA hazard
// on the registry itself and Range can walk it without protection.
package registry

import "sync/atomic"

// Cell is a stable cursor into the registry. It is safe to dereference
// for the registry's lifetime.
type Cell[T any] struct {
	next  atomic.Pointer[Cell[T]]
	Value T
}

// List is an append-only lock-free stack of Cell[T], the generic
// counterpart of the teacher's head/node CAS-retry pattern
// (Queues.ConcLinkedQueue).
type List[T any] struct {
	head atomic.Pointer[Cell[T]]
	size atomic.Int64
}

// Insert publishes a new head via CAS, retrying on contention, and
// returns the stable cursor to the inserted cell.
func (l *List[T]) Insert(value T) *Cell[T] {
	c := &Cell[T]{Value: value}
	for {
		old := l.head.Load()
		c.next.Store(old)
		if l.head.CompareAndSwap(old, c) {
			l.size.Add(1)
			return c
		}
	}
}

// Len returns the number of cells ever inserted.
func (l *List[T]) Len() int {
	return int(l.size.Load())
}

// Range iterates the registry from the head, calling f on each cell
// until f returns false. It is not safe to call concurrently with
// itself; the reclaimer invokes it only from within a single thread's
// scan. Concurrent Insert calls are tolerated: new cells appear at the
// head and do not invalidate an in-progress iteration's cursor.
func (l *List[T]) Range(f func(*Cell[T]) bool) {
	for c := l.head.Load(); c != nil; c = c.next.Load() {
		if !f(c) {
			return
		}
	}
}
