// Package lockfreeset re-exports the public surface of a lock-free
// ordered set of comparable elements: a marked-pointer singly linked
// ordered list, made safe for concurrent traversal and reclamation by
// hazard pointers.
//
// Callers register once per goroutine with RegisterThread and thread
// the returned handle explicitly through every subsequent call — the
// core keeps no thread-local state (see the hazard and orderedset
// packages for why).
package lockfreeset

import (
	"github.com/g-m-twostay/lockfreeset/hazard"
	"github.com/g-m-twostay/lockfreeset/orderedset"
)

// Elements is the element-traits interface a caller supplies for T.
type Elements[T any] = orderedset.Elements[T]

// Node is a set element's backing node, never dereferenced directly —
// access it only through a Guard returned by Insert/Find.
type Node[T any] = orderedset.Node[T]

// Guard is the scoped hazard-pointer handle returned in place of a
// NodeRef: the only sanctioned way to read a node outside the call
// that acquired it.
type Guard[T any] = hazard.Guard[orderedset.Node[T]]

// ThreadHandle is the per-goroutine registration handle threaded
// through every Set operation.
type ThreadHandle[T any] = hazard.ThreadRecord[orderedset.Node[T]]

// Set is a lock-free ordered set of unique, comparable keys.
type Set[T any] = orderedset.Set[T]

// New builds an empty Set bounded by e.Min()/e.Max(), with p hazard
// slots per thread and room for at most n concurrently registered
// threads.
func New[T any](e Elements[T], p, n int) *Set[T] {
	return orderedset.New[T](e, p, n)
}

// View returns a node's key and whether it is logically deleted.
func View[T any](g *Guard[T]) (key T, marked bool) {
	return orderedset.View[T](g)
}
