// Package orderedset implements the sentinel-bounded sorted singly
// linked list of unique keys that is the core of this repository
// (spec §4.4): insert, remove (logical mark + physical unlink),
// find/contains, and an approximate size counter, built on markedptr
// for the links and hazard for safe traversal and retirement.
package orderedset

import (
	"sync/atomic"

	"github.com/g-m-twostay/lockfreeset/hazard"
	"github.com/g-m-twostay/lockfreeset/markedptr"
)

// Elements is the element-traits interface a caller supplies for T:
// two sentinel values and the ordering/equality relations (spec §3,
// "Element domain T").
type Elements[T any] interface {
	Min() T
	Max() T
	Less(a, b T) bool
	Equal(a, b T) bool
}

// Node is a list cell. Key is immutable once constructed; Next is
// modified only through atomic CAS or try-mark.
type Node[T any] struct {
	Key  T
	Next markedptr.MarkedPointer[Node[T]]
}

// Set is a lock-free ordered set of unique, comparable keys.
type Set[T any] struct {
	elems Elements[T]
	head  *Node[T]
	tail  *Node[T]
	size  atomic.Int64
	hz    *hazard.Controller[Node[T]]
}

// New builds an empty Set bounded by Min()/Max() from e, with p hazard
// slots per thread and room for at most n concurrently registered
// threads.
func New[T any](e Elements[T], p, n int) *Set[T] {
	tail := &Node[T]{Key: e.Max()}
	head := &Node[T]{Key: e.Min()}
	head.Next.Store(tail, false)
	return &Set[T]{
		elems: e,
		head:  head,
		tail:  tail,
		hz:    hazard.New[Node[T]](p, n),
	}
}

// RegisterThread registers the calling goroutine and returns a handle
// that must be passed to every subsequent operation it performs on
// this set.
func (s *Set[T]) RegisterThread() *hazard.ThreadRecord[Node[T]] {
	return s.hz.RegisterThread()
}

// Size returns an approximate cardinality, allowed to transiently
// over- or under-count during concurrent operations; it converges to
// the exact count under quiescence.
func (s *Set[T]) Size() int {
	return int(s.size.Load())
}

// edge is the (pred, curr) pair returned by locate: two scoped hazards
// such that pred.Key < key <= curr.Key and, at the linearization point
// of the call, pred.Next == (curr, false).
type edge[T any] struct {
	pred, curr *hazard.Guard[Node[T]]
}

func (e *edge[T]) release() {
	e.pred.Release()
	e.curr.Release()
}

// locate implements spec §4.4's Locate algorithm: walk from head,
// opportunistically physically unlinking any logically marked node it
// passes over, restarting from head whenever that unlink CAS loses a
// race with another thread. first is always unmarked by the time it is
// used as a CAS predecessor: it only ever becomes first after being
// confirmed unmarked as second in the prior iteration.
func (s *Set[T]) locate(key T, rec *hazard.ThreadRecord[Node[T]]) edge[T] {
	for {
		first := s.hz.ProtectKnownGuard(s.head, rec)
		second := s.hz.ProtectGuard(&first.Ptr().Next, rec)
		bad := false
		for {
			curr := second.Ptr()
			nextPtr, nextMark := curr.Next.Load()
			if nextMark {
				if !first.Ptr().Next.CompareAndSwap(curr, false, nextPtr, false) {
					bad = true
					break
				}
				second.Retire()
				second = s.hz.ProtectGuard(&first.Ptr().Next, rec)
				continue
			}
			if s.elems.Less(curr.Key, key) {
				first.Release()
				first = second
				second = s.hz.ProtectGuard(&first.Ptr().Next, rec)
				continue
			}
			break
		}
		if bad {
			first.Release()
			second.Release()
			continue
		}
		return edge[T]{pred: first, curr: second}
	}
}

// Insert adds key to the set. If key is already present and unmarked,
// Insert returns a handle to the existing node and inserted=false; no
// new node is created. Otherwise a new node is linked in and
// inserted=true.
func (s *Set[T]) Insert(key T, rec *hazard.ThreadRecord[Node[T]]) (existing *hazard.Guard[Node[T]], inserted bool) {
	n := &Node[T]{Key: key}
	for {
		e := s.locate(key, rec)
		curr := e.curr.Ptr()
		if s.elems.Equal(curr.Key, key) {
			if _, marked := curr.Next.Load(); !marked {
				e.pred.Release()
				return e.curr, false
			}
		}
		n.Next.Store(curr, false)
		if e.pred.Ptr().Next.CompareAndSwap(curr, false, n, false) {
			e.release()
			s.size.Add(1)
			return nil, true
		}
		e.release()
	}
}

// Remove logically deletes key by marking its node's Next pointer.
// Physical unlinking is opportunistic, performed by a later locate.
// Returns false if key is absent or already marked.
func (s *Set[T]) Remove(key T, rec *hazard.ThreadRecord[Node[T]]) bool {
	for {
		e := s.locate(key, rec)
		curr := e.curr.Ptr()
		if !s.elems.Equal(curr.Key, key) {
			e.release()
			return false
		}
		nextPtr, marked := curr.Next.Load()
		if marked {
			e.release()
			return false
		}
		if curr.Next.TryMark(nextPtr) {
			e.release()
			s.size.Add(-1)
			return true
		}
		e.release()
	}
}

// Find returns a scoped handle to key's node if it is present and
// unmarked, or nil otherwise.
func (s *Set[T]) Find(key T, rec *hazard.ThreadRecord[Node[T]]) *hazard.Guard[Node[T]] {
	e := s.locate(key, rec)
	curr := e.curr.Ptr()
	if s.elems.Equal(curr.Key, key) {
		if _, marked := curr.Next.Load(); !marked {
			e.pred.Release()
			return e.curr
		}
	}
	e.release()
	return nil
}

// Contains reports whether key is present and unmarked.
func (s *Set[T]) Contains(key T, rec *hazard.ThreadRecord[Node[T]]) bool {
	g := s.Find(key, rec)
	if g == nil {
		return false
	}
	g.Release()
	return true
}

// View returns a node's key and whether it is logically deleted, the
// read-only view spec §6 requires NodeRef to offer.
func View[T any](g *hazard.Guard[Node[T]]) (key T, marked bool) {
	n := g.Ptr()
	_, marked = n.Next.Load()
	return n.Key, marked
}

// Close releases the sentinel nodes. It requires all handles returned
// by RegisterThread to be out of scope and no concurrent callers, the
// same quiescence requirement spec §3 places on destroying the thread
// registry.
func (s *Set[T]) Close() {
	s.head = nil
	s.tail = nil
}
