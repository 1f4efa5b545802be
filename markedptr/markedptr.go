// Package markedptr implements an atomic pointer that bundles a node
// address with one boolean mark bit, as used by the ordered set's
// logical-deletion protocol (spec §4.1).
//
// The pair is kept as a heap-allocated box behind a single
// atomic.Pointer rather than packed into the address's low bit: Go's
// garbage collector only traces real typed pointers, and tagging a
// bit into an address would leave every node beyond the box itself
// reachable only through a bare uintptr, indistinguishable from
// garbage as soon as nothing else is holding it. Boxing keeps every
// link in the chain a genuine, GC-traced *Node[T] at every hop.
package markedptr

import "sync/atomic"

// state is the boxed (ptr, mark) pair a MarkedPointer currently holds.
// It is replaced, never mutated, on every Store/CompareAndSwap.
type state[T any] struct {
	ptr  *T
	mark bool
}

// MarkedPointer is an atomic (ptr, mark) pair, the generic counterpart
// of the teacher's AtomicUint/AtomicInt wrappers.
type MarkedPointer[T any] struct {
	box atomic.Pointer[state[T]]
}

// New builds a MarkedPointer initialized to (ptr, false).
func New[T any](ptr *T) *MarkedPointer[T] {
	m := &MarkedPointer[T]{}
	m.Store(ptr, false)
	return m
}

// Load atomically reads both halves.
func (m *MarkedPointer[T]) Load() (ptr *T, mark bool) {
	s := m.box.Load()
	if s == nil {
		return nil, false
	}
	return s.ptr, s.mark
}

// Store atomically and unconditionally writes both halves.
func (m *MarkedPointer[T]) Store(ptr *T, mark bool) {
	m.box.Store(&state[T]{ptr: ptr, mark: mark})
}

// CompareAndSwap succeeds only if both halves match the expected
// values, retrying internally while the underlying box is replaced by
// a value that is still logically (oldPtr, oldMark) — the replacement
// only matters to the caller when the logical pair actually differs.
func (m *MarkedPointer[T]) CompareAndSwap(oldPtr *T, oldMark bool, newPtr *T, newMark bool) bool {
	for {
		cur := m.box.Load()
		var curPtr *T
		var curMark bool
		if cur != nil {
			curPtr, curMark = cur.ptr, cur.mark
		}
		if curPtr != oldPtr || curMark != oldMark {
			return false
		}
		if m.box.CompareAndSwap(cur, &state[T]{ptr: newPtr, mark: newMark}) {
			return true
		}
	}
}

// TryMark is shorthand CAS from (ptr, false) to (ptr, true).
func (m *MarkedPointer[T]) TryMark(ptr *T) bool {
	return m.CompareAndSwap(ptr, false, ptr, true)
}
