// Package tlset is a thin, ergonomic wrapper around orderedset.Set that
// hides the explicit per-goroutine thread handle behind an
// automatically managed registration, for callers that want a
// zero-argument Set-like API and are willing to trade the core's
// embeddability for convenience. It implements the teacher repo's own
// Set[E] interface (Sets/Sets.go), gated behind thread-local-like
// bookkeeping exactly as spec §9's Design Notes suggest: "If
// thread-local storage is preferred ergonomically, gate it behind a
// thin wrapper that preserves the explicit-handle core."
package tlset

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"

	"github.com/g-m-twostay/lockfreeset/hazard"
	"github.com/g-m-twostay/lockfreeset/orderedset"
)

// Set adapts orderedset.Set[T] to a goroutine-transparent API: Put,
// Has, Remove, Size — the membership-mutating subset of the teacher's
// Sets.Set[E] interface. Take and Range are intentionally not
// implemented here: both are bulk/range operations, and spec §1's
// Non-goals exclude "range queries" and "bulk operations" from the
// core regardless of how ergonomic a wrapper around it is.
type Set[T any] struct {
	inner   *orderedset.Set[T]
	handles sync.Map // goroutine id (int64) -> *hazard.ThreadRecord[orderedset.Node[T]]
}

// New builds a Set bounded by e.Min()/e.Max(). n bounds how many
// distinct goroutines may ever call into this wrapper over its
// lifetime, since the underlying registry never releases a handle once
// assigned to a goroutine id (spec §3: thread records live as long as
// the reclaimer).
func New[T any](e orderedset.Elements[T], p, n int) *Set[T] {
	return &Set[T]{inner: orderedset.New[T](e, p, n)}
}

// goroutineID extracts the runtime-assigned goroutine id by parsing the
// header line of a single-goroutine stack trace. Go exposes no public
// goroutine-local storage; this is the standard stdlib-only way to
// approximate it without depending on runtime internals via linkname.
func goroutineID() int64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]
	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	if i := bytes.IndexByte(buf, ' '); i >= 0 {
		buf = buf[:i]
	}
	id, _ := strconv.ParseInt(string(buf), 10, 64)
	return id
}

func (s *Set[T]) handle() *hazard.ThreadRecord[orderedset.Node[T]] {
	gid := goroutineID()
	if v, ok := s.handles.Load(gid); ok {
		return v.(*hazard.ThreadRecord[orderedset.Node[T]])
	}
	rec := s.inner.RegisterThread()
	actual, _ := s.handles.LoadOrStore(gid, rec)
	return actual.(*hazard.ThreadRecord[orderedset.Node[T]])
}

// Put inserts e. Returns true if e was freshly added, false if it was
// already present.
func (s *Set[T]) Put(e T) bool {
	existing, inserted := s.inner.Insert(e, s.handle())
	existing.Release()
	return inserted
}

// Has reports whether e is present in the set.
func (s *Set[T]) Has(e T) bool {
	return s.inner.Contains(e, s.handle())
}

// Remove deletes e from the set. Returns true if the removal succeeded.
func (s *Set[T]) Remove(e T) bool {
	return s.inner.Remove(e, s.handle())
}

// Size returns an approximate cardinality.
func (s *Set[T]) Size() uint {
	return uint(s.inner.Size())
}
