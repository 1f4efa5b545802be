// Package hazard implements the hazard-pointer reclamation scheme that
// lets concurrent readers safely dereference nodes that other threads
// are unlinking, without risking use-after-free or ABA (spec §4.3).
//
// It owns the thread registry, a per-thread hazard-slot array, a
// scoped handle type, a safe-load-with-protection primitive, a
// retire-for-deletion operation, and a scan/reclaim pass.
package hazard

import (
	"fmt"
	"sync/atomic"

	"github.com/g-m-twostay/lockfreeset/lferrors"
	"github.com/g-m-twostay/lockfreeset/markedptr"
	"github.com/g-m-twostay/lockfreeset/registry"
)

// ThreadRecord holds one registered thread's hazard slots and local
// retire set. It is inserted once per thread into the controller's
// registry and never removed for the registry's lifetime.
type ThreadRecord[T any] struct {
	id    int64
	owner *Controller[T]
	slots []atomic.Pointer[T]
	// retired tracks membership; retiredOrder keeps insertion order so
	// Scan's pruning is deterministic (Go maps have no stable order),
	// mirroring the teacher's pairing of a bitset with a backing slice
	// for deterministic iteration (Maps/BucketMap).
	retired      map[*T]struct{}
	retiredOrder []*T
}

// ID returns the controller-assigned registration id, not an OS thread
// id — Go goroutines have no stable handle of their own.
func (r *ThreadRecord[T]) ID() int64 { return r.id }

func (r *ThreadRecord[T]) acquireSlot() (*atomic.Pointer[T], error) {
	for i := range r.slots {
		if r.slots[i].Load() == nil {
			return &r.slots[i], nil
		}
	}
	return nil, lferrors.ErrSlotExhausted
}

// Controller owns the thread registry and the reclamation protocol.
// P is the number of hazard slots per thread, N the maximum number of
// threads, and C = 2*P*N the retire-list capacity that triggers a scan.
type Controller[T any] struct {
	p, n, capacity int
	threads        registry.List[*ThreadRecord[T]]
	nextID         atomic.Int64
}

// New builds a Controller sized for p hazard slots per thread and at
// most n concurrently registered threads.
func New[T any](p, n int) *Controller[T] {
	if p <= 0 || n <= 0 {
		panic(fmt.Errorf("hazard: invalid configuration p=%d n=%d", p, n))
	}
	return &Controller[T]{p: p, n: n, capacity: 2 * p * n}
}

// RegisterThread inserts a fresh thread record and returns a handle
// usable only by the calling goroutine. The core keeps no thread-local
// state (spec §9's "avoid thread-local storage" guidance taken
// literally), so double-registration by the same goroutine cannot be
// detected here; callers must register once and thread the returned
// handle explicitly through every subsequent call.
func (c *Controller[T]) RegisterThread() *ThreadRecord[T] {
	rec := &ThreadRecord[T]{
		id:      c.nextID.Add(1),
		owner:   c,
		slots:   make([]atomic.Pointer[T], c.p),
		retired: make(map[*T]struct{}),
	}
	c.threads.Insert(rec)
	return rec
}

// requireOwn panics with lferrors.ErrNotRegistered unless rec was
// issued by this exact controller, catching a handle from a different
// Set/Controller or a zero-value ThreadRecord being threaded through
// by mistake.
func (c *Controller[T]) requireOwn(rec *ThreadRecord[T]) {
	if rec == nil || rec.owner != c {
		panic(lferrors.ErrNotRegistered)
	}
}

// Protect acquires a hazard slot, publishes the observed value of mp,
// then re-reads mp and retries until two successive reads agree.
func (c *Controller[T]) Protect(mp *markedptr.MarkedPointer[T], rec *ThreadRecord[T]) *T {
	c.requireOwn(rec)
	slot, err := rec.acquireSlot()
	if err != nil {
		panic(err)
	}
	for {
		ptr, _ := mp.Load()
		slot.Store(ptr)
		again, _ := mp.Load()
		if again == ptr {
			return ptr
		}
	}
}

// ProtectKnown publishes a caller-supplied pointer into a free slot
// without re-reading an atomic, used when the pointer was obtained from
// a field already guaranteed stable by another hazard.
func (c *Controller[T]) ProtectKnown(ptr *T, rec *ThreadRecord[T]) *T {
	c.requireOwn(rec)
	slot, err := rec.acquireSlot()
	if err != nil {
		panic(err)
	}
	slot.Store(ptr)
	return ptr
}

// Release finds and clears the slot carrying ptr.
func (c *Controller[T]) Release(ptr *T, rec *ThreadRecord[T]) {
	if ptr == nil {
		return
	}
	c.requireOwn(rec)
	for i := range rec.slots {
		if rec.slots[i].Load() == ptr {
			rec.slots[i].Store(nil)
			return
		}
	}
	panic(lferrors.ErrUnknownHazard)
}

// Retire releases ptr's hazard slot then inserts ptr into the thread's
// retire set, running Scan once the set reaches capacity C.
func (c *Controller[T]) Retire(ptr *T, rec *ThreadRecord[T]) {
	c.Release(ptr, rec)
	if _, already := rec.retired[ptr]; !already {
		rec.retired[ptr] = struct{}{}
		rec.retiredOrder = append(rec.retiredOrder, ptr)
	}
	if len(rec.retiredOrder) >= c.capacity {
		c.Scan(rec)
	}
}

// Scan collects the union of every non-null hazard slot across all
// registered threads, then frees (drops the last live reference to)
// every one of the calling thread's retired nodes absent from that
// union. A node is freed only if, at the moment Scan read the union, no
// thread's hazard slot contained it.
func (c *Controller[T]) Scan(rec *ThreadRecord[T]) {
	c.requireOwn(rec)
	hazards := make(map[*T]struct{}, c.p*c.n)
	c.threads.Range(func(cell *registry.Cell[*ThreadRecord[T]]) bool {
		other := cell.Value
		for i := range other.slots {
			if p := other.slots[i].Load(); p != nil {
				hazards[p] = struct{}{}
			}
		}
		return true
	})

	kept := rec.retiredOrder[:0]
	for _, ptr := range rec.retiredOrder {
		if _, hazarded := hazards[ptr]; hazarded {
			kept = append(kept, ptr)
		} else {
			delete(rec.retired, ptr)
		}
	}
	rec.retiredOrder = kept
}

// Guard is the scoped hazard-pointer handle (spec's NodeRef/"scoped
// hazard handle"). It is the only sanctioned way to hold a reference to
// a protected node outside the call that acquired it: every exit path
// must call Release or Retire exactly once. Go cannot forbid copying a
// struct by value the way C++ forbids copy-construction of a move-only
// type, so Release/Retire additionally nil the guard's pointer, making
// a stale copy's methods harmless no-ops instead of a double release.
type Guard[T any] struct {
	ctrl *Controller[T]
	rec  *ThreadRecord[T]
	ptr  *T
}

// ProtectGuard protects mp and wraps the result in a scoped Guard.
func (c *Controller[T]) ProtectGuard(mp *markedptr.MarkedPointer[T], rec *ThreadRecord[T]) *Guard[T] {
	return &Guard[T]{ctrl: c, rec: rec, ptr: c.Protect(mp, rec)}
}

// ProtectKnownGuard wraps a caller-supplied pointer already known to be
// stable into a scoped Guard, without re-reading an atomic.
func (c *Controller[T]) ProtectKnownGuard(ptr *T, rec *ThreadRecord[T]) *Guard[T] {
	return &Guard[T]{ctrl: c, rec: rec, ptr: c.ProtectKnown(ptr, rec)}
}

// Ptr returns the protected pointer, or nil if the guard is empty.
func (g *Guard[T]) Ptr() *T {
	if g == nil {
		return nil
	}
	return g.ptr
}

// Release clears the guard's hazard slot. Safe to call on an
// already-released or empty guard.
func (g *Guard[T]) Release() {
	if g == nil || g.ptr == nil {
		return
	}
	g.ctrl.Release(g.ptr, g.rec)
	g.ptr = nil
}

// Retire releases the guard's hazard slot and retires the node for
// reclamation. Safe to call on an already-released or empty guard.
func (g *Guard[T]) Retire() {
	if g == nil || g.ptr == nil {
		return
	}
	g.ctrl.Retire(g.ptr, g.rec)
	g.ptr = nil
}
