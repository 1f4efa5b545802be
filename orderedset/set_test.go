package orderedset

import (
	"math"
	"testing"
)

type intElements struct{}

func (intElements) Min() int            { return math.MinInt }
func (intElements) Max() int            { return math.MaxInt }
func (intElements) Less(a, b int) bool  { return a < b }
func (intElements) Equal(a, b int) bool { return a == b }

func newIntSet() *Set[int] {
	return New[int](intElements{}, 8, 8)
}

// snapshotAll walks the list from head to tail under quiescence,
// returning the key of every live node including the sentinels (spec's
// S2 traversal). Logically deleted nodes that no locate has unlinked
// yet are skipped, since they are no longer members of the set.
func snapshotAll[T any](s *Set[T]) []T {
	var keys []T
	for n := s.head; ; {
		nxt, marked := n.Next.Load()
		if !marked {
			keys = append(keys, n.Key)
		}
		if n == s.tail {
			break
		}
		n = nxt
	}
	return keys
}

// S1: single-thread insert/contains/remove round trip.
func TestS1_InsertContainsRemove(t *testing.T) {
	s := newIntSet()
	rec := s.RegisterThread()

	if g, inserted := s.Insert(5, rec); !inserted || g != nil {
		t.Fatalf("first Insert(5) = (%v, %v), want (nil, true)", g, inserted)
	}
	g, inserted := s.Insert(5, rec)
	if inserted || g == nil {
		t.Fatalf("second Insert(5) = (%v, %v), want (non-nil, false)", g, inserted)
	}
	if key, marked := View(g); key != 5 || marked {
		t.Fatalf("View(existing) = (%v, %v), want (5, false)", key, marked)
	}
	g.Release()

	if !s.Contains(5, rec) {
		t.Fatal("Contains(5) = false, want true")
	}
	if !s.Remove(5, rec) {
		t.Fatal("Remove(5) = false, want true")
	}
	if s.Contains(5, rec) {
		t.Fatal("Contains(5) = true after Remove, want false")
	}
	if s.Remove(5, rec) {
		t.Fatal("Remove(5) = true on absent key, want false")
	}
}

// S2: sortedness under quiescent traversal.
func TestS2_Sortedness(t *testing.T) {
	s := newIntSet()
	rec := s.RegisterThread()
	for _, k := range []int{3, 1, 2} {
		s.Insert(k, rec)
	}
	got := snapshotAll(s)
	want := []int{math.MinInt, 1, 2, 3, math.MaxInt}
	if len(got) != len(want) {
		t.Fatalf("snapshot = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("snapshot = %v, want %v", got, want)
		}
	}
}

// S3: size tracks logical membership after a mixed insert/remove.
func TestS3_SizeAfterMixedOps(t *testing.T) {
	s := newIntSet()
	rec := s.RegisterThread()
	s.Insert(1, rec)
	s.Insert(2, rec)
	s.Remove(1, rec)

	if s.Contains(1, rec) {
		t.Error("Contains(1) = true, want false")
	}
	if !s.Contains(2, rec) {
		t.Error("Contains(2) = false, want true")
	}
	if got := s.Size(); got != 1 {
		t.Errorf("Size() = %d, want 1", got)
	}
}

func TestIdempotentInsert(t *testing.T) {
	s := newIntSet()
	rec := s.RegisterThread()
	s.Insert(7, rec)
	before := snapshotAll(s)
	_, inserted := s.Insert(7, rec)
	after := snapshotAll(s)
	if inserted {
		t.Error("second Insert(7) reported inserted=true")
	}
	if len(before) != len(after) {
		t.Fatalf("snapshot changed after idempotent insert: %v -> %v", before, after)
	}
}

func TestInsertRemoveRoundTrip(t *testing.T) {
	s := newIntSet()
	rec := s.RegisterThread()
	before := snapshotAll(s)

	s.Insert(42, rec)
	removed := s.Remove(42, rec)
	if !removed {
		t.Fatal("Remove(42) = false, want true right after Insert(42)")
	}
	after := snapshotAll(s)
	if len(before) != len(after) {
		t.Fatalf("snapshot after round trip = %v, want %v", after, before)
	}
}

func TestEmptySetLocateReturnsSentinels(t *testing.T) {
	s := newIntSet()
	rec := s.RegisterThread()
	e := s.locate(0, rec)
	defer e.release()
	if e.pred.Ptr() != s.head {
		t.Error("locate on empty set did not return head as pred")
	}
	if e.curr.Ptr() != s.tail {
		t.Error("locate on empty set did not return tail as curr")
	}
}

func TestFindAbsentKeyReturnsNil(t *testing.T) {
	s := newIntSet()
	rec := s.RegisterThread()
	if g := s.Find(99, rec); g != nil {
		t.Fatalf("Find(99) on empty set = %v, want nil", g)
	}
}

func TestRemoveOpportunisticallyUnlinks(t *testing.T) {
	s := newIntSet()
	rec := s.RegisterThread()
	s.Insert(1, rec)
	s.Insert(2, rec)
	s.Insert(3, rec)
	s.Remove(2, rec)

	// A subsequent locate-driven operation that walks past node 2 should
	// physically unlink it.
	s.Contains(3, rec)

	n, _ := s.head.Next.Load()
	for n != s.tail {
		if n.Key == 2 {
			t.Fatal("marked node for key 2 was not physically unlinked")
		}
		n, _ = n.Next.Load()
	}
}
