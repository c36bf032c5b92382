package transportcc

import "testing"

func TestArrivalMapInsertAndGet(t *testing.T) {
	m := newArrivalMap()
	m.insert(5, 100)
	m.insert(3, 90)
	m.insert(7, 110)

	if m.len() != 3 {
		t.Fatalf("len = %d, want 3", m.len())
	}
	if min, _ := m.minKey(); min != 3 {
		t.Fatalf("minKey = %d, want 3", min)
	}
	if max, _ := m.maxKey(); max != 7 {
		t.Fatalf("maxKey = %d, want 7", max)
	}
	if v, ok := m.get(5); !ok || v != 100 {
		t.Fatalf("get(5) = (%d, %v), want (100, true)", v, ok)
	}
}

func TestArrivalMapInsertDuplicateIgnored(t *testing.T) {
	m := newArrivalMap()
	m.insert(5, 100)
	m.insert(5, 200)

	if v, _ := m.get(5); v != 100 {
		t.Fatalf("get(5) = %d, want 100 (first write wins)", v)
	}
	if m.len() != 1 {
		t.Fatalf("len = %d, want 1", m.len())
	}
}

func TestArrivalMapPruneBefore(t *testing.T) {
	m := newArrivalMap()
	for i := int64(0); i < 5; i++ {
		m.insert(i, i*10)
	}

	if removed := m.pruneBefore(3); !removed {
		t.Fatalf("pruneBefore should have removed entries")
	}
	if min, _ := m.minKey(); min != 3 {
		t.Fatalf("minKey after prune = %d, want 3", min)
	}
	if m.has(0) || m.has(1) || m.has(2) {
		t.Fatalf("pruned keys still present")
	}
}

func TestArrivalMapPruneAgedStopsAtFirstFailure(t *testing.T) {
	m := newArrivalMap()
	m.insert(1, 0)
	m.insert(2, 100)
	m.insert(3, 490)

	// bound=3 (would cull 1 and 2 by key), minAgeMS=500, referenceMS=500.
	// Entry 1 is old enough (500-0=500 >= 500) but entry 2 is not
	// (500-100=400 < 500), so pruning stops after entry 1.
	m.pruneAged(3, 500, 500)

	if m.has(1) {
		t.Fatalf("entry 1 should have been pruned")
	}
	if !m.has(2) {
		t.Fatalf("entry 2 should have survived (too young)")
	}
	if !m.has(3) {
		t.Fatalf("entry 3 should have survived (key >= bound)")
	}
}

func TestArrivalMapFromAndRangeInclusive(t *testing.T) {
	m := newArrivalMap()
	for i := int64(10); i < 20; i++ {
		m.insert(i, i)
	}

	from := m.from(15)
	if len(from) != 5 || from[0].seq != 15 {
		t.Fatalf("from(15) = %v, want 5 entries starting at 15", from)
	}

	rng := m.rangeInclusive(12, 14)
	if len(rng) != 3 || rng[0].seq != 12 || rng[len(rng)-1].seq != 14 {
		t.Fatalf("rangeInclusive(12,14) = %v, want [12,13,14]", rng)
	}
}

func TestArrivalMapHasAtLeast(t *testing.T) {
	m := newArrivalMap()
	if m.hasAtLeast(0) {
		t.Fatalf("empty map should never have any key")
	}
	m.insert(5, 1)
	if !m.hasAtLeast(5) || m.hasAtLeast(6) {
		t.Fatalf("hasAtLeast boundary check failed")
	}
}
