package transportcc

// arrival pairs an unwrapped sequence number with its receipt time, kept in
// ascending-key order (spec.md §3, ArrivalMap).
type arrival struct {
	seq       int64
	arrivalMS int64
}

// arrivalMap is an ordered, bounded seq -> arrival_ms store. Entries are kept
// strictly ascending by key in a slice, with an index map from key to slice
// position for lookups. A new largest key is appended; an out-of-order key is
// inserted in sorted position (see insert). Removals only ever take a
// contiguous prefix (spec.md §4.3).
//
// Not safe for concurrent use; the Proxy serializes all access under its own
// lock (spec.md §5).
type arrivalMap struct {
	entries []arrival
	index   map[int64]int
}

func newArrivalMap() *arrivalMap {
	return &arrivalMap{index: make(map[int64]int)}
}

func (m *arrivalMap) len() int {
	return len(m.entries)
}

func (m *arrivalMap) empty() bool {
	return len(m.entries) == 0
}

func (m *arrivalMap) has(seq int64) bool {
	_, ok := m.index[seq]
	return ok
}

func (m *arrivalMap) get(seq int64) (int64, bool) {
	i, ok := m.index[seq]
	if !ok {
		return 0, false
	}
	return m.entries[i].arrivalMS, true
}

func (m *arrivalMap) minKey() (int64, bool) {
	if m.empty() {
		return 0, false
	}
	return m.entries[0].seq, true
}

func (m *arrivalMap) maxKey() (int64, bool) {
	if m.empty() {
		return 0, false
	}
	return m.entries[len(m.entries)-1].seq, true
}

// insert inserts (seq, arrivalMS) in sorted position. Insertion is O(n) for
// out-of-order arrivals, but those are rare reordering stragglers bounded by
// the 2^15 window, not the common case.
func (m *arrivalMap) insert(seq, arrivalMS int64) {
	if m.has(seq) {
		return
	}

	pos := len(m.entries)
	for pos > 0 && m.entries[pos-1].seq > seq {
		pos--
	}

	m.entries = append(m.entries, arrival{})
	copy(m.entries[pos+1:], m.entries[pos:])
	m.entries[pos] = arrival{seq: seq, arrivalMS: arrivalMS}

	for i := pos; i < len(m.entries); i++ {
		m.index[m.entries[i].seq] = i
	}
}

// pruneBefore removes every entry with key < bound and reports whether
// anything was removed.
func (m *arrivalMap) pruneBefore(bound int64) (removed bool) {
	cut := 0
	for cut < len(m.entries) && m.entries[cut].seq < bound {
		delete(m.index, m.entries[cut].seq)
		cut++
	}
	if cut == 0 {
		return false
	}
	m.entries = m.entries[cut:]
	for i, e := range m.entries {
		m.index[e.seq] = i
	}
	return true
}

// pruneAged removes entries from the front while their key is < bound AND
// they are at least minAgeMS old relative to referenceMS (spec.md §4.3 step
// 3's back-window cull). Stops at the first entry that fails either
// condition, since entries are ascending in both key and (almost always)
// arrival time.
func (m *arrivalMap) pruneAged(bound, referenceMS, minAgeMS int64) {
	cut := 0
	for cut < len(m.entries) {
		e := m.entries[cut]
		if e.seq >= bound {
			break
		}
		if referenceMS-e.arrivalMS < minAgeMS {
			break
		}
		delete(m.index, e.seq)
		cut++
	}
	if cut == 0 {
		return
	}
	m.entries = m.entries[cut:]
	for i, e := range m.entries {
		m.index[e.seq] = i
	}
}

// hasAtLeast reports whether any entry has key >= bound.
func (m *arrivalMap) hasAtLeast(bound int64) bool {
	maxKey, ok := m.maxKey()
	return ok && maxKey >= bound
}

// from returns the slice of entries with key >= seq, in ascending order. The
// returned slice aliases the map's storage and must not be retained across a
// mutation.
func (m *arrivalMap) from(seq int64) []arrival {
	lo, hi := 0, len(m.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if m.entries[mid].seq < seq {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return m.entries[lo:]
}

// rangeInclusive returns the slice of entries with lo <= key <= hi.
func (m *arrivalMap) rangeInclusive(lo, hi int64) []arrival {
	entries := m.from(lo)
	end := 0
	for end < len(entries) && entries[end].seq <= hi {
		end++
	}
	return entries[:end]
}
