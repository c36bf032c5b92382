package transportcc

// SequenceUnwrapper lifts a stream of 16-bit wrapping sequence numbers into a
// monotonic int64 space (spec.md §4.1). It is not safe for concurrent use;
// callers (the Proxy) must serialize access.
type SequenceUnwrapper struct {
	last    int64
	started bool
}

// Unwrap returns the 64-bit sequence congruent to seq mod 2^16 that is
// closest to the previously returned value. The first call zero-extends its
// input. Ties (a raw delta of exactly 2^15) resolve to the larger candidate,
// i.e. a backward delta strictly greater than 2^15 is treated as a forward
// wrap.
func (u *SequenceUnwrapper) Unwrap(seq uint16) int64 {
	if !u.started {
		u.started = true
		u.last = int64(seq)
		return u.last
	}

	lastWire := uint16(u.last)
	delta := int32(seq) - int32(lastWire)

	switch {
	case delta > 1<<15:
		delta -= 1 << 16
	case delta <= -(1 << 15):
		delta += 1 << 16
	}

	u.last += int64(delta)
	return u.last
}
