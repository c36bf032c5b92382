package transportcc

import "math"

// absSendTimeFraction is 2^18, the number of fixed-point fractional ticks per
// second in the 24-bit 6.18 format (6 integer bits, 18 fractional bits).
const absSendTimeFraction = 1 << 18

// absSendTimeCycleSeconds is the span, in seconds, that a full cycle of the
// 24-bit field covers (2^6 = 64s, per the 6-bit integer part).
const absSendTimeCycleSeconds = 64.0

// AbsSendTimeTracker converts the 24-bit 6.18 fixed-point absolute send time
// extension into a monotonically-extending millisecond timestamp by tracking
// how many times the 24-bit field has wrapped (spec.md §4.2). Not safe for
// concurrent use.
type AbsSendTimeTracker struct {
	cycles         int32
	maxAbsSendTime uint32
	started        bool
}

// newAbsSendTimeTracker returns a tracker in its uninitialized state (cycles
// == -1, per spec.md §3's AbsSendTimeState invariant).
func newAbsSendTimeTracker() AbsSendTimeTracker {
	return AbsSendTimeTracker{cycles: -1}
}

// Convert feeds one 24-bit abs-send-time value through the tracker and
// returns the corresponding millisecond count.
func (t *AbsSendTimeTracker) Convert(absSendTime uint32) uint32 {
	if !t.started {
		t.started = true
		t.cycles = 0
		t.maxAbsSendTime = absSendTime
		return absSendTimeToMS(absSendTime, 0)
	}

	delta := int32(absSendTime<<8) - int32(t.maxAbsSendTime<<8)
	if delta >= 0 {
		if absSendTime < t.maxAbsSendTime {
			t.cycles++
		}
		t.maxAbsSendTime = absSendTime
	}
	// delta < 0: out-of-order send time, state left unchanged.

	return absSendTimeToMS(absSendTime, t.cycles)
}

func absSendTimeToMS(absSendTime uint32, cycles int32) uint32 {
	seconds := float64(absSendTime)/absSendTimeFraction + absSendTimeCycleSeconds*float64(cycles)
	return uint32(math.Round(seconds * 1000))
}
