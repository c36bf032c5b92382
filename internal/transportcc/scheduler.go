package transportcc

import "math"

// computeSendIntervalMS derives the bitrate-adaptive feedback interval
// (spec.md §4.5, "Adaptive interval"). The configured fraction of the
// reported bitrate is spent on feedback traffic, clamped to the report-rate
// bounds implied by [MinIntervalMS, MaxIntervalMS] and the fixed
// twccReportSize, then converted back to an interval.
func computeSendIntervalMS(bitrateBps float64, cfg Config) int64 {
	minRate := reportSizeBitsPerMS(cfg.MaxIntervalMS)
	maxRate := reportSizeBitsPerMS(cfg.MinIntervalMS)

	targetRate := cfg.BandwidthFraction * bitrateBps
	clamped := clampFloat(targetRate, minRate, maxRate)

	return int64(math.Round(float64(twccReportSize) * 8 * 1000 / clamped))
}

// reportSizeBitsPerMS returns the bit rate (bits/second) a steady stream of
// twccReportSize-byte reports sent once every intervalMS would occupy.
func reportSizeBitsPerMS(intervalMS int64) float64 {
	return float64(twccReportSize) * 8 * 1000 / float64(intervalMS)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
