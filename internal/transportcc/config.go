package transportcc

import "time"

// twccReportSize is the fixed wire size (in bytes) assumed for one transport
// feedback report when computing the bitrate-adaptive send interval. Matches
// the TwccReportSize constant from the reference algorithm (spec.md §4.5).
const twccReportSize = 68

// maxSequenceSpan is the largest span (exclusive) the arrival map may cover,
// matching the wire format's 2^15 sequence-count capacity (spec.md §3, §4.3).
const maxSequenceSpan = 1 << 15

// defaultMaxArrivalTimeMS is the largest arrival_ms value accepted, per
// spec.md §3 ("arrival_ms lies in [0, i64::MAX/1000]").
const defaultMaxArrivalTimeMS = int64(^uint64(0)>>1) / 1000

// Config is an immutable snapshot of the engine's tunables, captured once at
// Proxy construction and never re-read at runtime (spec.md §9, "Global
// config").
type Config struct {
	// DefaultIntervalMS seeds SendIntervalMS before the first bitrate report.
	DefaultIntervalMS int64
	// MinIntervalMS and MaxIntervalMS bound the adaptive send interval.
	MinIntervalMS int64
	MaxIntervalMS int64
	// BandwidthFraction is the share of the reported bitrate this engine is
	// allowed to spend on feedback traffic (default 0.05, spec.md §4.5).
	BandwidthFraction float64
	// BackWindowMS is the minimum age an arrival must reach before it is
	// eligible for culling once its reporting window has closed (spec.md
	// §4.3 step 3).
	BackWindowMS int64
	// BWEFeedbackDurationMS throttles how often a BWE sendback message is
	// shipped (spec.md §4.5, "BWE sendback throttle").
	BWEFeedbackDurationMS int64
	// TelemetryFlushDurationMS throttles how often the buffered telemetry
	// rows are flushed (spec.md §4.5, "Telemetry flush throttle"; named
	// redis_update_duration_ms in spec.md §6).
	TelemetryFlushDurationMS int64
	// TelemetryRetries is the configured telemetry flush retry budget
	// (default 3). The Proxy does not read it: it calls Save once per flush,
	// and any retry loop belongs to the supplied TelemetryStore.
	TelemetryRetries int
	// TelemetrySessionID seeds the telemetry store's session identity
	// (redis_sid in spec.md §6). Left empty, the Proxy mints one with xid.
	TelemetrySessionID string
	// TransportSequenceExtensionID is the RTP header extension ID carrying
	// the transport-wide sequence number.
	TransportSequenceExtensionID uint8
	// AbsSendTimeExtensionID is the RTP header extension ID carrying the
	// 24-bit 6.18 fixed-point absolute send time, or 0 if unused.
	AbsSendTimeExtensionID uint8
}

// DefaultConfig returns a Config with the values spec.md §4.5's scenario 7
// and its surrounding prose use as illustrative defaults.
func DefaultConfig() Config {
	return Config{
		DefaultIntervalMS:            100,
		MinIntervalMS:                50,
		MaxIntervalMS:                250,
		BandwidthFraction:            0.05,
		BackWindowMS:                 500,
		BWEFeedbackDurationMS:        200,
		TelemetryFlushDurationMS:     1000,
		TelemetryRetries:             3,
		TransportSequenceExtensionID: 3,
		AbsSendTimeExtensionID:       1,
	}
}

// Never is returned by TimeUntilNextProcess when periodic feedback is
// disabled (spec.md §9, resolving the "24h sentinel" open question as an
// explicit named constant rather than a magic duration).
const Never = 24 * time.Hour
