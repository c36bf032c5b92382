package transportcc

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// Proxy is the engine's entry point: it composes the sequence unwrapper,
// abs-send-time tracker, arrival map, feedback builder and scheduler under a
// single coarse-grained lock (spec.md §4.6, §5). One Proxy corresponds to
// one receiver session / media SSRC group, matching the teacher's
// one-struct-per-connection ownership model generalized from a single TCP
// connection to a single transport-cc stream.
type Proxy struct {
	cfg    Config
	clock  Clock
	sender FeedbackSender
	factory FeedbackPacketFactory

	predictor Predictor
	telemetry TelemetryStore
	logger    logrus.FieldLogger

	mu sync.Mutex

	seqUnwrapper       SequenceUnwrapper
	absSendTime        AbsSendTimeTracker
	arrivals           *arrivalMap
	periodicWindow     *int64
	periodicEnabled    bool
	feedbackCounter    uint8
	mediaSSRC          uint32
	sendIntervalMS     int64
	lastProcessMS      int64
	lastBWESendbackMS  int64
	lastTelemetryMS    int64
	telemetryBuffer    []TelemetryRow
	telemetrySessionID string

	lastFeedbackEntryCount int
	telemetryFailureCount  int

	missingExtWarned atomic.Bool
}

// NewProxy constructs a Proxy with periodic feedback enabled by default and
// the configured default send interval. predictor and telemetry may be nil;
// a nil predictor suppresses BWE sendback (spec.md §7, "Predictor
// initialization failure"), a nil telemetry store suppresses the telemetry
// stream entirely.
func NewProxy(cfg Config, clock Clock, sender FeedbackSender, factory FeedbackPacketFactory, predictor Predictor, telemetry TelemetryStore, logger logrus.FieldLogger) *Proxy {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	sessionID := cfg.TelemetrySessionID
	if sessionID == "" {
		sessionID = xid.New().String()
	}

	return &Proxy{
		cfg:                cfg,
		clock:              clock,
		sender:             sender,
		factory:            factory,
		predictor:          predictor,
		telemetry:          telemetry,
		logger:             logger.WithField("component", "transportcc"),
		arrivals:           newArrivalMap(),
		absSendTime:        newAbsSendTimeTracker(),
		periodicEnabled:    true,
		sendIntervalMS:     cfg.DefaultIntervalMS,
		telemetrySessionID: sessionID,
	}
}

// IncomingPacket is the engine's entry point for arriving media packets
// (spec.md §4.6).
func (p *Proxy) IncomingPacket(arrivalMS int64, payloadSize int, header Header, feedbackReq *FeedbackRequest) {
	ext := header.GetExtension(p.cfg.TransportSequenceExtensionID)
	if len(ext) < 2 {
		if !p.missingExtWarned.Swap(true) {
			p.logger.Warn("packet missing transport sequence number extension, dropping")
		}
		return
	}
	seqWire := binary.BigEndian.Uint16(ext[0:2])

	var absSendTime uint32
	var haveAbsSendTime bool
	if absExt := header.GetExtension(p.cfg.AbsSendTimeExtensionID); len(absExt) >= 3 {
		absSendTime = uint32(absExt[0])<<16 | uint32(absExt[1])<<8 | uint32(absExt[2])
		haveAbsSendTime = true
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.mediaSSRC = header.GetSSRC()

	seq, _ := p.onPacketArrival(seqWire, arrivalMS, feedbackReq)

	sendTimeMS := arrivalMS
	if haveAbsSendTime {
		sendTimeMS = int64(p.absSendTime.Convert(absSendTime))
	}

	now := p.clock.TimeMS()

	if p.predictor != nil {
		p.predictor.OnReceived(header.GetPayloadType(), seq, sendTimeMS, p.mediaSSRC, 0, 0, arrivalMS, payloadSize, -1, -1)
	}

	if p.predictor != nil && now-p.lastBWESendbackMS > p.cfg.BWEFeedbackDurationMS {
		estimate := p.predictor.GetBWEEstimate()
		msg := BweMessage{PacingRate: estimate, PaddingRate: estimate, TargetRate: estimate, TimestampMS: now}
		p.sender.SendApplicationPacket(msg.Encode())
		p.lastBWESendbackMS = now
	}

	if p.telemetry != nil {
		// Every call to arrival gets a row, including duplicates/retransmits
		// and arrival-time-rejected packets (spec.md §4.5: "Every call to
		// arrival: write one per-packet row"), independent of whether seq
		// was actually recorded in the arrival map.
		p.telemetryBuffer = append(p.telemetryBuffer, TelemetryRow{
			SSRC:        p.mediaSSRC,
			Sequence:    seq,
			ArrivalMS:   arrivalMS,
			PayloadSize: payloadSize,
		})
		if now-p.lastTelemetryMS > p.cfg.TelemetryFlushDurationMS {
			p.flushTelemetry()
			p.lastTelemetryMS = now
		}
	}
}

// onPacketArrival implements spec.md §4.3. seq is always the unwrapped
// sequence number (the unwrapper's own state must stay consistent across
// every packet regardless of arrival-time validity); accepted reports
// whether the packet was recorded in the arrival map.
func (p *Proxy) onPacketArrival(seqWire uint16, arrivalMS int64, feedbackReq *FeedbackRequest) (seq int64, accepted bool) {
	seq = p.seqUnwrapper.Unwrap(seqWire)

	if arrivalMS < 0 || arrivalMS > defaultMaxArrivalTimeMS {
		p.logger.WithField("arrival_ms", arrivalMS).Warn("arrival time out of range, dropping")
		return seq, false
	}

	// The back-window cull runs only once no key >= the periodic window start
	// remains (the previous window has drained); this condition is kept
	// exactly as the reference algorithm has it.
	if p.periodicEnabled && p.periodicWindow != nil && !p.arrivals.hasAtLeast(*p.periodicWindow) {
		p.arrivals.pruneAged(seq, arrivalMS, p.cfg.BackWindowMS)
	}

	if p.periodicWindow == nil || seq < *p.periodicWindow {
		w := seq
		p.periodicWindow = &w
	}

	if p.arrivals.has(seq) {
		return seq, false
	}

	p.arrivals.insert(seq, arrivalMS)

	if maxKey, ok := p.arrivals.maxKey(); ok {
		bound := maxKey - maxSequenceSpan
		if removed := p.arrivals.pruneBefore(bound + 1); removed && p.periodicEnabled {
			if newMin, ok := p.arrivals.minKey(); ok {
				w := newMin
				p.periodicWindow = &w
			}
		}
	}

	if feedbackReq != nil {
		p.sendFeedbackOnRequest(seq, *feedbackReq)
	}

	return seq, true
}

// sendFeedbackOnRequest implements spec.md §4.5's on-request emission.
func (p *Proxy) sendFeedbackOnRequest(seq int64, req FeedbackRequest) {
	if req.Count == 0 {
		return
	}

	begin := seq - int64(req.Count) + 1
	entries := p.arrivals.rangeInclusive(begin, seq)

	p.feedbackCounter++
	packet := p.factory()
	fillFeedbackPacket(packet, p.feedbackCounter, p.mediaSSRC, begin, entries)
	p.arrivals.pruneBefore(begin)
	p.lastFeedbackEntryCount = len(entries)

	p.sender.SendTransportFeedback(packet)
}

// sendPeriodicFeedbacks implements spec.md §4.5's periodic emission loop.
// Unlike on-request emission, sent entries are never erased here — they
// stay eligible for re-report until the cull policy removes them.
func (p *Proxy) sendPeriodicFeedbacks() {
	if p.periodicWindow == nil {
		return
	}

	for {
		start := *p.periodicWindow
		entries := p.arrivals.from(start)
		if len(entries) == 0 {
			return
		}

		p.feedbackCounter++
		packet := p.factory()
		next := fillFeedbackPacket(packet, p.feedbackCounter, p.mediaSSRC, start, entries)
		p.lastFeedbackEntryCount = countUpTo(entries, next)
		p.sender.SendTransportFeedback(packet)

		p.periodicWindow = &next
		if next <= start {
			// Builder guarantees progress; this only guards against a
			// misbehaving FeedbackPacket implementation in tests.
			return
		}
	}
}

// countUpTo counts how many leading entries have seq < next.
func countUpTo(entries []arrival, next int64) int {
	n := 0
	for _, e := range entries {
		if e.seq >= next {
			break
		}
		n++
	}
	return n
}

// Process implements the periodic-process contract (spec.md §4.5,
// "Process contract").
func (p *Proxy) Process() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastProcessMS = p.clock.TimeMS()
	p.sendPeriodicFeedbacks()
}

// TimeUntilNextProcess reports how long the caller should wait before the
// next Process call (spec.md §4.5). Returns Never when periodic feedback is
// disabled.
func (p *Proxy) TimeUntilNextProcess() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.periodicEnabled {
		return Never
	}

	remaining := p.lastProcessMS + p.sendIntervalMS - p.clock.TimeMS()
	if remaining < 0 {
		remaining = 0
	}
	return time.Duration(remaining) * time.Millisecond
}

// OnBitrateChanged recomputes the adaptive send interval (spec.md §4.5).
func (p *Proxy) OnBitrateChanged(bitrateBps float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	interval := computeSendIntervalMS(bitrateBps, p.cfg)
	if interval < p.cfg.MinIntervalMS {
		interval = p.cfg.MinIntervalMS
	}
	if interval > p.cfg.MaxIntervalMS {
		interval = p.cfg.MaxIntervalMS
	}
	p.sendIntervalMS = interval
}

// SetSendPeriodicFeedback enables or disables the periodic emission path.
func (p *Proxy) SetSendPeriodicFeedback(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.periodicEnabled = enabled
}

// LatestEstimate returns the predictor's current bandwidth estimate, or 0 if
// no predictor is configured.
func (p *Proxy) LatestEstimate() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.predictor == nil {
		return 0
	}
	return p.predictor.GetBWEEstimate()
}

// flushTelemetry pushes the buffered rows to the telemetry store and saves
// once. Must be called with p.mu held.
//
// The bounded-retry/reconnect/reconfigure policy of spec.md §4.5 is not
// reimplemented here: it lives in telemetry.RetryingStore (§12.3), which a
// caller wraps its concrete Store in before adapting it to TelemetryStore.
// The Proxy only needs to know whether the flush ultimately succeeded, so it
// never grows backend-specific branches on the save-error kind.
func (p *Proxy) flushTelemetry() {
	if len(p.telemetryBuffer) == 0 {
		return
	}

	for _, row := range p.telemetryBuffer {
		p.telemetry.Collect(row)
	}

	if p.telemetry.Save() != SaveOK {
		p.logger.WithField("session_id", p.telemetrySessionID).Warn("telemetry flush failed, dropping buffered rows")
		p.telemetryFailureCount++
	}
	p.telemetryBuffer = p.telemetryBuffer[:0]
}

// ArrivalMapLen reports the number of entries currently held in the arrival
// map, for metrics export (spec.md §12.2).
func (p *Proxy) ArrivalMapLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.arrivals.len()
}

// SendIntervalMS reports the current adaptive send interval, for metrics
// export.
func (p *Proxy) SendIntervalMS() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sendIntervalMS
}

// LastFeedbackEntryCount reports how many entries the most recently emitted
// feedback packet carried, for metrics export.
func (p *Proxy) LastFeedbackEntryCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastFeedbackEntryCount
}

// TelemetryFailureCount reports how many telemetry flushes ended with Save
// returning something other than SaveOK, for metrics export.
func (p *Proxy) TelemetryFailureCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.telemetryFailureCount
}

// Close releases the Proxy's external collaborators (spec.md §3,
// "Lifecycle"). Must not be called concurrently with any other Proxy method.
func (p *Proxy) Close() error {
	if p.telemetry != nil {
		return p.telemetry.Close()
	}
	return nil
}
