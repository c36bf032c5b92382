package transportcc

import (
	"github.com/pion/rtp"
)

// Clock is the engine's only source of wall-clock time (spec.md §6,
// "Clock"), consumed so tests can substitute a fake and drive deadlines
// deterministically.
type Clock interface {
	// TimeMS returns the current time in milliseconds, monotonic within one
	// receiver session.
	TimeMS() int64
}

// FeedbackPacket is the external wire encoder contract for one transport
// feedback report (spec.md §6, "Transport feedback packet"). The concrete
// RTCP encoder lives outside this module; FeedbackBuilder only calls this
// narrow interface.
type FeedbackPacket interface {
	SetMediaSSRC(ssrc uint32)
	SetBase(seq uint16, baseTimeUS int64)
	SetFeedbackSequenceNumber(n uint8)
	// AddReceivedPacket appends one (seq, arrival) pair. It returns false
	// when the packet has no remaining capacity; the caller must then stop
	// filling this packet and start a new one (spec.md §4.4).
	AddReceivedPacket(seq uint16, arrivalUS int64) bool
}

// FeedbackSender ships completed packets to the remote sender (spec.md §6,
// "Feedback sender").
type FeedbackSender interface {
	SendTransportFeedback(packet FeedbackPacket)
	SendApplicationPacket(payload []byte)
}

// FeedbackPacketFactory constructs a new, empty FeedbackPacket. The Proxy
// needs this because §4.4/§4.5 may need to open more than one packet per
// call when a single packet runs out of capacity mid-fill.
type FeedbackPacketFactory func() FeedbackPacket

// Predictor is the pluggable bandwidth predictor (spec.md §6, "Predictor").
// This engine never estimates bandwidth itself; it only forwards per-packet
// observations and relays the predictor's own estimate.
type Predictor interface {
	OnReceived(payloadType uint8, seq int64, sendTimeMS int64, ssrc uint32, paddingLen, headerLen int, arrivalMS int64, payloadSize int, lossCount, rtt int32)
	GetBWEEstimate() float32
}

// SaveResult is the outcome of one TelemetryStore.Save call (spec.md §6).
type SaveResult int

const (
	SaveOK SaveResult = iota
	SaveConnectError
	SaveSessionError
	SaveTypeError
	SaveOtherError
)

// TelemetryStore is the external per-packet statistics sink (spec.md §6,
// "Telemetry store").
type TelemetryStore interface {
	Connect(ip string, port int) error
	SetConfig(sessionID, kind string) error
	Collect(row TelemetryRow)
	Save() SaveResult
	Close() error
}

// TelemetryRow is one per-packet record handed to a TelemetryStore (spec.md
// §4.5, "write one per-packet row to the in-memory telemetry buffer").
type TelemetryRow struct {
	SSRC        uint32
	Sequence    int64
	ArrivalMS   int64
	PayloadSize int
}

// FeedbackRequest asks the Proxy to emit an on-request feedback packet
// covering the most recent Count sequence numbers ending at the triggering
// packet (spec.md §4.5, "On-request emission").
type FeedbackRequest struct {
	Count int
}

// Header is the minimal read-only view onto an arriving packet's header this
// engine needs. A *rtp.Header satisfies it through WrapHeader, grounded on
// the GetExtension-based header-extension reads used throughout the pack's
// TWCC and BWE interceptor code.
type Header interface {
	GetSSRC() uint32
	GetPayloadType() uint8
	GetExtension(id uint8) []byte
}

// rtpHeader adapts *rtp.Header to the Header interface.
type rtpHeader struct {
	h *rtp.Header
}

// WrapHeader adapts a pion RTP header to the Header interface this package
// consumes.
func WrapHeader(h *rtp.Header) Header {
	return rtpHeader{h: h}
}

func (r rtpHeader) GetSSRC() uint32          { return r.h.SSRC }
func (r rtpHeader) GetPayloadType() uint8    { return r.h.PayloadType }
func (r rtpHeader) GetExtension(id uint8) []byte { return r.h.GetExtension(id) }
