package transportcc

import (
	"testing"

	"github.com/pion/rtcp"
)

// fakeFeedbackPacket is a capacity-bounded stand-in for the real wire
// encoder, enough to exercise fillFeedbackPacket's capacity-exhaustion
// branch. It fills a real rtcp.TransportLayerCC alongside its own plain
// fields so assertions stay simple while the capacity/field semantics it
// exercises are the real wire type's, not an invented shape.
type fakeFeedbackPacket struct {
	capacity int
	ssrc     uint32
	baseSeq  uint16
	baseTime int64
	fbNum    uint8
	received []uint16

	wire rtcp.TransportLayerCC
}

func (p *fakeFeedbackPacket) SetMediaSSRC(ssrc uint32) {
	p.ssrc = ssrc
	p.wire.MediaSSRC = ssrc
}

func (p *fakeFeedbackPacket) SetBase(seq uint16, baseTimeUS int64) {
	p.baseSeq = seq
	p.baseTime = baseTimeUS
	p.wire.Header = rtcp.Header{Count: rtcp.FormatTCC, Type: rtcp.TypeTransportSpecificFeedback}
	p.wire.BaseSequenceNumber = seq
	p.wire.ReferenceTime = uint32(baseTimeUS / 64000) // 64ms ticks, the real wire's reference-time unit
}

func (p *fakeFeedbackPacket) SetFeedbackSequenceNumber(n uint8) {
	p.fbNum = n
	p.wire.FbPktCount = n
}

func (p *fakeFeedbackPacket) AddReceivedPacket(seq uint16, arrivalUS int64) bool {
	if len(p.wire.RecvDeltas) >= p.capacity {
		return false
	}
	p.received = append(p.received, seq)
	p.wire.RecvDeltas = append(p.wire.RecvDeltas, &rtcp.RecvDelta{
		Type:  rtcp.TypeTCCPacketReceivedSmallDelta,
		Delta: arrivalUS - p.baseTime, // RecvDelta.Delta is in microseconds
	})
	p.wire.PacketStatusCount = uint16(len(p.wire.RecvDeltas))
	return true
}

func TestFillFeedbackPacketEmptyEntries(t *testing.T) {
	pkt := &fakeFeedbackPacket{capacity: 10}
	next := fillFeedbackPacket(pkt, 1, 42, 100, nil)
	if next != 100 {
		t.Fatalf("next = %d, want 100 (unchanged)", next)
	}
	if pkt.ssrc != 0 {
		t.Fatalf("packet should not have been touched")
	}
}

func TestFillFeedbackPacketAllFit(t *testing.T) {
	pkt := &fakeFeedbackPacket{capacity: 10}
	entries := []arrival{{seq: 100, arrivalMS: 5}, {seq: 101, arrivalMS: 6}, {seq: 102, arrivalMS: 7}}

	next := fillFeedbackPacket(pkt, 3, 42, 100, entries)

	if pkt.ssrc != 42 {
		t.Fatalf("ssrc = %d, want 42", pkt.ssrc)
	}
	if pkt.baseSeq != 100 || pkt.baseTime != 5000 {
		t.Fatalf("base = (%d, %d), want (100, 5000)", pkt.baseSeq, pkt.baseTime)
	}
	if pkt.fbNum != 3 {
		t.Fatalf("fbNum = %d, want 3", pkt.fbNum)
	}
	if len(pkt.received) != 3 {
		t.Fatalf("received = %v, want 3 entries", pkt.received)
	}
	if next != 103 {
		t.Fatalf("next = %d, want 103", next)
	}
}

func TestFillFeedbackPacketCapacityExhausted(t *testing.T) {
	pkt := &fakeFeedbackPacket{capacity: 2}
	entries := []arrival{{seq: 100, arrivalMS: 5}, {seq: 101, arrivalMS: 6}, {seq: 102, arrivalMS: 7}}

	next := fillFeedbackPacket(pkt, 1, 42, 100, entries)

	if len(pkt.received) != 2 {
		t.Fatalf("received = %v, want 2 entries before capacity ran out", pkt.received)
	}
	if next != 102 {
		t.Fatalf("next = %d, want 102 (first entry that didn't fit)", next)
	}
}

func TestFillFeedbackPacketFirstEntryRejectedPanics(t *testing.T) {
	pkt := &fakeFeedbackPacket{capacity: 0}
	entries := []arrival{{seq: 100, arrivalMS: 5}}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic when the first entry is rejected")
		}
	}()

	fillFeedbackPacket(pkt, 1, 42, 100, entries)
}

func TestFillFeedbackPacketProducesMarshalableRTCP(t *testing.T) {
	pkt := &fakeFeedbackPacket{capacity: 10}
	entries := []arrival{{seq: 100, arrivalMS: 5}, {seq: 101, arrivalMS: 6}}

	fillFeedbackPacket(pkt, 7, 42, 100, entries)

	raw, err := pkt.wire.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded rtcp.TransportLayerCC
	if err := decoded.Unmarshal(raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.MediaSSRC != 42 || decoded.BaseSequenceNumber != 100 || decoded.FbPktCount != 7 {
		t.Fatalf("decoded = %+v, want ssrc=42 base=100 fbNum=7", decoded)
	}
	if len(decoded.RecvDeltas) != 2 {
		t.Fatalf("decoded RecvDeltas = %v, want 2 entries", decoded.RecvDeltas)
	}
}
