package transportcc

import (
	"encoding/binary"
	"math"
)

// bweMessageSize is the encoded size, in bytes, of a BweMessage: three
// float32 fields and one int64 field.
const bweMessageSize = 4 + 4 + 4 + 8

// BweMessage is the payload of the BWE sendback application packet (spec.md
// §6, "Application packet (BWE sendback)"). Encoded little-endian, fixing
// the open question spec.md §13 leaves unspecified in the original.
type BweMessage struct {
	PacingRate  float32
	PaddingRate float32
	TargetRate  float32
	TimestampMS int64
}

// Encode serializes the message to its wire layout.
func (m BweMessage) Encode() []byte {
	buf := make([]byte, bweMessageSize)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(m.PacingRate))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(m.PaddingRate))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(m.TargetRate))
	binary.LittleEndian.PutUint64(buf[12:20], uint64(m.TimestampMS))
	return buf
}

// DecodeBweMessage parses the wire layout Encode produces. It is provided
// for test fakes and for any receiver-side consumer of the application
// packet, per spec.md §13.
func DecodeBweMessage(buf []byte) (BweMessage, bool) {
	if len(buf) < bweMessageSize {
		return BweMessage{}, false
	}
	return BweMessage{
		PacingRate:  math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])),
		PaddingRate: math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])),
		TargetRate:  math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])),
		TimestampMS: int64(binary.LittleEndian.Uint64(buf[12:20])),
	}, true
}
