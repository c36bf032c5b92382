// Package telemetry implements the receiver-side telemetry sink contract
// and a bounded-retry flush wrapper around it.
package telemetry

// Row is one per-packet record handed to a Store, flattened the same way
// the teacher's Conn.ToMap/Conn.GetWarnings reduce a connection's full
// lifecycle into a loggable map, here reduced to one arrival.
type Row struct {
	SSRC        uint32
	Sequence    int64
	ArrivalMS   int64
	PayloadSize int
}

// ToMap flattens the row into a plain map, for callers that want a
// JSON-ready or log-field shape rather than the typed struct.
func (r Row) ToMap() map[string]any {
	return map[string]any{
		"ssrc":        r.SSRC,
		"sequence":    r.Sequence,
		"arrivalMs":   r.ArrivalMS,
		"payloadSize": r.PayloadSize,
	}
}
