package transportcc

// fillFeedbackPacket packs entries (in ascending order) into packet,
// starting at baseSeq, per spec.md §4.4.
//
// It returns the next sequence number that did not fit (i.e. the new
// periodic-window start), or the last entry's sequence number plus one if
// every entry fit. It
// panics if the very first entry is rejected, which spec.md §4.4 calls a
// programmer-error precondition violation rather than a recoverable
// condition.
func fillFeedbackPacket(packet FeedbackPacket, feedbackCount uint8, mediaSSRC uint32, baseSeq int64, entries []arrival) int64 {
	if len(entries) == 0 {
		return baseSeq
	}

	packet.SetMediaSSRC(mediaSSRC)
	packet.SetBase(uint16(baseSeq), entries[0].arrivalMS*1000)
	packet.SetFeedbackSequenceNumber(feedbackCount)

	for i, e := range entries {
		if !packet.AddReceivedPacket(uint16(e.seq), e.arrivalMS*1000) {
			if i == 0 {
				panic(errFirstEntryRejected)
			}
			return e.seq
		}
	}

	return entries[len(entries)-1].seq + 1
}
