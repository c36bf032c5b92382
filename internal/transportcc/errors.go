package transportcc

import "errors"

// errFirstEntryRejected marks the fatal precondition violation in spec.md
// §4.4: "If appending fails on the first element, it is a programmer error
// (fatal)." The builder's first AddReceivedPacket call is expected to always
// succeed against a freshly constructed packet; if it doesn't, the caller
// supplied an already-full or misconfigured FeedbackPacket.
var errFirstEntryRejected = errors.New("transportcc: feedback packet rejected its first entry")
