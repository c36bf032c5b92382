package telemetry

import "github.com/alphacc/receiver/internal/transportcc"

// SaveResult is an alias of transportcc.SaveResult, so a Store's Save result
// passes through Adapter to transportcc.TelemetryStore without conversion.
type SaveResult = transportcc.SaveResult

const (
	SaveOK           = transportcc.SaveOK
	SaveConnectError = transportcc.SaveConnectError
	SaveSessionError = transportcc.SaveSessionError
	SaveTypeError    = transportcc.SaveTypeError
	SaveOtherError   = transportcc.SaveOtherError
)

// Store is the backend-agnostic telemetry sink contract (spec.md §6,
// "Telemetry store"). No concrete backend ships in this package: no redis
// (or similar) client library appears anywhere in the retrieval pack this
// module was built from, so inventing one here would fabricate a dependency
// instead of grounding it. Callers supply their own Store implementation.
type Store interface {
	Connect(ip string, port int) error
	SetConfig(sessionID, kind string) error
	Collect(row Row)
	Save() SaveResult
	Close() error
}

// Adapter bridges a Store (telemetry.Row) to transportcc.TelemetryStore
// (transportcc.TelemetryRow), letting a caller hand a Store straight to
// transportcc.NewProxy.
type Adapter struct {
	Store Store
}

func (a Adapter) Connect(ip string, port int) error      { return a.Store.Connect(ip, port) }
func (a Adapter) SetConfig(sessionID, kind string) error { return a.Store.SetConfig(sessionID, kind) }
func (a Adapter) Save() transportcc.SaveResult           { return a.Store.Save() }
func (a Adapter) Close() error                           { return a.Store.Close() }

func (a Adapter) Collect(row transportcc.TelemetryRow) {
	a.Store.Collect(Row{
		SSRC:        row.SSRC,
		Sequence:    row.Sequence,
		ArrivalMS:   row.ArrivalMS,
		PayloadSize: row.PayloadSize,
	})
}

// RetryingStore wraps a Store and absorbs connect/session/type errors with a
// bounded retry loop instead of recursion, generalizing the teacher's
// "skip once previously errored" shape in wrap.go's gatherAndReport into an
// explicit retry budget (spec.md §4.5, §7).
type RetryingStore struct {
	Store      Store
	MaxRetries int
	IP         string
	Port       int
	SessionID  string
	Kind       string
}

// Connect, SetConfig, Collect and Close pass straight through to the
// wrapped Store, so RetryingStore is itself a drop-in Store: only Save
// carries retry policy.
func (s RetryingStore) Connect(ip string, port int) error      { return s.Store.Connect(ip, port) }
func (s RetryingStore) SetConfig(sessionID, kind string) error { return s.Store.SetConfig(sessionID, kind) }
func (s RetryingStore) Collect(row Row)                        { s.Store.Collect(row) }
func (s RetryingStore) Close() error                           { return s.Store.Close() }

// Save attempts Store.Save up to MaxRetries times, reconnecting or
// reconfiguring between attempts depending on the failure kind. It never
// recurses; the retry budget is an explicit bounded loop.
func (s RetryingStore) Save() SaveResult {
	var last SaveResult
	for attempt := 0; attempt < s.MaxRetries; attempt++ {
		last = s.Store.Save()
		switch last {
		case SaveOK:
			return SaveOK
		case SaveConnectError:
			_ = s.Store.Connect(s.IP, s.Port)
		case SaveSessionError, SaveTypeError:
			_ = s.Store.SetConfig(s.SessionID, s.Kind)
		default:
			return last
		}
	}
	return last
}
