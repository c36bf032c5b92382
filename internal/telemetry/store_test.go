package telemetry

import (
	"testing"

	"github.com/alphacc/receiver/internal/transportcc"
)

type fakeStore struct {
	rows       []Row
	results    []SaveResult
	saveCalls  int
	connectErr error
	connectN   int
	configN    int
}

func (f *fakeStore) Connect(ip string, port int) error {
	f.connectN++
	return f.connectErr
}

func (f *fakeStore) SetConfig(sessionID, kind string) error {
	f.configN++
	return nil
}

func (f *fakeStore) Collect(row Row) { f.rows = append(f.rows, row) }

func (f *fakeStore) Save() SaveResult {
	r := f.results[f.saveCalls]
	f.saveCalls++
	return r
}

func (f *fakeStore) Close() error { return nil }

func TestRetryingStoreSucceedsOnFirstTry(t *testing.T) {
	fs := &fakeStore{results: []SaveResult{SaveOK}}
	rs := RetryingStore{Store: fs, MaxRetries: 3}

	if got := rs.Save(); got != SaveOK {
		t.Fatalf("Save = %v, want SaveOK", got)
	}
	if fs.saveCalls != 1 {
		t.Fatalf("saveCalls = %d, want 1", fs.saveCalls)
	}
}

func TestRetryingStoreReconnectsOnConnectError(t *testing.T) {
	fs := &fakeStore{results: []SaveResult{SaveConnectError, SaveOK}}
	rs := RetryingStore{Store: fs, MaxRetries: 3, IP: "10.0.0.1", Port: 9, SessionID: "s", Kind: "k"}

	if got := rs.Save(); got != SaveOK {
		t.Fatalf("Save = %v, want SaveOK", got)
	}
	if fs.connectN != 1 {
		t.Fatalf("connectN = %d, want 1", fs.connectN)
	}
}

func TestRetryingStoreReconfiguresOnSessionError(t *testing.T) {
	fs := &fakeStore{results: []SaveResult{SaveSessionError, SaveOK}}
	rs := RetryingStore{Store: fs, MaxRetries: 3}

	if got := rs.Save(); got != SaveOK {
		t.Fatalf("Save = %v, want SaveOK", got)
	}
	if fs.configN != 1 {
		t.Fatalf("configN = %d, want 1", fs.configN)
	}
}

func TestRetryingStoreExhaustsRetries(t *testing.T) {
	fs := &fakeStore{results: []SaveResult{SaveConnectError, SaveConnectError, SaveConnectError}}
	rs := RetryingStore{Store: fs, MaxRetries: 3}

	if got := rs.Save(); got != SaveConnectError {
		t.Fatalf("Save = %v, want SaveConnectError after exhausting retries", got)
	}
	if fs.saveCalls != 3 {
		t.Fatalf("saveCalls = %d, want 3", fs.saveCalls)
	}
}

func TestRetryingStoreStopsOnOtherError(t *testing.T) {
	fs := &fakeStore{results: []SaveResult{SaveOtherError, SaveOK}}
	rs := RetryingStore{Store: fs, MaxRetries: 3}

	if got := rs.Save(); got != SaveOtherError {
		t.Fatalf("Save = %v, want SaveOtherError (non-recoverable, no further retry)", got)
	}
	if fs.saveCalls != 1 {
		t.Fatalf("saveCalls = %d, want 1 (should not retry past an unrecoverable error)", fs.saveCalls)
	}
}

func TestRetryingStoreIsAStore(t *testing.T) {
	fs := &fakeStore{results: []SaveResult{SaveOK}}
	rs := RetryingStore{Store: fs, MaxRetries: 3, IP: "10.0.0.1", Port: 9, SessionID: "s", Kind: "k"}

	// RetryingStore must satisfy Store so it can be adapted straight into
	// transportcc.TelemetryStore via Adapter, without Proxy reimplementing
	// the retry policy itself.
	var _ Store = rs

	if err := rs.Connect("10.0.0.1", 9); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := rs.SetConfig("s", "k"); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	rs.Collect(Row{SSRC: 1})
	if len(fs.rows) != 1 {
		t.Fatalf("Collect did not pass through to the wrapped Store")
	}
	if err := rs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if fs.connectN != 1 || fs.configN != 1 {
		t.Fatalf("connectN=%d configN=%d, want 1 each", fs.connectN, fs.configN)
	}
}

func TestAdapterConvertsRow(t *testing.T) {
	fs := &fakeStore{results: []SaveResult{SaveOK}}
	a := Adapter{Store: fs}

	a.Collect(transportcc.TelemetryRow{SSRC: 7, Sequence: 42, ArrivalMS: 1000, PayloadSize: 128})

	if len(fs.rows) != 1 {
		t.Fatalf("rows = %v, want 1 entry", fs.rows)
	}
	got := fs.rows[0]
	if got.SSRC != 7 || got.Sequence != 42 || got.ArrivalMS != 1000 || got.PayloadSize != 128 {
		t.Fatalf("converted row = %+v, mismatched fields", got)
	}
}
