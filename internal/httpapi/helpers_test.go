package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/roach88/classcal/internal/calendar"
	"github.com/roach88/classcal/internal/filestore"
	"github.com/roach88/classcal/internal/metrics"
	"github.com/roach88/classcal/internal/testutil"
)

const testRequestID = "test-request"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	return Options{
		IDs:    testutil.NewFixedIDGenerator(testRequestID),
		Now:    func() time.Time { return testutil.DefaultEpoch },
		Logger: discardLogger(),
	}
}

// newTestHandler returns a handler over an empty in-memory flat-file store
// whose clock starts at testutil.DefaultEpoch and ticks once per write.
func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	h, _ := newTestHandlerWithMetrics(t, false)
	return h
}

func newTestHandlerWithMetrics(t *testing.T, withMetrics bool) (http.Handler, *metrics.Metrics) {
	t.Helper()
	clock := testutil.NewDeterministicClock()
	s, err := filestore.Open(memfs.New(), "data/events.json", filestore.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	opts := testOptions()
	var store calendar.EventStore = s
	if withMetrics {
		opts.Metrics = metrics.New()
		store = metrics.InstrumentStore(s, filestore.BackendName, opts.Metrics)
	}
	return NewHandler(store, opts), opts.Metrics
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// stubStore is a calendar.EventStore whose behavior is set per test.
type stubStore struct {
	err    error
	health calendar.Health
	panic  bool
}

func (s *stubStore) ListAll(ctx context.Context) ([]calendar.Event, error) {
	if s.panic {
		panic("boom")
	}
	return nil, s.err
}

func (s *stubStore) ListByDate(ctx context.Context, date string) ([]calendar.Event, error) {
	return nil, s.err
}

func (s *stubStore) Create(ctx context.Context, in calendar.Input) (calendar.Event, error) {
	return calendar.Event{}, s.err
}

func (s *stubStore) Update(ctx context.Context, id int64, p calendar.Patch) (calendar.Event, error) {
	return calendar.Event{}, s.err
}

func (s *stubStore) Delete(ctx context.Context, id int64) error {
	return s.err
}

func (s *stubStore) HealthCheck(ctx context.Context) calendar.Health {
	return s.health
}

func (s *stubStore) Close() error { return nil }
