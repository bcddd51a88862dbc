package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/roach88/classcal/internal/calendar"
	"github.com/roach88/classcal/internal/metrics"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Options configures the HTTP handler. Zero values select defaults.
type Options struct {
	// Metrics, when set, instruments routes and serves MetricsPath.
	Metrics     *metrics.Metrics
	MetricsPath string

	// IDs generates request ids; defaults to UUIDv7Generator.
	IDs IDGenerator

	// Now stamps health responses; defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// API holds the handler dependencies.
type API struct {
	store  calendar.EventStore
	now    func() time.Time
	logger *slog.Logger
}

// NewHandler builds the full middleware chain around the router.
func NewHandler(store calendar.EventStore, opts Options) http.Handler {
	if opts.IDs == nil {
		opts.IDs = UUIDv7Generator{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}

	api := &API{store: store, now: opts.Now, logger: opts.Logger}

	// Route variables stay encoded so a date containing "/" still matches
	// {date}; handlers unescape them with pathVar.
	r := mux.NewRouter().UseEncodedPath()
	if opts.Metrics != nil {
		r.Use(instrument(opts.Metrics))
		r.Handle(opts.MetricsPath, opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/api/events", api.listAll).Methods(http.MethodGet)
	r.HandleFunc("/api/events/{date}", api.listByDate).Methods(http.MethodGet)
	r.HandleFunc("/api/events", api.create).Methods(http.MethodPost)
	r.HandleFunc("/api/events/{id}", api.update).Methods(http.MethodPut)
	r.HandleFunc("/api/events/{id}", api.delete).Methods(http.MethodDelete)
	r.HandleFunc("/api/health", api.health).Methods(http.MethodGet)
	// The preflight route matches every path, so unknown paths with other
	// methods end in MethodNotAllowedHandler rather than a 404.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(preflight)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
	})

	var h http.Handler = r
	h = withCORS(h)
	h = withRecovery(opts.Logger, h)
	h = withAccessLog(opts.Logger, h)
	h = withRequestID(opts.IDs, h)
	return h
}

// NewServer wraps handler in an http.Server with the given timeouts.
func NewServer(addr string, handler http.Handler, readTO, writeTO, idleTO time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTO,
		WriteTimeout: writeTO,
		IdleTimeout:  idleTO,
	}
}

func preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
