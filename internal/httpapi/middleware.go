package httpapi

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/roach88/classcal/internal/metrics"
)

// CORS values; identical on every response.
const (
	corsAllowOrigin  = "*"
	corsAllowHeaders = "X-Requested-With, Content-Type, Accept, Origin, Authorization"
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
)

// withCORS sets permissive CORS headers unconditionally, before the handler
// runs, so error responses carry them too.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", corsAllowOrigin)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		next.ServeHTTP(w, r)
	})
}

// withAccessLog logs one line per request through logger.
func withAccessLog(logger *slog.Logger, next http.Handler) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, next, func(_ io.Writer, p handlers.LogFormatterParams) {
		logger.Info("access",
			"method", p.Request.Method,
			"path", p.URL.Path,
			"status", p.StatusCode,
			"size", p.Size,
			"duration", time.Since(p.TimeStamp),
			"request_id", p.Request.Header.Get(RequestIDHeader),
		)
	})
}

// withRecovery turns handler panics into a JSON 500 and logs them.
// RecoveryHandler only calls WriteHeader on the writer it is given, so next
// is served on the real writer and recoveredWriter sees the recovery alone.
func withRecovery(logger *slog.Logger, next http.Handler) http.Handler {
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{logger}))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
		})
		recovery(inner).ServeHTTP(recoveredWriter{w}, r)
	})
}

// recoveredWriter writes the generic error body when RecoveryHandler sets
// the status.
type recoveredWriter struct {
	http.ResponseWriter
}

func (w recoveredWriter) WriteHeader(code int) {
	writeJSON(w.ResponseWriter, code, errorResponse{Error: msgInternalError})
}

type recoveryLogger struct {
	logger *slog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("handler panic", "panic", fmt.Sprint(v...))
}

// instrument is a mux middleware recording request count and latency under
// the matched route template.
func instrument(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := "unmatched"
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			snoop := httpsnoop.CaptureMetrics(next, w, r)
			m.ObserveRequest(route, r.Method, snoop.Code, snoop.Duration)
		})
	}
}
