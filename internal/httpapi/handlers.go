package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/roach88/classcal/internal/calendar"
)

// Client-facing messages not owned by the calendar package.
const (
	msgInvalidJSON   = "Invalid JSON body"
	msgEventDeleted  = "Event deleted successfully"
	msgInternalError = "Internal server error"
	msgNotFound      = "Not found"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Backend    string `json:"backend"`
	EventCount *int   `json:"event_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (a *API) listAll(w http.ResponseWriter, r *http.Request) {
	events, err := a.store.ListAll(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (a *API) listByDate(w http.ResponseWriter, r *http.Request) {
	date, ok := pathVar(r, "date")
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: msgNotFound})
		return
	}
	events, err := a.store.ListByDate(r.Context(), date)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	var in calendar.Input
	if err := decodeBody(w, r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidJSON})
		return
	}

	e, err := a.store.Create(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (a *API) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: calendar.MsgEventNotFound})
		return
	}

	var p calendar.Patch
	if err := decodeBody(w, r, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidJSON})
		return
	}

	e, err := a.store.Update(r.Context(), id, p)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (a *API) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: calendar.MsgEventNotFound})
		return
	}

	if err := a.store.Delete(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msgEventDeleted})
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	h := a.store.HealthCheck(r.Context())
	resp := healthResponse{
		Timestamp: a.now().UTC().Format(calendar.TimestampLayout),
		Backend:   h.Backend,
	}
	if !h.OK {
		a.logger.Error("health check failed",
			"backend", h.Backend,
			"error", h.Error,
			"request_id", r.Header.Get(RequestIDHeader),
		)
		resp.Status = "error"
		resp.Error = calendar.MsgStorageUnavailable
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	resp.Status = "ok"
	resp.EventCount = &h.EventCount
	writeJSON(w, http.StatusOK, resp)
}

// decodeBody decodes a JSON object into dst. An empty body leaves dst at its
// zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, dst)
}

// pathVar returns the unescaped route variable name.
func pathVar(r *http.Request, name string) (string, bool) {
	v, err := url.PathUnescape(mux.Vars(r)[name])
	if err != nil {
		return "", false
	}
	return v, true
}

// parseID reads the id route variable. Only positive base-10 integers are
// accepted.
func parseID(r *http.Request) (int64, bool) {
	s, ok := pathVar(r, "id")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeError maps store errors to status codes. Storage failures are logged
// with their cause; the client only sees a generic message.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ce *calendar.Error
	if !errors.As(err, &ce) {
		a.logger.Error("unexpected store error", "error", err, "request_id", r.Header.Get(RequestIDHeader))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgInternalError})
		return
	}

	switch ce.Code {
	case calendar.ErrCodeValidation:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ce.Message})
	case calendar.ErrCodeNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: ce.Message})
	default:
		a.logger.Error("store unavailable", "error", err, "request_id", r.Header.Get(RequestIDHeader))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: ce.Message})
	}
}

// writeJSON writes v with status. HTML escaping is off because stored text is
// already escaped.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		http.Error(w, `{"error":"`+msgInternalError+`"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
