// Package filestore implements calendar.EventStore on a single JSON file.
//
// The whole collection is stored as one JSON array and rewritten on every
// mutation. Writes go to a temporary file in the same directory which is then
// renamed over the data file, so readers never observe a partial document.
// A mutex serializes all operations within the process.
//
// IDs are assigned from a high-water mark seeded with the largest id present
// when the store is opened, so ids freed by Delete are not reissued while the
// store stays open.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/roach88/classcal/internal/calendar"
)

// BackendName identifies this backend in health reports and metrics.
const BackendName = "file"

// Store is a flat-file calendar.EventStore.
type Store struct {
	fs     billy.Filesystem
	path   string
	now    func() time.Time
	logger *slog.Logger

	mu     sync.Mutex
	lastID int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open creates a store for the file at path inside fs. The file need not
// exist; it is created on the first mutation. An existing file that cannot be
// parsed is an error, since overwriting it would lose data.
func Open(fs billy.Filesystem, path string, opts ...Option) (*Store, error) {
	s := &Store{
		fs:     fs,
		path:   path,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	events, err := s.read()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s.lastID = maxID(events)

	return s, nil
}

// OpenPath opens a store for a path on the local disk. The filesystem is
// rooted at the volume so missing parent directories can be created.
func OpenPath(path string, opts ...Option) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	root := filepath.VolumeName(abs) + string(filepath.Separator)
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	return Open(osfs.New(root), filepath.ToSlash(rel), opts...)
}

// Close is a no-op; the store holds no open handles between operations.
func (s *Store) Close() error {
	return nil
}

// ListAll returns every event ordered by (date, time, id).
func (s *Store) ListAll(ctx context.Context) ([]calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.read()
	if err != nil {
		return nil, calendar.WrapStorageError("list events", err)
	}
	calendar.Sort(events)
	return events, nil
}

// ListByDate returns events on date ordered by (time, id). The query is
// normalized the same way stored dates are.
func (s *Store) ListByDate(ctx context.Context, date string) ([]calendar.Event, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return calendar.FilterByDate(all, calendar.Normalize(date)), nil
}

// Create validates in and appends a new event.
func (s *Store) Create(ctx context.Context, in calendar.Input) (calendar.Event, error) {
	e, err := calendar.Prepare(in)
	if err != nil {
		return calendar.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.read()
	if err != nil {
		return calendar.Event{}, calendar.WrapStorageError("create event", err)
	}

	e.ID = max(s.lastID, maxID(events)) + 1
	e.CreatedAt = calendar.NewTimestamp(s.now())

	if err := s.write(append(events, e)); err != nil {
		return calendar.Event{}, calendar.WrapStorageError("create event", err)
	}
	s.lastID = e.ID

	s.logger.Debug("event created", "backend", BackendName, "id", e.ID)
	return e, nil
}

// Update merges p into the event with the given id.
func (s *Store) Update(ctx context.Context, id int64, p calendar.Patch) (calendar.Event, error) {
	if err := calendar.ValidatePatch(p); err != nil {
		return calendar.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.read()
	if err != nil {
		return calendar.Event{}, calendar.WrapStorageError("update event", err)
	}

	i := indexOf(events, id)
	if i < 0 {
		return calendar.Event{}, calendar.NewNotFoundError(id)
	}

	events[i] = calendar.Apply(events[i], p, calendar.NewTimestamp(s.now()))
	if err := s.write(events); err != nil {
		return calendar.Event{}, calendar.WrapStorageError("update event", err)
	}

	s.logger.Debug("event updated", "backend", BackendName, "id", id, "empty_patch", p.IsEmpty())
	return events[i], nil
}

// Delete removes the event with the given id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.read()
	if err != nil {
		return calendar.WrapStorageError("delete event", err)
	}

	i := indexOf(events, id)
	if i < 0 {
		return calendar.NewNotFoundError(id)
	}

	events = append(events[:i], events[i+1:]...)
	if err := s.write(events); err != nil {
		return calendar.WrapStorageError("delete event", err)
	}

	s.logger.Debug("event deleted", "backend", BackendName, "id", id)
	return nil
}

// HealthCheck reads and parses the data file.
func (s *Store) HealthCheck(ctx context.Context) calendar.Health {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := calendar.Health{Backend: BackendName}
	events, err := s.read()
	if err != nil {
		h.Error = err.Error()
		return h
	}
	h.OK = true
	h.EventCount = len(events)
	return h
}

// read loads the collection in file order. A missing or blank file is an
// empty collection; the result is never nil.
func (s *Store) read() ([]calendar.Event, error) {
	f, err := s.fs.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []calendar.Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []calendar.Event{}, nil
	}

	var events []calendar.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parse data file: %w", err)
	}
	if events == nil {
		events = []calendar.Event{}
	}
	return events, nil
}

// write replaces the data file with events via temp file and rename.
func (s *Store) write(events []calendar.Event) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(events); err != nil {
		return fmt.Errorf("encode events: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	tmp, err := s.fs.TempFile(dir, ".events-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

// compile-time interface check
var _ calendar.EventStore = (*Store)(nil)

func indexOf(events []calendar.Event, id int64) int {
	for i, e := range events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func maxID(events []calendar.Event) int64 {
	var m int64
	for _, e := range events {
		m = max(m, e.ID)
	}
	return m
}
