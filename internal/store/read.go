package store

import (
	"context"
	"fmt"

	"github.com/roach88/classcal/internal/calendar"
)

const eventColumns = "id, title, date, time, description, instructor, created_at, updated_at"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(r rowScanner) (calendar.Event, error) {
	var e calendar.Event
	err := r.Scan(
		&e.ID,
		&e.Title,
		&e.Date,
		&e.Time,
		&e.Description,
		&e.Instructor,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

// ListAll returns every event ordered by (date, time, id).
func (s *Store) ListAll(ctx context.Context) ([]calendar.Event, error) {
	events, err := s.queryEvents(ctx,
		"SELECT "+eventColumns+" FROM events "+s.dialect.orderBy())
	if err != nil {
		return nil, calendar.WrapStorageError("list events", err)
	}
	return events, nil
}

// ListByDate returns events on date ordered by (time, id). The query is
// normalized the same way stored dates are.
func (s *Store) ListByDate(ctx context.Context, date string) ([]calendar.Event, error) {
	events, err := s.queryEvents(ctx,
		"SELECT "+eventColumns+" FROM events WHERE date = ? "+s.dialect.orderByTime(),
		calendar.Normalize(date),
	)
	if err != nil {
		return nil, calendar.WrapStorageError("list events by date", err)
	}
	return events, nil
}

// queryEvents runs query and scans every row. Returns an empty slice, not
// nil, when nothing matches.
func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]calendar.Event, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []calendar.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// HealthCheck pings the database and counts events.
func (s *Store) HealthCheck(ctx context.Context) calendar.Health {
	h := calendar.Health{Backend: s.Backend()}

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		h.Error = fmt.Sprintf("ping: %v", err)
		return h
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&h.EventCount); err != nil {
		h.Error = fmt.Sprintf("count events: %v", err)
		return h
	}
	h.OK = true
	return h
}
