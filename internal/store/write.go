package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roach88/classcal/internal/calendar"
)

// Create validates in and inserts a new row. The id comes from the
// database's auto-increment sequence.
func (s *Store) Create(ctx context.Context, in calendar.Input) (calendar.Event, error) {
	e, err := calendar.Prepare(in)
	if err != nil {
		return calendar.Event{}, err
	}
	e.CreatedAt = calendar.NewTimestamp(s.now())

	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`
		INSERT INTO events (title, date, time, description, instructor, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+eventColumns),
		e.Title,
		e.Date,
		e.Time,
		e.Description,
		e.Instructor,
		e.CreatedAt,
	)
	created, err := scanEvent(row)
	if err != nil {
		return calendar.Event{}, calendar.WrapStorageError("create event", err)
	}

	s.logger.Debug("event created", "backend", s.Backend(), "id", created.ID)
	return created, nil
}

// Update merges p into the stored row inside a transaction so the
// read-merge-write sequence is atomic.
func (s *Store) Update(ctx context.Context, id int64, p calendar.Patch) (calendar.Event, error) {
	if err := calendar.ValidatePatch(p); err != nil {
		return calendar.Event{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return calendar.Event{}, calendar.WrapStorageError("update event: begin tx", err)
	}
	defer tx.Rollback() // No-op if committed

	current, err := scanEvent(tx.QueryRowContext(ctx,
		s.dialect.rebind("SELECT "+eventColumns+" FROM events WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return calendar.Event{}, calendar.NewNotFoundError(id)
	}
	if err != nil {
		return calendar.Event{}, calendar.WrapStorageError("update event: select", err)
	}

	merged := calendar.Apply(current, p, calendar.NewTimestamp(s.now()))

	_, err = tx.ExecContext(ctx, s.dialect.rebind(`
		UPDATE events
		SET title = ?, date = ?, time = ?, description = ?, instructor = ?, updated_at = ?
		WHERE id = ?
	`),
		merged.Title,
		merged.Date,
		merged.Time,
		merged.Description,
		merged.Instructor,
		*merged.UpdatedAt,
		id,
	)
	if err != nil {
		return calendar.Event{}, calendar.WrapStorageError("update event: write", err)
	}

	if err := tx.Commit(); err != nil {
		return calendar.Event{}, calendar.WrapStorageError("update event: commit", err)
	}

	s.logger.Debug("event updated", "backend", s.Backend(), "id", id, "empty_patch", p.IsEmpty())
	return merged, nil
}

// Delete removes the row with the given id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.dialect.rebind("DELETE FROM events WHERE id = ?"), id)
	if err != nil {
		return calendar.WrapStorageError("delete event", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return calendar.WrapStorageError("delete event: rows affected", err)
	}
	if n == 0 {
		return calendar.NewNotFoundError(id)
	}

	s.logger.Debug("event deleted", "backend", s.Backend(), "id", id)
	return nil
}

// compile-time interface check
var _ calendar.EventStore = (*Store)(nil)
