package calendar

import (
	"context"
	"strings"
)

// Event is a single calendar entry.
type Event struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	Description string     `json:"description"`
	Instructor  string     `json:"instructor"`
	CreatedAt   Timestamp  `json:"created_at"`
	UpdatedAt   *Timestamp `json:"updated_at,omitempty"`
}

// Input holds the fields accepted when creating an event.
// Title and Date are required; the rest default to empty strings.
type Input struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Description string `json:"description"`
	Instructor  string `json:"instructor"`
}

// Patch is a partial update. A nil field keeps the stored value.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Date        *string `json:"date,omitempty"`
	Time        *string `json:"time,omitempty"`
	Description *string `json:"description,omitempty"`
	Instructor  *string `json:"instructor,omitempty"`
}

// IsEmpty reports whether the patch supplies no fields.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Date == nil && p.Time == nil &&
		p.Description == nil && p.Instructor == nil
}

// Health describes backend reachability.
type Health struct {
	OK         bool   `json:"ok"`
	Backend    string `json:"backend"`
	EventCount int    `json:"event_count"`
	Error      string `json:"error,omitempty"`
}

// EventStore is the contract implemented by the flat-file and relational
// backends.
type EventStore interface {
	// ListAll returns every event ordered by (date, time, id).
	ListAll(ctx context.Context) ([]Event, error)

	// ListByDate returns events whose date equals date, ordered by (time, id).
	ListByDate(ctx context.Context, date string) ([]Event, error)

	// Create validates and sanitizes in, assigns a fresh id and persists it.
	Create(ctx context.Context, in Input) (Event, error)

	// Update merges p into the event with the given id.
	Update(ctx context.Context, id int64, p Patch) (Event, error)

	// Delete removes the event permanently.
	Delete(ctx context.Context, id int64) error

	// HealthCheck never fails; a failing backend is reported in Health.
	HealthCheck(ctx context.Context) Health

	// Close releases backend resources.
	Close() error
}

// Prepare validates in and returns a new, unsaved Event with sanitized text
// fields. ID and CreatedAt are left for the backend to assign.
func Prepare(in Input) (Event, error) {
	if isBlank(in.Title) || isBlank(in.Date) {
		return Event{}, NewValidationError(MsgTitleDateRequired)
	}
	return Event{
		Title:       Sanitize(in.Title),
		Date:        Normalize(in.Date),
		Time:        Normalize(in.Time),
		Description: Sanitize(in.Description),
		Instructor:  Sanitize(in.Instructor),
	}, nil
}

// ValidatePatch rejects patches that would blank a required field.
func ValidatePatch(p Patch) error {
	if (p.Title != nil && isBlank(*p.Title)) || (p.Date != nil && isBlank(*p.Date)) {
		return NewValidationError(MsgTitleDateRequired)
	}
	return nil
}

// Apply merges p into e and stamps UpdatedAt. Only supplied text fields are
// sanitized, so stored values are never escaped twice.
func Apply(e Event, p Patch, now Timestamp) Event {
	if p.Title != nil {
		e.Title = Sanitize(*p.Title)
	}
	if p.Date != nil {
		e.Date = Normalize(*p.Date)
	}
	if p.Time != nil {
		e.Time = Normalize(*p.Time)
	}
	if p.Description != nil {
		e.Description = Sanitize(*p.Description)
	}
	if p.Instructor != nil {
		e.Instructor = Sanitize(*p.Instructor)
	}
	e.UpdatedAt = &now
	return e
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
