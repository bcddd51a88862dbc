package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/classcal/internal/calendar"
)

func TestCreate_StoresSanitizedRow(t *testing.T) {
	s, _ := createTestStore(t)

	e, err := s.Create(context.Background(), calendar.Input{
		Title:      "<b>Yoga</b>",
		Date:       "2024-01-01",
		Time:       "09:00",
		Instructor: "O'Neil",
	})
	require.NoError(t, err)

	var title, instructor, createdAt string
	var updatedAt sql.NullString
	err = s.db.QueryRow(`
		SELECT title, instructor, created_at, updated_at
		FROM events
		WHERE id = ?
	`, e.ID).Scan(&title, &instructor, &createdAt, &updatedAt)
	require.NoError(t, err)

	assert.Equal(t, "&lt;b&gt;Yoga&lt;/b&gt;", title)
	assert.Equal(t, "O&#039;Neil", instructor)
	assert.Equal(t, "2024-01-01 09:00:00", createdAt)
	assert.False(t, updatedAt.Valid, "updated_at should be NULL until first update")
}

func TestCreate_AutoIncrementNeverReusesDeletedMax(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, calendar.Input{Title: "a", Date: "2024-01-01"})
	require.NoError(t, err)
	b, err := s.Create(ctx, calendar.Input{Title: "b", Date: "2024-01-01"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, b.ID))
	require.NoError(t, s.Delete(ctx, a.ID))

	c, err := s.Create(ctx, calendar.Input{Title: "c", Date: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID)
}

func TestUpdate_WritesUpdatedAt(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	e, err := s.Create(ctx, calendar.Input{Title: "a", Date: "2024-01-01"})
	require.NoError(t, err)

	updated, err := s.Update(ctx, e.ID, calendar.Patch{Description: strPtr("Room 4")})
	require.NoError(t, err)

	var description, updatedAt string
	err = s.db.QueryRow("SELECT description, updated_at FROM events WHERE id = ?", e.ID).
		Scan(&description, &updatedAt)
	require.NoError(t, err)

	assert.Equal(t, "Room 4", description)
	assert.Equal(t, "2024-01-01 09:00:01", updatedAt)
	assert.Equal(t, updatedAt, updated.UpdatedAt.String())
}

func TestWrites_AfterCloseAreStorageErrors(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	e, err := s.Create(ctx, calendar.Input{Title: "a", Date: "2024-01-01"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Create(ctx, calendar.Input{Title: "b", Date: "2024-01-01"})
	assert.True(t, calendar.IsStorageUnavailable(err), "create: got %v", err)

	_, err = s.Update(ctx, e.ID, calendar.Patch{Title: strPtr("c")})
	assert.True(t, calendar.IsStorageUnavailable(err), "update: got %v", err)

	err = s.Delete(ctx, e.ID)
	assert.True(t, calendar.IsStorageUnavailable(err), "delete: got %v", err)

	// Validation still wins over a dead connection.
	_, err = s.Create(ctx, calendar.Input{})
	assert.True(t, calendar.IsValidation(err), "validation: got %v", err)
}
