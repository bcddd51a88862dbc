package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestPrepare_RequiresTitleAndDate(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{"empty title", Input{Date: "2024-01-01"}},
		{"empty date", Input{Title: "Yoga"}},
		{"blank title", Input{Title: "   ", Date: "2024-01-01"}},
		{"blank date", Input{Title: "Yoga", Date: "\t"}},
		{"both empty", Input{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(tt.in)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			var e *Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, MsgTitleDateRequired, e.Message)
		})
	}
}

func TestPrepare_SanitizesTextFields(t *testing.T) {
	e, err := Prepare(Input{
		Title:       "<b>X</b>",
		Date:        "2024-01-01",
		Time:        "09:00",
		Description: `Tom & "Jerry"`,
		Instructor:  "O'Brien",
	})
	require.NoError(t, err)

	assert.Equal(t, "&lt;b&gt;X&lt;/b&gt;", e.Title)
	assert.Equal(t, "Tom &amp; &quot;Jerry&quot;", e.Description)
	assert.Equal(t, "O&#039;Brien", e.Instructor)
	assert.Equal(t, "2024-01-01", e.Date)
	assert.Equal(t, "09:00", e.Time)
	assert.Zero(t, e.ID)
}

func TestSanitize_NormalizesToNFC(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	assert.Equal(t, "caf\u00e9", Sanitize("cafe\u0301"))
}

func TestApply_MergesOnlySuppliedFields(t *testing.T) {
	created := NewTimestamp(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	orig := Event{
		ID:          7,
		Title:       "Yoga &amp; Tea",
		Date:        "2024-01-01",
		Time:        "09:00",
		Description: "Bring a mat",
		Instructor:  "Ann",
		CreatedAt:   created,
	}
	now := NewTimestamp(time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC))

	got := Apply(orig, Patch{Time: strPtr("14:00")}, now)

	assert.Equal(t, "14:00", got.Time)
	require.NotNil(t, got.UpdatedAt)
	assert.Equal(t, now, *got.UpdatedAt)

	// Stored values must not be escaped a second time.
	assert.Equal(t, orig.Title, got.Title)
	assert.Equal(t, orig.Date, got.Date)
	assert.Equal(t, orig.Description, got.Description)
	assert.Equal(t, orig.Instructor, got.Instructor)
	assert.Equal(t, orig.CreatedAt, got.CreatedAt)
	assert.Equal(t, orig.ID, got.ID)
}

func TestApply_SanitizesSuppliedFields(t *testing.T) {
	now := NewTimestamp(time.Now())
	got := Apply(Event{Title: "a", Date: "d"}, Patch{Title: strPtr("<i>b</i>")}, now)
	assert.Equal(t, "&lt;i&gt;b&lt;/i&gt;", got.Title)
}

func TestValidatePatch(t *testing.T) {
	assert.NoError(t, ValidatePatch(Patch{}))
	assert.NoError(t, ValidatePatch(Patch{Time: strPtr("")}))
	assert.True(t, IsValidation(ValidatePatch(Patch{Title: strPtr("")})))
	assert.True(t, IsValidation(ValidatePatch(Patch{Date: strPtr(" ")})))
}

func TestPatch_IsEmpty(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())
	assert.False(t, Patch{Instructor: strPtr("")}.IsEmpty())
}

func TestPatch_UnmarshalDistinguishesAbsentFromEmpty(t *testing.T) {
	var p Patch
	require.NoError(t, json.Unmarshal([]byte(`{"time":"","title":"Pilates"}`), &p))
	require.NotNil(t, p.Time)
	assert.Equal(t, "", *p.Time)
	require.NotNil(t, p.Title)
	assert.Nil(t, p.Date)
	assert.Nil(t, p.Description)
}

func TestEvent_JSONOmitsUpdatedAtUntilSet(t *testing.T) {
	e := Event{
		ID:        1,
		Title:     "Yoga",
		Date:      "2024-01-01",
		CreatedAt: NewTimestamp(time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)),
	}
	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 1,
		"title": "Yoga",
		"date": "2024-01-01",
		"time": "",
		"description": "",
		"instructor": "",
		"created_at": "2024-01-01 10:30:00"
	}`, string(b))

	ts := NewTimestamp(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	e.UpdatedAt = &ts
	b, err = json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"updated_at":"2024-01-02 00:00:00"`)
}

func TestTimestamp_Scan(t *testing.T) {
	want := NewTimestamp(time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC))

	var a, b, c Timestamp
	require.NoError(t, a.Scan("2024-03-04 05:06:07"))
	require.NoError(t, b.Scan([]byte("2024-03-04 05:06:07")))
	require.NoError(t, c.Scan(time.Date(2024, 3, 4, 5, 6, 7, 999, time.UTC)))
	assert.Equal(t, want, a)
	assert.Equal(t, want, b)
	assert.Equal(t, want, c)

	assert.Error(t, a.Scan(42))
	assert.Error(t, a.Scan("not a time"))
}

func TestSort_OrdersByDateTimeThenID(t *testing.T) {
	events := []Event{
		{ID: 3, Date: "2024-01-02", Time: "08:00"},
		{ID: 2, Date: "2024-01-01", Time: "10:00"},
		{ID: 4, Date: "2024-01-01", Time: ""},
		{ID: 1, Date: "2024-01-01", Time: "10:00"},
	}
	Sort(events)

	var ids []int64
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int64{4, 1, 2, 3}, ids)
}

func TestFilterByDate_NeverNil(t *testing.T) {
	got := FilterByDate(nil, "2024-01-01")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestErrors_Classification(t *testing.T) {
	nf := NewNotFoundError(9)
	wrapped := fmt.Errorf("handler: %w", nf)
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.Equal(t, ErrCodeNotFound, CodeOf(wrapped))
	assert.Contains(t, nf.Error(), "id=9")

	cause := errors.New("disk full")
	se := WrapStorageError("write events", cause)
	assert.True(t, IsStorageUnavailable(se))
	assert.ErrorIs(t, se, cause)
	assert.Equal(t, MsgStorageUnavailable, se.Message)

	assert.Equal(t, ErrCodeStorageUnavailable, CodeOf(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}
