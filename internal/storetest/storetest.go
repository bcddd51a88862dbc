// Package storetest is a conformance suite for calendar.EventStore
// implementations. Every backend runs the same cases so that swapping the
// backend never changes observable behavior.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/classcal/internal/calendar"
	"github.com/roach88/classcal/internal/testutil"
)

// Factory opens an empty store that reads time from now.
// The factory is responsible for cleanup via t.Cleanup.
type Factory func(t *testing.T, now func() time.Time) calendar.EventStore

// Run executes the full conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	cases := []struct {
		name string
		fn   func(t *testing.T, s calendar.EventStore, clock *testutil.DeterministicClock)
	}{
		{"EmptyStoreListsEmpty", testEmptyStore},
		{"CreateAssignsFields", testCreateAssignsFields},
		{"CreateRejectsMissingFields", testCreateRejectsMissingFields},
		{"IDsIncreaseInCreationOrder", testIDsIncrease},
		{"IDsNotReusedAfterDelete", testIDsNotReused},
		{"ListAllSorted", testListAllSorted},
		{"ListByDateMatchesListAllSubset", testListByDateSubset},
		{"RoundTripThroughListByDate", testRoundTrip},
		{"ListByDateNormalizesQuery", testListByDateNormalizesQuery},
		{"SanitizesMarkup", testSanitizesMarkup},
		{"UpdatePartialMerge", testUpdatePartialMerge},
		{"UpdateDoesNotDoubleEscape", testUpdateNoDoubleEscape},
		{"UpdateNotFound", testUpdateNotFound},
		{"UpdateRejectsBlankRequired", testUpdateRejectsBlankRequired},
		{"UpdateEmptyPatchTouchesUpdatedAt", testUpdateEmptyPatch},
		{"DeleteRemoves", testDeleteRemoves},
		{"DeleteNotFound", testDeleteNotFound},
		{"HealthCheckReportsCount", testHealthCheck},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clock := testutil.NewDeterministicClock()
			s := newStore(t, clock.Now)
			tc.fn(t, s, clock)
		})
	}
}

func mustCreate(t *testing.T, s calendar.EventStore, in calendar.Input) calendar.Event {
	t.Helper()
	e, err := s.Create(context.Background(), in)
	require.NoError(t, err)
	return e
}

func mustListAll(t *testing.T, s calendar.EventStore) []calendar.Event {
	t.Helper()
	events, err := s.ListAll(context.Background())
	require.NoError(t, err)
	return events
}

func ptr(s string) *string { return &s }

func testEmptyStore(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	ctx := context.Background()

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	byDate, err := s.ListByDate(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.NotNil(t, byDate)
	assert.Empty(t, byDate)
}

func testCreateAssignsFields(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	e := mustCreate(t, s, calendar.Input{
		Title:       "Yoga",
		Date:        "2024-01-01",
		Time:        "09:00",
		Description: "Bring a mat",
		Instructor:  "Ann",
	})

	assert.Equal(t, int64(1), e.ID)
	assert.Equal(t, "Yoga", e.Title)
	assert.Equal(t, "2024-01-01", e.Date)
	assert.Equal(t, "09:00", e.Time)
	assert.Equal(t, "Bring a mat", e.Description)
	assert.Equal(t, "Ann", e.Instructor)
	assert.Equal(t, calendar.NewTimestamp(testutil.DefaultEpoch), e.CreatedAt)
	assert.Nil(t, e.UpdatedAt)

	optional := mustCreate(t, s, calendar.Input{Title: "Run", Date: "2024-01-02"})
	assert.Equal(t, "", optional.Time)
	assert.Equal(t, "", optional.Description)
	assert.Equal(t, "", optional.Instructor)
}

func testCreateRejectsMissingFields(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	mustCreate(t, s, calendar.Input{Title: "Existing", Date: "2024-01-01"})
	before := mustListAll(t, s)

	for _, in := range []calendar.Input{
		{Date: "2024-01-01"},
		{Title: "No date"},
		{Title: " ", Date: "2024-01-01"},
		{},
	} {
		_, err := s.Create(context.Background(), in)
		require.Error(t, err)
		assert.True(t, calendar.IsValidation(err), "want validation error, got %v", err)
	}

	assert.Equal(t, before, mustListAll(t, s))
}

func testIDsIncrease(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	const n = 10
	var last int64
	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		e := mustCreate(t, s, calendar.Input{
			Title: fmt.Sprintf("Event %d", i),
			Date:  fmt.Sprintf("2024-01-%02d", n-i),
		})
		assert.Greater(t, e.ID, last)
		assert.False(t, seen[e.ID])
		seen[e.ID] = true
		last = e.ID
	}
}

func testIDsNotReused(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	mustCreate(t, s, calendar.Input{Title: "a", Date: "2024-01-01"})
	b := mustCreate(t, s, calendar.Input{Title: "b", Date: "2024-01-01"})

	require.NoError(t, s.Delete(context.Background(), b.ID))

	c := mustCreate(t, s, calendar.Input{Title: "c", Date: "2024-01-01"})
	assert.Greater(t, c.ID, b.ID)
}

func testListAllSorted(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	inputs := []calendar.Input{
		{Title: "late", Date: "2024-03-01", Time: "18:00"},
		{Title: "early", Date: "2024-01-15", Time: "07:30"},
		{Title: "no time", Date: "2024-01-15"},
		{Title: "noon", Date: "2024-01-15", Time: "12:00"},
		{Title: "middle", Date: "2024-02-01", Time: "09:00"},
		{Title: "noon twin", Date: "2024-01-15", Time: "12:00"},
	}
	for _, in := range inputs {
		mustCreate(t, s, in)
	}

	all := mustListAll(t, s)
	require.Len(t, all, len(inputs))

	var titles []string
	for i, e := range all {
		titles = append(titles, e.Title)
		if i > 0 {
			assert.LessOrEqual(t, calendar.Compare(all[i-1], e), 0, "events %d and %d out of order", i-1, i)
		}
	}
	assert.Equal(t, []string{"no time", "early", "noon", "noon twin", "middle", "late"}, titles)
}

func testListByDateSubset(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	for _, in := range []calendar.Input{
		{Title: "a", Date: "2024-01-02", Time: "10:00"},
		{Title: "b", Date: "2024-01-01", Time: "11:00"},
		{Title: "c", Date: "2024-01-02", Time: "08:00"},
		{Title: "d", Date: "2024-01-03"},
		{Title: "e", Date: "2024-01-02", Time: "10:00"},
	} {
		mustCreate(t, s, in)
	}

	all := mustListAll(t, s)
	for _, date := range []string{"2024-01-01", "2024-01-02", "2024-01-03", "2099-12-31"} {
		got, err := s.ListByDate(context.Background(), date)
		require.NoError(t, err)
		assert.Equal(t, calendar.FilterByDate(all, date), got, "date %s", date)
	}
}

func testRoundTrip(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	created := mustCreate(t, s, calendar.Input{Title: "Yoga", Date: "2024-01-01"})
	mustCreate(t, s, calendar.Input{Title: "Other", Date: "2024-01-02"})

	got, err := s.ListByDate(context.Background(), "2024-01-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, created, got[0])
}

func testListByDateNormalizesQuery(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	created := mustCreate(t, s, calendar.Input{Title: "Fête", Date: "f\u00eate 2024"})
	assert.Equal(t, "f\u00eate 2024", created.Date)

	// Decomposed form of the same date.
	got, err := s.ListByDate(context.Background(), "fe\u0302te 2024")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, created.ID, got[0].ID)
}

func testSanitizesMarkup(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	e := mustCreate(t, s, calendar.Input{
		Title:       "<b>X</b>",
		Date:        "2024-01-01",
		Description: "<script>alert('x')</script>",
		Instructor:  `"Ann" & co`,
	})

	assert.Equal(t, "&lt;b&gt;X&lt;/b&gt;", e.Title)
	assert.Equal(t, "&lt;script&gt;alert(&#039;x&#039;)&lt;/script&gt;", e.Description)
	assert.Equal(t, "&quot;Ann&quot; &amp; co", e.Instructor)

	stored := mustListAll(t, s)
	require.Len(t, stored, 1)
	assert.Equal(t, e, stored[0])
}

func testUpdatePartialMerge(t *testing.T, s calendar.EventStore, clock *testutil.DeterministicClock) {
	orig := mustCreate(t, s, calendar.Input{
		Title:       "Yoga",
		Date:        "2024-01-01",
		Time:        "09:00",
		Description: "Bring a mat",
		Instructor:  "Ann",
	})

	updated, err := s.Update(context.Background(), orig.ID, calendar.Patch{Time: ptr("14:00")})
	require.NoError(t, err)

	assert.Equal(t, "14:00", updated.Time)
	require.NotNil(t, updated.UpdatedAt)
	assert.True(t, updated.UpdatedAt.After(orig.CreatedAt.Time))

	want := orig
	want.Time = "14:00"
	want.UpdatedAt = updated.UpdatedAt
	assert.Equal(t, want, updated)

	all := mustListAll(t, s)
	require.Len(t, all, 1)
	assert.Equal(t, updated, all[0])
}

func testUpdateNoDoubleEscape(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	orig := mustCreate(t, s, calendar.Input{Title: "Tea & Talk", Date: "2024-01-01"})
	require.Equal(t, "Tea &amp; Talk", orig.Title)

	updated, err := s.Update(context.Background(), orig.ID, calendar.Patch{Instructor: ptr("<Bob>")})
	require.NoError(t, err)

	assert.Equal(t, "Tea &amp; Talk", updated.Title)
	assert.Equal(t, "&lt;Bob&gt;", updated.Instructor)
}

func testUpdateNotFound(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	mustCreate(t, s, calendar.Input{Title: "a", Date: "2024-01-01"})
	before := mustListAll(t, s)

	_, err := s.Update(context.Background(), 999, calendar.Patch{Title: ptr("x")})
	require.Error(t, err)
	assert.True(t, calendar.IsNotFound(err), "want not found, got %v", err)

	assert.Equal(t, before, mustListAll(t, s))
}

func testUpdateRejectsBlankRequired(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	e := mustCreate(t, s, calendar.Input{Title: "a", Date: "2024-01-01"})
	before := mustListAll(t, s)

	_, err := s.Update(context.Background(), e.ID, calendar.Patch{Title: ptr("")})
	assert.True(t, calendar.IsValidation(err), "want validation, got %v", err)

	_, err = s.Update(context.Background(), e.ID, calendar.Patch{Date: ptr("  ")})
	assert.True(t, calendar.IsValidation(err), "want validation, got %v", err)

	assert.Equal(t, before, mustListAll(t, s))
}

func testUpdateEmptyPatch(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	e := mustCreate(t, s, calendar.Input{Title: "a", Date: "2024-01-01"})

	updated, err := s.Update(context.Background(), e.ID, calendar.Patch{})
	require.NoError(t, err)
	require.NotNil(t, updated.UpdatedAt)

	want := e
	want.UpdatedAt = updated.UpdatedAt
	assert.Equal(t, want, updated)
}

func testDeleteRemoves(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	a := mustCreate(t, s, calendar.Input{Title: "a", Date: "2024-01-01"})
	b := mustCreate(t, s, calendar.Input{Title: "b", Date: "2024-01-01"})

	require.NoError(t, s.Delete(context.Background(), a.ID))

	all := mustListAll(t, s)
	require.Len(t, all, 1)
	assert.Equal(t, b, all[0])

	err := s.Delete(context.Background(), a.ID)
	assert.True(t, calendar.IsNotFound(err), "second delete: want not found, got %v", err)
}

func testDeleteNotFound(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	mustCreate(t, s, calendar.Input{Title: "a", Date: "2024-01-01"})
	before := mustListAll(t, s)

	err := s.Delete(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, calendar.IsNotFound(err), "want not found, got %v", err)

	assert.Equal(t, before, mustListAll(t, s))
}

func testHealthCheck(t *testing.T, s calendar.EventStore, _ *testutil.DeterministicClock) {
	mustCreate(t, s, calendar.Input{Title: "a", Date: "2024-01-01"})
	mustCreate(t, s, calendar.Input{Title: "b", Date: "2024-01-02"})

	h := s.HealthCheck(context.Background())
	assert.True(t, h.OK, "health error: %s", h.Error)
	assert.NotEmpty(t, h.Backend)
	assert.Equal(t, 2, h.EventCount)
	assert.Empty(t, h.Error)
}
