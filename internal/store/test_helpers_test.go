package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/classcal/internal/testutil"
)

// createTestStore creates a new SQLite store in a temp dir with a
// deterministic clock.
func createTestStore(t *testing.T) (*Store, *testutil.DeterministicClock) {
	t.Helper()
	clock := testutil.NewDeterministicClock()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func strPtr(s string) *string { return &s }
