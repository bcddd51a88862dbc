package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/classcal/internal/calendar"
	"github.com/roach88/classcal/internal/storetest"
)

func TestConformance_SQLite(t *testing.T) {
	storetest.Run(t, func(t *testing.T, now func() time.Time) calendar.EventStore {
		s, err := Open(filepath.Join(t.TempDir(), "events.db"), WithClock(now))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

// TestConformance_Postgres runs against a live server when
// CLASSCAL_TEST_POSTGRES_DSN is set. The events table is emptied first.
func TestConformance_Postgres(t *testing.T) {
	dsn := os.Getenv("CLASSCAL_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CLASSCAL_TEST_POSTGRES_DSN not set")
	}
	storetest.Run(t, func(t *testing.T, now func() time.Time) calendar.EventStore {
		s, err := OpenDriver(DriverPostgres, dsn, WithClock(now))
		require.NoError(t, err)
		_, err = s.DB().Exec("TRUNCATE events RESTART IDENTITY")
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// Open multiple times
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
		"events",
	).Scan(&name)
	if err != nil {
		t.Errorf("events table not found after idempotent opens: %v", err)
	}
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	created, err := s1.Create(context.Background(), calendar.Input{Title: "Yoga", Date: "2024-01-01"})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	events, err := s2.ListAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, []calendar.Event{created}, events)
}

func TestOpen_InvalidPath(t *testing.T) {
	// Try to open in non-existent directory
	path := "/nonexistent/dir/test.db"

	_, err := Open(path)
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpenDriver_UnsupportedDriver(t *testing.T) {
	_, err := OpenDriver("mysql", "whatever")
	if err == nil {
		t.Error("expected error for unsupported driver, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	err := s.Close()
	if err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s, _ := createTestStore(t)

	db := s.DB()
	if db == nil {
		t.Fatal("DB() returned nil")
	}
	if err := db.Ping(); err != nil {
		t.Errorf("DB() connection not usable: %v", err)
	}
}

func TestBackend_ReportsDriver(t *testing.T) {
	s, _ := createTestStore(t)
	if got := s.Backend(); got != DriverSQLite {
		t.Errorf("Backend() = %q, want %q", got, DriverSQLite)
	}
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	s, _ := createTestStore(t)
	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s, _ := createTestStore(t)
	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s, _ := createTestStore(t)
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db",
		Port:     5432,
		User:     "cal",
		Password: "secret",
		DBName:   "classcal",
		SSLMode:  "disable",
	}
	want := "host=db port=5432 user=cal password=secret dbname=classcal sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestDialect_Rebind(t *testing.T) {
	q := "UPDATE events SET title = ?, date = ? WHERE id = ?"

	if got := sqliteDialect.rebind(q); got != q {
		t.Errorf("sqlite rebind changed query: %q", got)
	}

	want := "UPDATE events SET title = $1, date = $2 WHERE id = $3"
	if got := postgresDialect.rebind(q); got != want {
		t.Errorf("postgres rebind = %q, want %q", got, want)
	}
}
