// Package store provides the relational calendar.EventStore backend.
//
// Events live in a single table:
//
//	events(id PK autoincrement, title, date, time, description, instructor,
//	       created_at, updated_at)
//
// Two database/sql drivers are supported:
//   - sqlite3 (github.com/mattn/go-sqlite3), the default, file based
//   - postgres (github.com/lib/pq)
//
// # Identity and Ordering
//
//   - IDs come from AUTOINCREMENT (SQLite) or BIGSERIAL (PostgreSQL) and are
//     never reused, even after the highest id is deleted.
//   - ListAll uses ORDER BY date, time, id with binary collation so results
//     match the flat-file backend byte for byte.
//
// # SQLite Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - Single open connection: one writer at a time
//
// Queries are written with ? placeholders and rebound per dialect.
package store
