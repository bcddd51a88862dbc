package store

import (
	_ "embed"
	"strconv"
	"strings"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// dialect captures the SQL differences between supported drivers.
type dialect struct {
	driver  string
	schema  string
	pragmas []string

	// collate is appended to text sort keys so ordering is byte-wise.
	collate string

	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
}

var sqliteDialect = dialect{
	driver: DriverSQLite,
	schema: sqliteSchema,
	pragmas: []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	},
	collate: "COLLATE BINARY",
}

var postgresDialect = dialect{
	driver:   DriverPostgres,
	schema:   postgresSchema,
	collate:  `COLLATE "C"`,
	numbered: true,
}

// rebind rewrites ? placeholders for the dialect. Queries in this package
// never contain a literal question mark.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// orderBy returns the ORDER BY clause for full listings.
func (d dialect) orderBy() string {
	return "ORDER BY date " + d.collate + " ASC, time " + d.collate + " ASC, id ASC"
}

// orderByTime returns the ORDER BY clause for single-date listings.
func (d dialect) orderByTime() string {
	return "ORDER BY time " + d.collate + " ASC, id ASC"
}
