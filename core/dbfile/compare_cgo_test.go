//go:build cgo_sqlite && cgo

package dbfile

// Cross-checks against the C SQLite library via mattn/go-sqlite3.
// Build with -tags cgo_sqlite to include them.

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestCountMatchesCSQLite(t *testing.T) {
	path := createDB(t,
		"CREATE TABLE apples (id INTEGER PRIMARY KEY, name TEXT)",
		"INSERT INTO apples (name) "+
			"WITH RECURSIVE seq(n) AS (SELECT 1 UNION ALL SELECT n+1 FROM seq WHERE n < 257) "+
			"SELECT 'apple-' || n FROM seq",
	)
	db := openFixture(t, path)

	cdb, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open with C driver: %v", err)
	}
	defer cdb.Close()

	var want int64
	if err := cdb.QueryRow("SELECT COUNT(*) FROM apples").Scan(&want); err != nil {
		t.Fatalf("count with C driver: %v", err)
	}

	got, err := db.CountRows("apples")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if got != want {
		t.Errorf("count = %d, C library says %d", got, want)
	}
}

func TestProjectionMatchesCSQLite(t *testing.T) {
	path := createDB(t,
		"CREATE TABLE samples (id INTEGER PRIMARY KEY, label TEXT, ratio REAL, body BLOB, n INTEGER)",
		"INSERT INTO samples (id, label, ratio, body, n) VALUES "+
			"(1, 'alpha', 0.5, X'68656C6C6F', 0), "+
			"(2, NULL, 2.5, NULL, 1), "+
			"(3, 'gamma', NULL, X'00FF', 127), "+
			"(4, '', -1.25, X'', -32768), "+
			"(5, 'delta', 1e300, X'DEADBEEF', 2147483648)",
	)
	db := openFixture(t, path)

	cdb, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open with C driver: %v", err)
	}
	defer cdb.Close()

	// database/sql renders int64, float64, text, and blob values into
	// strings the same way Display does, and NULL scans as invalid.
	rows, err := cdb.Query("SELECT label, ratio, body, n FROM samples ORDER BY rowid")
	if err != nil {
		t.Fatalf("query with C driver: %v", err)
	}
	defer rows.Close()

	var want [][]string
	for rows.Next() {
		cols := make([]sql.NullString, 4)
		if err := rows.Scan(&cols[0], &cols[1], &cols[2], &cols[3]); err != nil {
			t.Fatalf("scan: %v", err)
		}
		row := make([]string, 4)
		for i, c := range cols {
			if c.Valid {
				row[i] = c.String
			}
		}
		want = append(want, row)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}

	var got [][]string
	err = db.SelectColumns("samples", []string{"label", "ratio", "body", "n"},
		func(_ int64, values []string) error {
			got = append(got, append([]string(nil), values...))
			return nil
		})
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d rows, C library returned %d", len(got), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Errorf("row %d column %d = %q, C library says %q", i, j, got[i][j], want[i][j])
			}
		}
	}
}
