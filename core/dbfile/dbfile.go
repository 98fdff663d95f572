// Package dbfile is the high-level read-only interface to a database
// snapshot. It opens the file (materializing gzip and xz snapshots first),
// loads the schema catalog, and answers the query surface: table listing,
// row counts, column projection, content digests, and verification.
package dbfile

import (
	"io"
	"strconv"
	"time"

	"github.com/FocuswithJustin/tamarack/core/errors"
	"github.com/FocuswithJustin/tamarack/internal/btree"
	"github.com/FocuswithJustin/tamarack/internal/integrity"
	"github.com/FocuswithJustin/tamarack/internal/logging"
	"github.com/FocuswithJustin/tamarack/internal/pager"
	"github.com/FocuswithJustin/tamarack/internal/record"
	"github.com/FocuswithJustin/tamarack/internal/schema"
	"github.com/FocuswithJustin/tamarack/internal/snapshot"
)

// DB is an open database snapshot. It is not safe for concurrent use.
type DB struct {
	snap    *snapshot.Snapshot
	pager   *pager.Pager
	catalog *schema.Catalog
}

// Open opens a database snapshot at path. Compressed snapshots are
// materialized to a temporary file that lives until Close.
func Open(path string) (*DB, error) {
	snap, err := snapshot.Open(path)
	if err != nil {
		return nil, err
	}

	p, err := pager.FromFile(snap.File(), snap.Path())
	if err != nil {
		snap.Close()
		return nil, err
	}

	// Text decoding assumes UTF-8 throughout; a UTF-16 database would fail
	// record by record, so refuse it up front.
	if p.Header().TextEncoding != pager.EncodingUTF8 {
		snap.Close()
		return nil, errors.NewUnsupported("text encoding",
			p.Header().EncodingName()+" databases are not readable, only utf-8")
	}

	catalog, err := schema.Load(p)
	if err != nil {
		snap.Close()
		return nil, err
	}
	logging.CatalogLoaded(snap.Path(), len(catalog.Entries))

	logging.DatabaseOpened(snap.Path(), p.PageSize(), p.NumPages(), catalog.TableCount())

	return &DB{snap: snap, pager: p, catalog: catalog}, nil
}

// Close releases the snapshot. The underlying file is owned by the
// snapshot, so closing the snapshot is all it takes.
func (db *DB) Close() error {
	return db.snap.Close()
}

// Path returns the path the snapshot was opened from.
func (db *DB) Path() string {
	return db.snap.Path()
}

// Catalog returns the loaded schema catalog.
func (db *DB) Catalog() *schema.Catalog {
	return db.catalog
}

// Info summarizes a database file the way the info command reports it.
type Info struct {
	Path          string
	PageSize      int
	UsableSize    int
	PageCount     uint32
	Encoding      string
	SchemaFormat  uint32
	SchemaCookie  uint32
	UserVersion   uint32
	ApplicationID uint32
	FreelistPages uint32
	SQLiteVersion uint32
	TableCount    int
	Materialized  bool
}

// Info reports header facts and catalog totals. PageCount comes from the
// file size, not the header's database-size field, so it stays meaningful
// on files written by older library versions that left the field stale.
func (db *DB) Info() Info {
	h := db.pager.Header()
	return Info{
		Path:          db.snap.Path(),
		PageSize:      db.pager.PageSize(),
		UsableSize:    db.pager.UsableSize(),
		PageCount:     db.pager.NumPages(),
		Encoding:      h.EncodingName(),
		SchemaFormat:  h.SchemaFormat,
		SchemaCookie:  h.SchemaCookie,
		UserVersion:   h.UserVersion,
		ApplicationID: h.ApplicationID,
		FreelistPages: h.FreelistCount,
		SQLiteVersion: h.SQLiteVersion,
		TableCount:    db.catalog.TableCount(),
		Materialized:  db.snap.Materialized(),
	}
}

// TableNames returns table names in catalog order. Internal sqlite_
// tables are included only when includeInternal is set.
func (db *DB) TableNames(includeInternal bool) []string {
	var names []string
	for _, e := range db.catalog.Tables() {
		if !includeInternal && e.IsInternal() {
			continue
		}
		names = append(names, e.Name)
	}
	return names
}

// Schema returns the stored CREATE statement for a table.
func (db *DB) Schema(table string) (string, error) {
	entry, err := db.catalog.ResolveTable(table)
	if err != nil {
		return "", err
	}
	return entry.SQL, nil
}

// storageTable resolves a table that has an actual b-tree behind it.
func (db *DB) storageTable(name string) (*schema.Entry, error) {
	entry, err := db.catalog.ResolveTable(name)
	if err != nil {
		return nil, err
	}
	if entry.RootPage == 0 {
		return nil, errors.NewUnsupported("virtual table", name+" has no b-tree storage")
	}
	return entry, nil
}

// CountRows returns the number of rows in a table without decoding
// record payloads.
func (db *DB) CountRows(table string) (int64, error) {
	entry, err := db.storageTable(table)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	count, err := btree.CountRows(db.pager, entry.RootPage)
	if err != nil {
		return 0, err
	}
	logging.TableWalk(entry.Name, count, time.Since(start))

	return count, nil
}

// WalkRows streams every decoded row of a table through fn in rowid
// order. The record is only valid for the duration of the call.
func (db *DB) WalkRows(table string, fn func(rowid int64, rec *record.Record) error) error {
	entry, err := db.storageTable(table)
	if err != nil {
		return err
	}

	start := time.Now()
	var rows int64
	err = btree.WalkTable(db.pager, entry.RootPage, func(rowid int64, payload []byte) error {
		rec, err := record.Parse(payload)
		if err != nil {
			return errors.Wrapf(err, "table %s row %d", entry.Name, rowid)
		}
		rows++
		return fn(rowid, rec)
	})
	if err != nil {
		return err
	}
	logging.TableWalk(entry.Name, rows, time.Since(start))

	return nil
}

// SelectColumns streams the named columns of every row through fn as
// display strings, in rowid order. Columns resolve by name against the
// stored CREATE statement; an INTEGER PRIMARY KEY column reads back its
// value from the cell rowid.
func (db *DB) SelectColumns(table string, columns []string, fn func(rowid int64, values []string) error) error {
	entry, err := db.storageTable(table)
	if err != nil {
		return err
	}

	def, err := schema.ParseCreateTable(entry.SQL)
	if err != nil {
		return err
	}

	indices := make([]int, len(columns))
	for i, col := range columns {
		idx := def.ColumnIndex(col)
		if idx < 0 {
			return errors.NewNotFound("column", col)
		}
		indices[i] = idx
	}

	values := make([]string, len(columns))
	return db.WalkRows(table, func(rowid int64, rec *record.Record) error {
		for i, idx := range indices {
			// Rows written before an ALTER TABLE ADD COLUMN carry fewer
			// values than the schema has columns; the missing ones are NULL.
			v := record.NullValue()
			if idx < len(rec.Values) {
				v = rec.Values[idx]
			}
			if def.Columns[idx].RowidAlias && v.Kind == record.KindNull {
				values[i] = strconv.FormatInt(rowid, 10)
			} else {
				values[i] = v.Display()
			}
		}
		return fn(rowid, values)
	})
}

// HashFile returns the hex BLAKE3 digest of the raw database bytes. For
// compressed snapshots this digests the decompressed file.
func (db *DB) HashFile() (string, error) {
	size, err := db.snap.Size()
	if err != nil {
		return "", err
	}
	// A section reader leaves the snapshot's own file offset alone.
	return integrity.HashReader(io.NewSectionReader(db.snap.File(), 0, size))
}

// HashTable returns the hex BLAKE3 digest of one table's logical content
// and the number of rows it covers.
func (db *DB) HashTable(table string) (string, int64, error) {
	entry, err := db.storageTable(table)
	if err != nil {
		return "", 0, err
	}

	start := time.Now()
	digest, rows, err := integrity.HashTable(db.pager, entry.RootPage)
	if err != nil {
		return "", 0, err
	}
	logging.TableWalk(entry.Name, rows, time.Since(start))

	return digest, rows, nil
}

// Verify decodes every row of every table, sqlite_master included, and
// reports per-table outcomes.
func (db *DB) Verify() *integrity.Report {
	return integrity.Verify(db.pager, db.catalog)
}
