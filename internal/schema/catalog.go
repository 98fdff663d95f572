// Package schema loads the database catalog from the sqlite_master table
// and resolves table names to their root pages.
package schema

import (
	"fmt"
	"math"
	"strings"

	"github.com/FocuswithJustin/tamarack/core/errors"
	"github.com/FocuswithJustin/tamarack/internal/btree"
	"github.com/FocuswithJustin/tamarack/internal/record"
)

// sqlite_master table schema:
//
// CREATE TABLE sqlite_master (
//   type TEXT,      -- "table", "index", "trigger", "view"
//   name TEXT,      -- object name
//   tbl_name TEXT,  -- table name (for indexes/triggers)
//   rootpage INT,   -- root B-tree page
//   sql TEXT        -- CREATE statement
// );
//
// The sqlite_master table is always rooted at page 1.

const masterRootPage = 1

// Entry is one row of sqlite_master.
type Entry struct {
	Type     string // "table", "index", "trigger", "view"
	Name     string // Object name
	TblName  string // Associated table name
	RootPage uint32 // Root page number (0 for views and triggers)
	SQL      string // CREATE statement ("" when stored as NULL)
	RowID    int64  // sqlite_master rowid of this entry
}

// IsInternal reports whether the entry describes an object managed by the
// database engine itself rather than user DDL.
func (e *Entry) IsInternal() bool {
	return strings.HasPrefix(e.Name, "sqlite_")
}

// Catalog holds all sqlite_master entries in schema-row (rowid) order.
type Catalog struct {
	Entries []Entry
}

// Load walks the sqlite_master b-tree on page 1 and decodes every entry.
// Each row goes through the general record decoder; nothing about the
// five-column layout is special-cased below the value checks here.
func Load(src btree.PageSource) (*Catalog, error) {
	catalog := &Catalog{}

	err := btree.WalkTable(src, masterRootPage, func(rowid int64, payload []byte) error {
		rec, err := record.Parse(payload)
		if err != nil {
			return errors.Wrapf(err, "schema row %d", rowid)
		}

		entry, err := entryFromRecord(rec, rowid)
		if err != nil {
			return err
		}
		catalog.Entries = append(catalog.Entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return catalog, nil
}

func entryFromRecord(rec *record.Record, rowid int64) (Entry, error) {
	if len(rec.Values) < 5 {
		return Entry{}, errors.NewCorrupt(masterRootPage, -1,
			fmt.Sprintf("schema row %d has %d columns, want 5", rowid, len(rec.Values)), nil)
	}

	entry := Entry{RowID: rowid}

	var err error
	if entry.Type, err = textColumn(rec.Values[0], "type", rowid); err != nil {
		return Entry{}, err
	}
	if entry.Name, err = textColumn(rec.Values[1], "name", rowid); err != nil {
		return Entry{}, err
	}
	if entry.TblName, err = textColumn(rec.Values[2], "tbl_name", rowid); err != nil {
		return Entry{}, err
	}

	rootpage := rec.Values[3]
	if rootpage.Kind != record.KindInteger || rootpage.Int < 0 || rootpage.Int > math.MaxUint32 {
		return Entry{}, errors.NewCorrupt(masterRootPage, -1,
			fmt.Sprintf("schema row %d rootpage is not a page number", rowid), nil)
	}
	entry.RootPage = uint32(rootpage.Int)

	// sql is NULL for some internal objects, such as auto-indexes.
	sqlText := rec.Values[4]
	switch sqlText.Kind {
	case record.KindText:
		entry.SQL = sqlText.Text
	case record.KindNull:
	default:
		return Entry{}, errors.NewCorrupt(masterRootPage, -1,
			fmt.Sprintf("schema row %d sql column is not text", rowid), nil)
	}

	return entry, nil
}

func textColumn(v record.Value, column string, rowid int64) (string, error) {
	if v.Kind != record.KindText {
		return "", errors.NewCorrupt(masterRootPage, -1,
			fmt.Sprintf("schema row %d %s column is not text", rowid, column), nil)
	}
	return v.Text, nil
}

// Tables returns the entries of type "table", in schema-row order.
func (c *Catalog) Tables() []Entry {
	var tables []Entry
	for _, e := range c.Entries {
		if e.Type == "table" {
			tables = append(tables, e)
		}
	}
	return tables
}

// TableCount returns the number of "table" entries, internal ones included.
func (c *Catalog) TableCount() int {
	count := 0
	for _, e := range c.Entries {
		if e.Type == "table" {
			count++
		}
	}
	return count
}

// ResolveTable finds the first "table" entry whose tbl_name matches name.
// Index and view entries never match, even when their tbl_name does.
func (c *Catalog) ResolveTable(name string) (*Entry, error) {
	for i := range c.Entries {
		e := &c.Entries[i]
		if e.Type == "table" && e.TblName == name {
			return e, nil
		}
	}
	return nil, errors.NewNotFound("table", name)
}
