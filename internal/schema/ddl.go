package schema

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/tamarack/core/errors"
)

// TableDef is the column layout extracted from a CREATE TABLE statement.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// ColumnDef describes one column of a table.
type ColumnDef struct {
	Name string
	Type string

	// RowidAlias is true for an INTEGER PRIMARY KEY column. Such columns
	// are stored as NULL in the record; the cell rowid holds the value.
	RowidAlias bool
}

// ColumnIndex returns the position of the named column, or -1.
func (d *TableDef) ColumnIndex(name string) int {
	for i, col := range d.Columns {
		if strings.EqualFold(col.Name, name) {
			return i
		}
	}
	return -1
}

// tableConstraintKeywords start a table-level constraint clause. A column
// list ends at the first segment led by one of these.
var tableConstraintKeywords = map[string]bool{
	"PRIMARY":    true,
	"UNIQUE":     true,
	"CHECK":      true,
	"FOREIGN":    true,
	"CONSTRAINT": true,
}

// columnConstraintKeywords end the type name inside a column definition.
var columnConstraintKeywords = map[string]bool{
	"PRIMARY":    true,
	"NOT":        true,
	"NULL":       true,
	"UNIQUE":     true,
	"CHECK":      true,
	"DEFAULT":    true,
	"COLLATE":    true,
	"REFERENCES": true,
	"GENERATED":  true,
	"AS":         true,
}

// ParseCreateTable extracts the table name and column layout from a
// CREATE TABLE statement as stored in sqlite_master. Statements it cannot
// follow are reported as unsupported, never misread.
func ParseCreateTable(sql string) (*TableDef, error) {
	tokens, err := tokenizeSQL(sql)
	if err != nil {
		return nil, err
	}

	pos := 0
	expectKeyword := func(word string) error {
		if pos >= len(tokens) || !tokens[pos].isKeyword(word) {
			return errors.NewUnsupported("table definition",
				fmt.Sprintf("expected %s in %q", word, sql))
		}
		pos++
		return nil
	}

	if err := expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	if pos < len(tokens) && (tokens[pos].isKeyword("TEMP") || tokens[pos].isKeyword("TEMPORARY")) {
		pos++
	}
	if err := expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	if pos+2 < len(tokens) && tokens[pos].isKeyword("IF") &&
		tokens[pos+1].isKeyword("NOT") && tokens[pos+2].isKeyword("EXISTS") {
		pos += 3
	}

	if pos >= len(tokens) || !tokens[pos].isName() {
		return nil, errors.NewUnsupported("table definition",
			fmt.Sprintf("missing table name in %q", sql))
	}
	def := &TableDef{Name: tokens[pos].name()}
	pos++

	if pos >= len(tokens) || !tokens[pos].isPunct("(") {
		return nil, errors.NewUnsupported("table definition",
			fmt.Sprintf("missing column list in %q", sql))
	}
	pos++

	segments, err := splitColumnSegments(tokens[pos:], sql)
	if err != nil {
		return nil, err
	}

	for _, segment := range segments {
		lead := segment[0]
		if lead.kind == tokIdent && tableConstraintKeywords[strings.ToUpper(lead.text)] {
			break
		}
		if !lead.isName() {
			return nil, errors.NewUnsupported("table definition",
				fmt.Sprintf("cannot read a column name from %q", sql))
		}
		def.Columns = append(def.Columns, parseColumnDef(segment))
	}

	if len(def.Columns) == 0 {
		return nil, errors.NewUnsupported("table definition",
			fmt.Sprintf("no columns found in %q", sql))
	}

	return def, nil
}

// splitColumnSegments groups the tokens of the parenthesized body into
// depth-zero comma-separated segments, stopping at the matching close.
func splitColumnSegments(tokens []sqlToken, sql string) ([][]sqlToken, error) {
	var segments [][]sqlToken
	var current []sqlToken
	depth := 0

	flush := func() {
		if len(current) > 0 {
			segments = append(segments, current)
			current = nil
		}
	}

	for _, tok := range tokens {
		if tok.kind == tokPunct {
			switch tok.text {
			case "(":
				depth++
			case ")":
				if depth == 0 {
					flush()
					return segments, nil
				}
				depth--
			case ",":
				if depth == 0 {
					flush()
					continue
				}
			}
		}
		current = append(current, tok)
	}

	return nil, errors.NewUnsupported("table definition",
		fmt.Sprintf("unbalanced parentheses in %q", sql))
}

// parseColumnDef reads one depth-zero segment: a column name, an optional
// type, then constraints. Only the INTEGER PRIMARY KEY combination matters
// beyond the name.
func parseColumnDef(segment []sqlToken) ColumnDef {
	col := ColumnDef{Name: segment[0].name()}

	var typeWords []string
	i := 1
	for ; i < len(segment); i++ {
		tok := segment[i]
		if tok.kind != tokIdent || columnConstraintKeywords[strings.ToUpper(tok.text)] {
			break
		}
		typeWords = append(typeWords, tok.text)
	}
	col.Type = strings.Join(typeWords, " ")

	for ; i < len(segment); i++ {
		if segment[i].isKeyword("PRIMARY") && i+1 < len(segment) && segment[i+1].isKeyword("KEY") {
			col.RowidAlias = strings.EqualFold(col.Type, "INTEGER")
			break
		}
	}

	return col
}
