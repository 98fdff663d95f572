// Package query recognizes the small read-only statement language of the
// command line tool: COUNT(*) aggregates and plain column projections.
package query

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/tamarack/core/errors"
)

// Query is a parsed statement.
type Query struct {
	// Count is true for SELECT COUNT(*) FROM <table>.
	Count bool

	// Columns holds the projected column names for a plain select,
	// in statement order. Empty when Count is set.
	Columns []string

	// Table is the table named in the FROM clause.
	Table string
}

// queryGrammar is the participle grammar for the statement language.
// Examples: "SELECT COUNT(*) FROM apples", "select name, color from apples"
//
//nolint:govet // participle grammar tags are not standard struct tags
type queryGrammar struct {
	Count   bool        `Select ( @Count "(" "*" ")"`
	Columns []columnRef `| @@ ( "," @@ )* )`
	Table   columnRef   `From @@ ";"?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type columnRef struct {
	Bare   *string `( @Ident`
	Quoted *string `| @QuotedIdent )`
}

// text returns the identifier with quoting removed.
func (c columnRef) text() string {
	if c.Bare != nil {
		return *c.Bare
	}
	quoted := *c.Quoted
	inner := quoted[1 : len(quoted)-1]
	return strings.ReplaceAll(inner, `""`, `"`)
}

// queryLexer defines the lexer for statements. Keyword rules come before
// Ident so SELECT, COUNT and FROM lex as keywords in any case.
var queryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Select", Pattern: `(?i)\bSELECT\b`},
	{Name: "Count", Pattern: `(?i)\bCOUNT\b`},
	{Name: "From", Pattern: `(?i)\bFROM\b`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_$]*`},
	{Name: "Punct", Pattern: `[(),*;]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// queryParser is the participle parser for statements.
var queryParser = participle.MustBuild[queryGrammar](
	participle.Lexer(queryLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a statement. Anything outside the recognized language is
// reported as unsupported rather than guessed at.
func Parse(input string) (*Query, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, errors.NewUnsupported("query",
			"empty statement")
	}

	parsed, err := queryParser.ParseString("", trimmed)
	if err != nil {
		return nil, errors.NewUnsupported("query",
			fmt.Sprintf("cannot parse %q: only SELECT COUNT(*) FROM <table> and SELECT <columns> FROM <table> are recognized", trimmed))
	}

	q := &Query{
		Count: parsed.Count,
		Table: parsed.Table.text(),
	}
	for _, col := range parsed.Columns {
		q.Columns = append(q.Columns, col.text())
	}

	return q, nil
}
