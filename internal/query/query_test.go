package query

import (
	stderrors "errors"
	"testing"

	"github.com/FocuswithJustin/tamarack/core/errors"
)

func TestParseCount(t *testing.T) {
	tests := []string{
		"SELECT COUNT(*) FROM apples",
		"select count(*) from apples",
		"Select Count( * ) From apples",
		"SELECT COUNT(*) FROM apples;",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			q, err := Parse(input)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !q.Count {
				t.Error("Count = false, want true")
			}
			if q.Table != "apples" {
				t.Errorf("Table = %q, want %q", q.Table, "apples")
			}
			if len(q.Columns) != 0 {
				t.Errorf("Columns = %v, want none", q.Columns)
			}
		})
	}
}

func TestParseColumns(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCols  []string
		wantTable string
	}{
		{
			name:      "single column",
			input:     "SELECT name FROM apples",
			wantCols:  []string{"name"},
			wantTable: "apples",
		},
		{
			name:      "multiple columns",
			input:     "select name, color from apples",
			wantCols:  []string{"name", "color"},
			wantTable: "apples",
		},
		{
			name:      "quoted identifiers",
			input:     `SELECT "name", color FROM "my table"`,
			wantCols:  []string{"name", "color"},
			wantTable: "my table",
		},
		{
			name:      "doubled quotes",
			input:     `SELECT "we""ird" FROM t`,
			wantCols:  []string{`we"ird`},
			wantTable: "t",
		},
		{
			name:      "quoted keyword as column",
			input:     `SELECT "count" FROM t`,
			wantCols:  []string{"count"},
			wantTable: "t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}

			if q.Count {
				t.Error("Count = true, want false")
			}
			if q.Table != tt.wantTable {
				t.Errorf("Table = %q, want %q", q.Table, tt.wantTable)
			}
			if len(q.Columns) != len(tt.wantCols) {
				t.Fatalf("got %d columns, want %d", len(q.Columns), len(tt.wantCols))
			}
			for i, want := range tt.wantCols {
				if q.Columns[i] != want {
					t.Errorf("column %d = %q, want %q", i, q.Columns[i], want)
				}
			}
		})
	}
}

func TestParseRejectsOffLanguage(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"SELECT * FROM t",
		"SELECT name FROM t WHERE id = 1",
		"SELECT name FROM t LIMIT 5",
		"DELETE FROM t",
		"INSERT INTO t VALUES (1)",
		"SELECT FROM t",
		"SELECT name",
		"SELECT count FROM t",
		"SELECT name, FROM t",
		"SELECT a FROM t extra",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			if !stderrors.Is(err, errors.ErrUnsupported) {
				t.Errorf("Parse(%q) error %v is not ErrUnsupported", input, err)
			}
		})
	}
}
