// Command tamarack inspects read-only SQLite database snapshots.
// It reports header facts, lists tables, prints stored schemas, counts
// rows, projects columns, and digests content. There is no write path.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/tamarack/core/dbfile"
	"github.com/FocuswithJustin/tamarack/internal/logging"
	"github.com/FocuswithJustin/tamarack/internal/query"
)

const version = "0.1.0"

// CLI defines the command-line interface for tamarack.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log output format (text, json)"`
	Quiet     bool   `short:"q" help:"Silence logs below the error level"`

	Info    InfoCmd    `cmd:"" help:"Print header facts about a database snapshot"`
	Tables  TablesCmd  `cmd:"" help:"List user table names"`
	Schema  SchemaCmd  `cmd:"" help:"Print stored CREATE statements"`
	Count   CountCmd   `cmd:"" help:"Count the rows of a table"`
	Query   QueryCmd   `cmd:"" help:"Run a read-only statement against a snapshot"`
	Hash    HashCmd    `cmd:"" help:"Print the BLAKE3 digest of a snapshot or one table"`
	Verify  VerifyCmd  `cmd:"" help:"Decode every row of every table and report damage"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// openSnapshot opens a database for a command, logging decode failures.
func openSnapshot(path string) (*dbfile.DB, error) {
	db, err := dbfile.Open(path)
	if err != nil {
		logging.DecodeError(path, err, "operation", "open")
		return nil, err
	}
	return db, nil
}

// InfoCmd prints header facts about a snapshot.
type InfoCmd struct {
	Path string `arg:"" help:"Path to database snapshot" type:"existingfile"`
}

func (c *InfoCmd) Run() error {
	db, err := openSnapshot(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	info := db.Info()
	fmt.Printf("database page size: %d\n", info.PageSize)
	fmt.Printf("database size in pages: %d\n", info.PageCount)
	fmt.Printf("text encoding: %s\n", info.Encoding)
	fmt.Printf("schema format: %d\n", info.SchemaFormat)
	fmt.Printf("schema cookie: %d\n", info.SchemaCookie)
	fmt.Printf("freelist pages: %d\n", info.FreelistPages)
	fmt.Printf("user version: %d\n", info.UserVersion)
	fmt.Printf("application id: %d\n", info.ApplicationID)
	fmt.Printf("software version: %d\n", info.SQLiteVersion)
	fmt.Printf("number of tables: %d\n", info.TableCount)
	if info.Materialized {
		fmt.Println("materialized from compressed snapshot: yes")
	}
	return nil
}

// TablesCmd lists table names on one line, like the classic .tables output.
type TablesCmd struct {
	Path string `arg:"" help:"Path to database snapshot" type:"existingfile"`
	All  bool   `help:"Include internal sqlite_ tables"`
}

func (c *TablesCmd) Run() error {
	db, err := openSnapshot(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	names := db.TableNames(c.All)
	if len(names) > 0 {
		fmt.Println(strings.Join(names, " "))
	}
	return nil
}

// SchemaCmd prints stored CREATE statements.
type SchemaCmd struct {
	Path  string `arg:"" help:"Path to database snapshot" type:"existingfile"`
	Table string `arg:"" optional:"" help:"Print only this table's statement"`
}

func (c *SchemaCmd) Run() error {
	db, err := openSnapshot(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Table != "" {
		sql, err := db.Schema(c.Table)
		if err != nil {
			return err
		}
		fmt.Printf("%s;\n", sql)
		return nil
	}

	for _, entry := range db.Catalog().Tables() {
		if entry.IsInternal() || entry.SQL == "" {
			continue
		}
		fmt.Printf("%s;\n", entry.SQL)
	}
	return nil
}

// CountCmd counts the rows of one table.
type CountCmd struct {
	Path  string `arg:"" help:"Path to database snapshot" type:"existingfile"`
	Table string `arg:"" help:"Table to count"`
}

func (c *CountCmd) Run() error {
	db, err := openSnapshot(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	count, err := db.CountRows(c.Table)
	if err != nil {
		return err
	}
	fmt.Println(count)
	return nil
}

// QueryCmd recognizes the closed statement language and executes it.
type QueryCmd struct {
	Path      string `arg:"" help:"Path to database snapshot" type:"existingfile"`
	Statement string `arg:"" help:"SELECT COUNT(*) FROM t, or SELECT col[, col...] FROM t"`
	Separator string `default:"|" help:"Column separator for row output"`
}

func (c *QueryCmd) Run() error {
	q, err := query.Parse(c.Statement)
	if err != nil {
		return err
	}

	db, err := openSnapshot(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if q.Count {
		count, err := db.CountRows(q.Table)
		if err != nil {
			return err
		}
		fmt.Println(count)
		return nil
	}

	return db.SelectColumns(q.Table, q.Columns, func(_ int64, values []string) error {
		fmt.Println(strings.Join(values, c.Separator))
		return nil
	})
}

// HashCmd prints BLAKE3 digests.
type HashCmd struct {
	Path  string `arg:"" help:"Path to database snapshot" type:"existingfile"`
	Table string `arg:"" optional:"" help:"Digest one table's logical content instead of the file"`
}

func (c *HashCmd) Run() error {
	db, err := openSnapshot(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Table != "" {
		digest, _, err := db.HashTable(c.Table)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", digest, c.Table)
		return nil
	}

	digest, err := db.HashFile()
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s\n", digest, db.Path())
	return nil
}

// VerifyCmd walks every table tree and decodes every row.
type VerifyCmd struct {
	Path string `arg:"" help:"Path to database snapshot" type:"existingfile"`
}

func (c *VerifyCmd) Run() error {
	db, err := openSnapshot(c.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	info := db.Info()
	fmt.Printf("Database: %s\n", db.Path())

	report := db.Verify()
	for _, check := range report.Checks {
		if check.Err != nil {
			fmt.Printf("  [FAIL] %s: %v\n", check.Table, check.Err)
			continue
		}
		fmt.Printf("  [OK] %s (%d rows)\n", check.Table, check.Rows)
	}

	if failures := report.Failures(); len(failures) > 0 {
		return fmt.Errorf("verification failed: %d table(s) with errors", len(failures))
	}

	fmt.Printf("ok: %d pages, %d tables, %d rows\n", info.PageCount, info.TableCount, report.Rows())
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("tamarack version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("tamarack"),
		kong.Description("Read-only SQLite snapshot inspector"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level := logging.ParseLevel(CLI.LogLevel)
	if CLI.Quiet {
		level = logging.LevelError
	}
	logging.InitLogger(level, logging.ParseFormat(CLI.LogFormat))

	runCtx := logging.WithRunID(context.Background(), logging.NewRunID())
	logging.DebugContext(runCtx, "run starting", "version", version, "command", ctx.Command())

	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
