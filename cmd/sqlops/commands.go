package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pocketbase/dbx"
	_ "modernc.org/sqlite"

	"github.com/eqr/sqlops"
)

// Mode selects what happens to built operations.
type Mode int

const (
	ModeRender Mode = iota
	ModeApply
	ModeRevert
)

func modeFromFlags(apply, revert bool) Mode {
	switch {
	case apply:
		return ModeApply
	case revert:
		return ModeRevert
	default:
		return ModeRender
	}
}

// App carries shared state into command Run methods.
type App struct {
	Config Config
	Out    io.Writer
	Logger *slog.Logger
	Mode   Mode
}

// DefaultCmd sets a column default
type DefaultCmd struct {
	Table  string `arg:"" help:"Table name"`
	Column string `arg:"" help:"Column name"`
	Value  string `arg:"" help:"Default value, string literals must be quoted (see --literal)"`
	Quote  bool   `name:"literal" short:"l" help:"Quote the value as a SQL string literal"`
}

func (c *DefaultCmd) Run(app *App) error {
	value := c.Value
	if c.Quote {
		value = sqlops.Literal(value)
	}
	return app.handle(sqlops.SetDefault(c.Table, c.Column, value))
}

// EmptyDefaultsCmd sets the empty string literal as default on each column
type EmptyDefaultsCmd struct {
	Table   string   `arg:"" help:"Table name"`
	Columns []string `arg:"" help:"Column names"`
}

func (c *EmptyDefaultsCmd) Run(app *App) error {
	return app.handle(sqlops.DefaultEmpty(c.Table, c.Columns)...)
}

// SequenceCmd creates a sequence
type SequenceCmd struct {
	Name  string `arg:"" help:"Sequence name"`
	Start int64  `name:"start" short:"s" default:"1" help:"First value"`
}

func (c *SequenceCmd) Run(app *App) error {
	return app.handle(sqlops.CreateSequenceFrom(c.Name, c.Start))
}

// IndexCmd creates an index
type IndexCmd struct {
	Name   string   `arg:"" help:"Index name"`
	Table  string   `arg:"" help:"Table name"`
	Fields []string `arg:"" help:"Indexed columns, in order"`
	Unique bool     `name:"unique" short:"u" help:"Create a unique index"`
}

func (c *IndexCmd) Run(app *App) error {
	if c.Unique {
		return app.handle(sqlops.AddUniqueIndex(c.Name, c.Table, c.Fields))
	}
	return app.handle(sqlops.AddIndex(c.Name, c.Table, c.Fields))
}

// ZeroOneCmd adds a 0/1 check constraint
type ZeroOneCmd struct {
	Table      string `arg:"" help:"Table name"`
	Field      string `arg:"" help:"Constrained column"`
	Constraint string `arg:"" help:"Constraint name"`
}

func (c *ZeroOneCmd) Run(app *App) error {
	return app.handle(sqlops.ZeroOneCheck(c.Table, c.Field, c.Constraint))
}

// FunctionCmd creates a function from a SQL file
type FunctionCmd struct {
	Dir  string `name:"dir" short:"d" default:"." type:"existingdir" help:"Directory the path is relative to"`
	Path string `arg:"" help:"SQL file path"`
}

func (c *FunctionCmd) Run(app *App) error {
	op, err := sqlops.CreateFunctionFromFile(os.DirFS(c.Dir), c.Path)
	if err != nil {
		return err
	}
	return app.handle(op)
}

// UpdateFunctionCmd swaps a function definition
type UpdateFunctionCmd struct {
	Dir     string `name:"dir" short:"d" default:"." type:"existingdir" help:"Directory the paths are relative to"`
	NewPath string `arg:"" name:"new" help:"SQL file with the new definition"`
	OldPath string `arg:"" name:"old" help:"SQL file with the current definition"`
}

func (c *UpdateFunctionCmd) Run(app *App) error {
	op, err := sqlops.UpdateFunctionFromFile(os.DirFS(c.Dir), c.NewPath, c.OldPath)
	if err != nil {
		return err
	}
	return app.handle(op)
}

func (a *App) handle(ops ...sqlops.Operation) error {
	if err := render(a.Out, ops...); err != nil {
		return err
	}
	if a.Mode == ModeRender {
		return nil
	}
	return a.execute(context.Background(), ops)
}

func render(w io.Writer, ops ...sqlops.Operation) error {
	for i, op := range ops {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "-- forward\n%s\n-- reverse\n%s\n",
			strings.TrimSpace(op.Forward), strings.TrimSpace(op.Reverse))
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}

func (a *App) execute(ctx context.Context, ops []sqlops.Operation) error {
	if a.Config.DSN == "" {
		return errors.New("SQLOPS_DSN is required with --apply or --revert")
	}

	db, err := openDB(a.Config.Driver, a.Config.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.TransactionalContext(ctx, nil, func(tx *dbx.Tx) error {
		exec := sqlops.DBX(tx)
		if a.Mode == ModeApply {
			for _, op := range ops {
				if err := op.Apply(ctx, exec); err != nil {
					return err
				}
			}
			return nil
		}
		for i := len(ops) - 1; i >= 0; i-- {
			if err := ops[i].Revert(ctx, exec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("execute operations: %w", err)
	}

	if a.Logger != nil {
		action := "applied"
		if a.Mode == ModeRevert {
			action = "reverted"
		}
		a.Logger.Info(action+" operations", "count", len(ops), "driver", a.Config.Driver)
	}
	return nil
}

// openDB opens driverName and wraps it with the dbx builder registered for it.
func openDB(driverName, dsn string) (*dbx.DB, error) {
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}
	return dbx.NewFromDB(sqlDB, driverName), nil
}
