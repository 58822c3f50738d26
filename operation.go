package sqlops

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pocketbase/dbx"
)

// Operation is a reversible raw SQL schema change. Forward is applied on
// upgrade and Reverse on rollback.
type Operation struct {
	Forward string
	Reverse string
}

// Executor runs a single SQL statement. *sql.DB, *sql.Tx and *sql.Conn satisfy it.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// RunSQL builds an operation from raw forward and reverse SQL.
// An empty reverse makes the operation irreversible.
func RunSQL(forward, reverse string) Operation {
	return Operation{Forward: forward, Reverse: reverse}
}

// Must returns op or panics if err is not nil.
// It is meant for package-level migration definitions.
func Must(op Operation, err error) Operation {
	if err != nil {
		panic(err)
	}
	return op
}

// Reversible reports whether the operation carries reverse SQL.
func (o Operation) Reversible() bool {
	return strings.TrimSpace(o.Reverse) != ""
}

// Apply executes the forward SQL.
func (o Operation) Apply(ctx context.Context, exec Executor) error {
	if exec == nil {
		return errors.New("executor is nil")
	}
	if strings.TrimSpace(o.Forward) == "" {
		return nil
	}
	if _, err := exec.ExecContext(ctx, o.Forward); err != nil {
		return fmt.Errorf("apply forward sql: %w", err)
	}
	return nil
}

// Revert executes the reverse SQL.
func (o Operation) Revert(ctx context.Context, exec Executor) error {
	if exec == nil {
		return errors.New("executor is nil")
	}
	if !o.Reversible() {
		return ErrIrreversible
	}
	if _, err := exec.ExecContext(ctx, o.Reverse); err != nil {
		return fmt.Errorf("apply reverse sql: %w", err)
	}
	return nil
}

// DBX adapts a dbx builder (a *dbx.DB, a *dbx.Tx or a PocketBase app DB) to Executor.
func DBX(b dbx.Builder) Executor {
	return dbxExecutor{builder: b}
}

type dbxExecutor struct {
	builder dbx.Builder
}

func (e dbxExecutor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if e.builder == nil {
		return nil, errors.New("dbx builder is nil")
	}
	// dbx binds named params only; raw DDL never carries positional args.
	if len(args) > 0 {
		return nil, fmt.Errorf("dbx executor: %d positional args not supported", len(args))
	}
	return e.builder.NewQuery(query).WithContext(ctx).Execute()
}
