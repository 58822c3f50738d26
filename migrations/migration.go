package migrations

import (
	"context"
	"fmt"

	"github.com/eqr/sqlops"
)

// Migration defines a reversible schema change.
// Implementations must return a stable, sortable name (e.g. 20250121_add_users)
// and provide Up/Down hooks that perform the forward and rollback work.
type Migration interface {
	Name() string
	Up(ctx context.Context, exec sqlops.Executor) error
	Down(ctx context.Context, exec sqlops.Executor) error
}

// SQLMigration is a Migration made of raw SQL operations.
type SQLMigration struct {
	name string
	ops  []sqlops.Operation
}

// New builds a migration that applies ops in order on Up and reverts them in
// reverse order on Down.
func New(name string, ops ...sqlops.Operation) *SQLMigration {
	return &SQLMigration{name: name, ops: ops}
}

func (m *SQLMigration) Name() string { return m.name }

// Operations returns a copy of the migration operations.
func (m *SQLMigration) Operations() []sqlops.Operation {
	out := make([]sqlops.Operation, len(m.ops))
	copy(out, m.ops)
	return out
}

func (m *SQLMigration) Up(ctx context.Context, exec sqlops.Executor) error {
	for i, op := range m.ops {
		if err := op.Apply(ctx, exec); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

// Down fails with sqlops.ErrIrreversible before running anything if any
// operation lacks reverse SQL.
func (m *SQLMigration) Down(ctx context.Context, exec sqlops.Executor) error {
	for i, op := range m.ops {
		if !op.Reversible() {
			return fmt.Errorf("operation %d: %w", i, sqlops.ErrIrreversible)
		}
	}

	for i := len(m.ops) - 1; i >= 0; i-- {
		if err := m.ops[i].Revert(ctx, exec); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}
