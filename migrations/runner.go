package migrations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pocketbase/dbx"

	"github.com/eqr/sqlops"
)

// Runner executes registered migrations against a database and records progress.
type Runner struct {
	db         *dbx.DB
	migrations []Migration
	tableName  string
	byName     map[string]Migration
	autoCreate bool
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures the Runner.
type Option func(*Runner)

// WithTableName overrides the default migrations table name.
func WithTableName(name string) Option {
	trimmed := strings.TrimSpace(name)
	return func(r *Runner) {
		if trimmed != "" {
			r.tableName = trimmed
		}
	}
}

// WithAutoCreate controls whether the migrations table is created automatically when missing.
// Defaults to true.
func WithAutoCreate(autoCreate bool) Option {
	return func(r *Runner) {
		r.autoCreate = autoCreate
	}
}

// WithLogger attaches a logger for applied and reverted migrations.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner constructs a Runner with optional configuration.
func NewRunner(db *dbx.DB, opts ...Option) *Runner {
	r := &Runner{
		db:         db,
		tableName:  defaultTableName,
		byName:     make(map[string]Migration),
		autoCreate: true,
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if r.tableName == "" {
		r.tableName = defaultTableName
	}

	return r
}

// Register adds a single migration, ensuring unique names.
func (r *Runner) Register(m Migration) error {
	if m == nil {
		return errors.New("migration is nil")
	}

	name := strings.TrimSpace(m.Name())
	if name == "" {
		return errors.New("migration name is required")
	}

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMigration, name)
	}

	r.byName[name] = m
	r.migrations = append(r.migrations, m)
	return nil
}

// RegisterAll adds multiple migrations in order.
func (r *Runner) RegisterAll(migrations ...Migration) error {
	for _, m := range migrations {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// Run executes pending migrations in name order. Each migration runs in its
// own transaction together with its bookkeeping row.
func (r *Runner) Run(ctx context.Context) error {
	pending, err := r.Pending(ctx)
	if err != nil {
		return err
	}

	for _, m := range pending {
		name := strings.TrimSpace(m.Name())

		err := r.db.TransactionalContext(ctx, nil, func(tx *dbx.Tx) error {
			if err := m.Up(ctx, sqlops.DBX(tx)); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrMigrationFailed, name, err)
			}
			if err := r.recordMigration(ctx, tx, name); err != nil {
				return fmt.Errorf("record migration %s: %w", name, err)
			}
			return nil
		})
		if err != nil {
			r.log(ctx, slog.LevelError, "migration failed", "name", name, "error", err)
			return err
		}

		r.log(ctx, slog.LevelInfo, "applied migration", "name", name)
	}

	return nil
}

// Pending returns registered migrations that have not been applied.
func (r *Runner) Pending(ctx context.Context) ([]Migration, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}

	applied, err := r.fetchApplied(ctx)
	if err != nil {
		return nil, err
	}

	appliedNames := make(map[string]struct{}, len(applied))
	for _, rec := range applied {
		appliedNames[rec.Name] = struct{}{}
	}

	pending := make([]Migration, 0)
	for _, m := range r.sortedMigrations() {
		if _, ok := appliedNames[strings.TrimSpace(m.Name())]; !ok {
			pending = append(pending, m)
		}
	}

	return pending, nil
}

// Applied returns the migration records stored in the migrations table,
// oldest first.
func (r *Runner) Applied(ctx context.Context) ([]Record, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	return r.fetchApplied(ctx)
}

// Down rolls back the latest n applied migrations.
func (r *Runner) Down(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}

	if err := r.ensureTable(ctx); err != nil {
		return err
	}

	applied, err := r.fetchApplied(ctx)
	if err != nil {
		return err
	}

	sort.SliceStable(applied, func(i, j int) bool {
		if applied[i].AppliedAt.Equal(applied[j].AppliedAt.Time) {
			return applied[i].Name > applied[j].Name
		}
		return applied[i].AppliedAt.After(applied[j].AppliedAt.Time)
	})

	if n > len(applied) {
		n = len(applied)
	}

	for i := 0; i < n; i++ {
		rec := applied[i]
		mig := r.byName[rec.Name]
		if mig == nil {
			return fmt.Errorf("%w: %s", ErrMigrationNotFound, rec.Name)
		}

		err := r.db.TransactionalContext(ctx, nil, func(tx *dbx.Tx) error {
			if err := mig.Down(ctx, sqlops.DBX(tx)); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrMigrationFailed, rec.Name, err)
			}
			if err := r.deleteMigration(ctx, tx, rec.Name); err != nil {
				return fmt.Errorf("delete migration %s: %w", rec.Name, err)
			}
			return nil
		})
		if err != nil {
			r.log(ctx, slog.LevelError, "rollback failed", "name", rec.Name, "error", err)
			return err
		}

		r.log(ctx, slog.LevelInfo, "reverted migration", "name", rec.Name)
	}

	return nil
}

func (r *Runner) sortedMigrations() []Migration {
	copySlice := make([]Migration, len(r.migrations))
	copy(copySlice, r.migrations)

	sort.Slice(copySlice, func(i, j int) bool {
		return strings.TrimSpace(copySlice[i].Name()) < strings.TrimSpace(copySlice[j].Name())
	})

	return copySlice
}

func (r *Runner) ensureTable(ctx context.Context) error {
	if r.db == nil {
		return errors.New("runner db is nil")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	exists, err := r.tableExists(ctx)
	if err != nil {
		return fmt.Errorf("check migrations table %s: %w", r.tableName, err)
	}
	if exists {
		return nil
	}

	if !r.autoCreate {
		return fmt.Errorf("%w: %s", ErrTableNotFound, r.tableName)
	}
	return r.createTable(ctx)
}

// tableExists looks the tracking table up in the database catalog.
func (r *Runner) tableExists(ctx context.Context) (bool, error) {
	var query string
	switch r.db.DriverName() {
	case "sqlite", "sqlite3":
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = {:name}"
	case "postgres", "pgx":
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = {:name}"
	default:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = {:name}"
	}

	var count int
	err := r.db.NewQuery(query).
		Bind(dbx.Params{"name": r.tableName}).
		WithContext(ctx).
		Row(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Runner) createTable(ctx context.Context) error {
	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS {{%s}} (
    [[name]] TEXT PRIMARY KEY,
    [[applied_at]] TEXT NOT NULL
)`, r.tableName)

	if _, err := r.db.NewQuery(createSQL).WithContext(ctx).Execute(); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	r.log(ctx, slog.LevelDebug, "created migrations table", "table", r.tableName)
	return nil
}

func (r *Runner) fetchApplied(ctx context.Context) ([]Record, error) {
	all := make([]Record, 0)
	err := r.db.Select("name", "applied_at").
		From(r.tableName).
		OrderBy("applied_at ASC", "name ASC").
		WithContext(ctx).
		All(&all)
	if err != nil {
		return nil, fmt.Errorf("fetch applied migrations: %w", err)
	}
	return all, nil
}

func (r *Runner) recordMigration(ctx context.Context, tx *dbx.Tx, name string) error {
	_, err := tx.Insert(r.tableName, dbx.Params{
		"name":       name,
		"applied_at": Timestamp{Time: r.now().UTC()},
	}).WithContext(ctx).Execute()
	return err
}

func (r *Runner) deleteMigration(ctx context.Context, tx *dbx.Tx, name string) error {
	_, err := tx.Delete(r.tableName, dbx.HashExp{"name": name}).WithContext(ctx).Execute()
	return err
}

func (r *Runner) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Log(ctx, level, msg, args...)
}
