package sqlops

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pocketbase/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type recordingExecutor struct {
	queries []string
	err     error
}

func (e *recordingExecutor) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	e.queries = append(e.queries, query)
	return nil, e.err
}

func TestApplyAndRevert(t *testing.T) {
	exec := &recordingExecutor{}
	op := CreateSequenceFrom("ticket_seq", 42)

	require.NoError(t, op.Apply(context.Background(), exec))
	require.NoError(t, op.Revert(context.Background(), exec))

	assert.Equal(t, []string{
		"CREATE SEQUENCE ticket_seq START WITH 42",
		"DROP SEQUENCE ticket_seq",
	}, exec.queries)
}

func TestRevertIrreversible(t *testing.T) {
	exec := &recordingExecutor{}

	err := RunSQL("UPDATE t SET a = 1", "  ").Revert(context.Background(), exec)

	assert.ErrorIs(t, err, ErrIrreversible)
	assert.Empty(t, exec.queries)
}

func TestApplyWrapsExecutorError(t *testing.T) {
	boom := errors.New("boom")
	exec := &recordingExecutor{err: boom}

	err := SetDefault("t", "c", "1").Apply(context.Background(), exec)

	assert.ErrorIs(t, err, boom)
}

func TestApplyNilExecutor(t *testing.T) {
	assert.Error(t, SetDefault("t", "c", "1").Apply(context.Background(), nil))
	assert.Error(t, SetDefault("t", "c", "1").Revert(context.Background(), nil))
}

func TestDBXExecutorRunsIndexOperation(t *testing.T) {
	db, err := dbx.Open("sqlite", filepath.Join(t.TempDir(), "ops.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	exec := DBX(db)

	_, err = exec.ExecContext(ctx, "CREATE TABLE events (kind TEXT, created_at TEXT)")
	require.NoError(t, err)

	op := AddIndex("idx_events_kind", "events", []string{"kind", "created_at"})
	require.NoError(t, op.Apply(ctx, exec))
	assert.Equal(t, 1, countIndexes(t, db, "idx_events_kind"))

	require.NoError(t, op.Revert(ctx, exec))
	assert.Equal(t, 0, countIndexes(t, db, "idx_events_kind"))
}

func TestDBXExecutorRejectsArgs(t *testing.T) {
	_, err := DBX(nil).ExecContext(context.Background(), "SELECT 1")
	assert.Error(t, err)

	db, err := dbx.Open("sqlite", filepath.Join(t.TempDir(), "args.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = DBX(db).ExecContext(context.Background(), "SELECT ?", 1)
	assert.Error(t, err)
}

func countIndexes(t *testing.T, db *dbx.DB, name string) int {
	t.Helper()
	var n int
	err := db.NewQuery("SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = {:name}").
		Bind(dbx.Params{"name": name}).
		Row(&n)
	require.NoError(t, err)
	return n
}
