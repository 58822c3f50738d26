package sqlops

import (
	"errors"
	"io/fs"
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionName(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"upper", "CREATE FUNCTION foo(a int) RETURNS int AS $$ SELECT a $$ LANGUAGE sql;", "foo"},
		{"lower", "create function foo() returns void as $$ $$ language sql;", "foo"},
		{"or replace", "CREATE OR REPLACE FUNCTION touch_updated_at() RETURNS trigger", "touch_updated_at"},
		{"extra whitespace", "create   or   replace\n function\tbar (x int)", "bar"},
		{"schema qualified", "create function billing.order_total(order_id bigint)", "billing.order_total"},
		{"unicode name", "create function café(x int) returns int", "café"},
		{"first match wins", "CREATE FUNCTION first() ...; CREATE FUNCTION second() ...;", "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FunctionName(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFunctionNameNotFound(t *testing.T) {
	for _, sql := range []string{
		"",
		"CREATE TABLE foo (id int)",
		"DROP FUNCTION foo",
		"CREATE PROCEDURE foo()",
	} {
		_, err := FunctionName(sql)
		assert.ErrorIs(t, err, ErrFunctionNameNotFound, sql)
	}
}

func TestCreateFunctionFromFile(t *testing.T) {
	fsys := os.DirFS("testdata")

	op, err := CreateFunctionFromFile(fsys, "functions/touch_updated_at_v1.sql")
	require.NoError(t, err)

	raw, err := fs.ReadFile(fsys, "functions/touch_updated_at_v1.sql")
	require.NoError(t, err)
	assert.Equal(t, string(raw), op.Forward)
	assert.Equal(t, "DROP FUNCTION touch_updated_at", op.Reverse)
}

func TestCreateFunctionFromFileSchemaQualified(t *testing.T) {
	op, err := CreateFunctionFromFile(os.DirFS("testdata"), "functions/order_total.sql")
	require.NoError(t, err)
	assert.Equal(t, "DROP FUNCTION billing.order_total", op.Reverse)
}

func TestCreateFunctionFromFileWithoutFunction(t *testing.T) {
	_, err := CreateFunctionFromFile(os.DirFS("testdata"), "functions/no_function.sql")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFunctionNameNotFound)
	assert.Contains(t, err.Error(), "functions/no_function.sql")
}

func TestCreateFunctionFromFileMissing(t *testing.T) {
	_, err := CreateFunctionFromFile(fstest.MapFS{}, "functions/missing.sql")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, errors.Is(err, ErrFunctionNameNotFound))
}

func TestUpdateFunctionFromFile(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/new.sql": {Data: []byte("CREATE OR REPLACE FUNCTION f() RETURNS int AS $$ SELECT 2 $$ LANGUAGE sql;")},
		"sql/old.sql": {Data: []byte("-- not even a function\nSELECT 1;")},
	}

	op, err := UpdateFunctionFromFile(fsys, "sql/new.sql", "sql/old.sql")
	require.NoError(t, err)
	assert.Equal(t, "CREATE OR REPLACE FUNCTION f() RETURNS int AS $$ SELECT 2 $$ LANGUAGE sql;", op.Forward)
	assert.Equal(t, "-- not even a function\nSELECT 1;", op.Reverse)
}

func TestUpdateFunctionFromFileMissingOld(t *testing.T) {
	fsys := fstest.MapFS{
		"new.sql": {Data: []byte("CREATE FUNCTION f() ...")},
	}

	_, err := UpdateFunctionFromFile(fsys, "new.sql", "old.sql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "old.sql")
}

func TestLoadSQLNilFS(t *testing.T) {
	_, err := LoadSQL(nil, "a.sql")
	require.Error(t, err)
}

func TestMust(t *testing.T) {
	op := Must(RunSQL("SELECT 1", "SELECT 2"), nil)
	assert.Equal(t, "SELECT 1", op.Forward)

	assert.Panics(t, func() {
		Must(CreateFunctionFromFile(fstest.MapFS{}, "missing.sql"))
	})
}
