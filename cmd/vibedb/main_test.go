package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibesql/vibedb/internal/dberr"
	"github.com/vibesql/vibedb/internal/version"
)

// run executes the CLI against a SQLite file and returns its stdout.
func run(t *testing.T, dsn string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := newApp(&stdout, &stderr)
	argv := append([]string{"vibedb", "--driver", "sqlite", "--read-dsn", dsn}, args...)
	err := app.Run(argv)
	return stdout.String(), err
}

func newDB(t *testing.T) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "vibedb.db")

	_, err := run(t, dsn, "exec", "CREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT NOT NULL, city TEXT)")
	require.NoError(t, err)
	return dsn
}

func TestCLI_Workflow(t *testing.T) {
	dsn := newDB(t)

	_, err := run(t, dsn, "insert", "--values", `{"id": 1, "username": "felixkiss", "city": "Vienna"}`, "users")
	require.NoError(t, err)
	_, err = run(t, dsn, "insert", "--values", `{"id": 2, "username": "anna", "city": "Linz"}`, "users")
	require.NoError(t, err)
	_, err = run(t, dsn, "insert", "--values", `{"id": 3, "username": "ben"}`, "users")
	require.NoError(t, err)

	out, err := run(t, dsn, "lists", "SELECT username FROM users ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, "felixkiss\nanna\nben\n", out)

	out, err = run(t, dsn, "pluck", "--params", `{":name": "ben"}`, "SELECT city FROM users WHERE username = :name")
	require.NoError(t, err)
	assert.Equal(t, "NULL\n", out)

	_, err = run(t, dsn, "update", "--values", `{"city": "Graz"}`, "--where", "WHERE id = :id", "--where-params", `{":id": 3}`, "users")
	require.NoError(t, err)

	out, err = run(t, dsn, "pluck", "--params", "[3]", "SELECT city FROM users WHERE id = ?")
	require.NoError(t, err)
	assert.Equal(t, "Graz\n", out)

	out, err = run(t, dsn, "exec", "--params", `["Linz"]`, "DELETE FROM users WHERE city = ?")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = run(t, dsn, "lists", "--params", "[10, 1]", "SELECT id FROM users ORDER BY id LIMIT ? OFFSET ?")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestCLI_PluckNoRows(t *testing.T) {
	dsn := newDB(t)

	out, err := run(t, dsn, "pluck", "--params", "[42]", "SELECT username FROM users WHERE id = ?")
	assert.ErrorIs(t, err, errNoRows)
	assert.Empty(t, out)
}

func TestCLI_Errors(t *testing.T) {
	dsn := newDB(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing sql", []string{"lists"}},
		{"bad params", []string{"lists", "--params", "{", "SELECT 1"}},
		{"bad table", []string{"insert", "--values", `{"id": 1}`, "users;"}},
		{"update without where", []string{"update", "--values", `{"city": "x"}`, "--where", "", "users"}},
		{"driver error", []string{"exec", "DELETE FROM nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, dsn, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestCLI_UnsafeUpdateCode(t *testing.T) {
	dsn := newDB(t)

	_, err := run(t, dsn, "update", "--values", `{"city": "x"}`, "--where", "id = 1", "users")
	var dbErr *dberr.Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, dberr.CodeUnsafeQuery, dbErr.Code)
}

func TestCLI_InvalidConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run([]string{"vibedb", "--driver", "mysql", "--read-dsn", "x", "lists", "SELECT 1"})
	assert.Error(t, err)

	err = newApp(&stdout, &stderr).Run([]string{"vibedb", "--log-level", "loud", "version"})
	assert.Error(t, err)
}

func TestCLI_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer

	require.NoError(t, newApp(&stdout, &stderr).Run([]string{"vibedb", "version"}))
	assert.True(t, strings.HasPrefix(stdout.String(), "vibedb "+version.Get().Short()+"\n"))
	assert.Contains(t, stdout.String(), "postgres")
	assert.Contains(t, stdout.String(), "sqlite")

	stdout.Reset()
	require.NoError(t, newApp(&stdout, &stderr).Run([]string{"vibedb", "version", "--short"}))
	assert.Equal(t, version.Get().Short()+"\n", stdout.String())
}

func TestPrintValue(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{nil, "NULL\n"},
		{"anna", "anna\n"},
		{[]byte("raw"), "raw\n"},
		{int64(7), "7\n"},
		{1.5, "1.5\n"},
		{true, "true\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		require.NoError(t, printValue(&buf, tt.value))
		assert.Equal(t, tt.want, buf.String())
	}
}
