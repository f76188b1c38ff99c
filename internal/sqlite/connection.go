// Package sqlite opens SQLite databases through the pure Go modernc.org/sqlite
// driver, so the binary stays cgo free.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// defaultPragmas are applied to file databases that carry no options of their own.
var defaultPragmas = []string{
	"_pragma=busy_timeout(5000)",
	"_pragma=foreign_keys(1)",
}

// Connection represents a SQLite database handle.
type Connection struct {
	db *sql.DB
}

// NewConnection opens path, which may be a file name, a "file:" URI or
// ":memory:", and verifies it with a ping.
func NewConnection(ctx context.Context, path string) (*Connection, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: empty DSN")
	}

	db, err := sql.Open(DriverName, buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to an in-memory database gets its own empty database.
	if isMemory(path) {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{db: db}, nil
}

func buildDSN(path string) string {
	if isMemory(path) || strings.Contains(path, "_pragma=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(defaultPragmas, "&")
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory") || strings.HasPrefix(path, "file::memory:")
}

// DB returns the underlying database handle.
func (c *Connection) DB() *sql.DB {
	return c.db
}

func (c *Connection) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *Connection) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return c.db.PingContext(ctx)
}
