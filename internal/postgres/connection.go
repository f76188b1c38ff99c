// Package postgres opens the PostgreSQL pools the executor reads from and
// writes to.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DriverName is the database/sql driver registered by lib/pq.
const DriverName = "postgres"

const (
	maxOpenConnections = 5
	maxIdleConnections = 2
	connMaxLifetime    = 1 * time.Hour
	connMaxIdleTime    = 10 * time.Minute
)

// Connection represents a PostgreSQL database connection pool
type Connection struct {
	db *sql.DB
}

// NewConnection opens a pool for dsn and verifies it with a ping.
// Both URL ("postgres://...") and key=value DSNs are accepted.
func NewConnection(ctx context.Context, dsn string) (*Connection, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: empty DSN")
	}

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConnections)
	db.SetMaxIdleConns(maxIdleConnections)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{db: db}, nil
}

// DB returns the underlying database connection pool
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Close closes the database connection pool
func (c *Connection) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Ping verifies the connection is still alive
func (c *Connection) Ping(ctx context.Context) error {
	if c.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return c.db.PingContext(ctx)
}
