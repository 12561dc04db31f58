package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
)

// Interception targets for statement execution.
const (
	Class       = "database.Connection"
	MethodQuery = "Query"
	MethodExec  = "Exec"
)

// Connection executes statements against a database/sql pool. Query and
// Exec go through the hook registry so they can be intercepted.
type Connection struct {
	db    *sql.DB
	hooks *hook.Registry
}

// Open opens a pool for driver and dsn and verifies it with a ping.
func Open(ctx context.Context, driver, dsn string, hooks *hook.Registry) (*Connection, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return New(db, hooks), nil
}

// New wraps an existing pool.
func New(db *sql.DB, hooks *hook.Registry) *Connection {
	return &Connection{db: db, hooks: hooks}
}

// DB returns the underlying pool.
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Query runs a statement that returns rows.
func (c *Connection) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return hook.Do(ctx, c.hooks, Class, MethodQuery, c, []any{query, args}, func(ctx context.Context) (*sql.Rows, error) {
		return c.db.QueryContext(ctx, query, args...)
	})
}

// Exec runs a statement without returning rows.
func (c *Connection) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return hook.Do(ctx, c.hooks, Class, MethodExec, c, []any{query, args}, func(ctx context.Context) (sql.Result, error) {
		return c.db.ExecContext(ctx, query, args...)
	})
}

// Close closes the pool.
func (c *Connection) Close() error {
	return c.db.Close()
}
