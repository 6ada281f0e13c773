// Package db provides a PostgreSQL document store for resumes and their section history.
package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan/resume-editor/internal/notify"
	"github.com/jonathan/resume-editor/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Ensure DB implements the document store interface.
var _ store.DocumentStore = (*DB)(nil)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
	bus  notify.Bus
}

// Connect establishes a connection pool to the database. bus may be nil.
func Connect(ctx context.Context, databaseURL string, bus notify.Bus) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool, bus: bus}, nil
}

// Migrate creates the tables the store needs if they do not exist
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}
