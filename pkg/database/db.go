// Package database opens the postgres connection pool behind the remote row
// store. Configuration is a single DSN, the form DATABASE_URL carries.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Pool sizing for the remote backend. Sync traffic is bursty but small, so
// fixed defaults beat per-deploy tuning knobs.
const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
)

// ConnectionPool owns the sql.DB handed to the postgres remote store.
type ConnectionPool struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewFromDSN opens and pings a pool from a postgres URL.
func NewFromDSN(ctx context.Context, dsn string, logger *slog.Logger) (*ConnectionPool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctxPing); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connected")
	return &ConnectionPool{db: db, logger: logger}, nil
}

// GetDB returns the underlying sql.DB.
func (cp *ConnectionPool) GetDB() *sql.DB {
	return cp.db
}

// Close closes the pool.
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}
