// Package postgres implements the Persistence Gateway against a canonical
// Postgres schema: seven tables as documented in spec.md §6. Every write
// is parameterized and defined at build time, executes inside a
// transaction, and is bounded to persistence.MaxBatchSize rows.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/denniswon/pm-endgame-sweep/internal/config"
)

// Open connects to Postgres per cfg, tunes the pool, and verifies
// reachability before returning.
func Open(cfg config.StoreConfig) (*sqlx.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: store.dsn is required")
	}

	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	db.SetMaxOpenConns(cfg.PoolSize)
	db.SetMaxIdleConns(cfg.PoolSize)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return db, nil
}

// Gateway implements persistence.Gateway against Postgres.
type Gateway struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewGateway wraps an open *sqlx.DB. timeout bounds every individual query.
func NewGateway(db *sqlx.DB, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{db: db, timeout: timeout}
}
