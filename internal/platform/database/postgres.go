package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"online-polls/internal/retry"
)

const (
	pgMaxOpenConns = 10
	pgMaxIdleConns = 5
	pgConnLifetime = time.Hour

	// about 15s in total while a container is still starting
	pgPingAttempts  = 6
	pgPingBaseDelay = 250 * time.Millisecond
	pgPingTimeout   = 2 * time.Second
)

// NewPostgres opens a pgx-backed pool and waits until the server answers.
func NewPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	db.SetConnMaxLifetime(pgConnLifetime)

	err = retry.DoWithRetry(ctx, pgPingAttempts, pgPingBaseDelay, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, pgPingTimeout)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
