package main

import (
	"context"
	"fmt"
	"log/slog"

	"online-polls/internal/config"
	"online-polls/internal/domain/poll"
	"online-polls/internal/domain/user"
	"online-polls/internal/domain/vote"
	"online-polls/internal/platform/database"
	"online-polls/internal/repository/postgres"
	"online-polls/internal/repository/sqlite"
)

type store struct {
	users user.Repository
	polls poll.Repository
	votes vote.Repository
	ping  func(ctx context.Context) error
	close func() error
}

// openStore connects to the configured backend and makes sure its tables exist.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath, programName)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite store", "path", cfg.SQLitePath)
		return &store{
			users: sqlite.NewUserRepo(db),
			polls: sqlite.NewPollRepo(db),
			votes: sqlite.NewVoteRepo(db),
			ping:  sqlDB.PingContext,
			close: sqlDB.Close,
		}, nil
	default:
		db, err := database.NewPostgres(ctx, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("db connect error: %w", err)
		}
		if err := database.CreateSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("using postgres store")
		return &store{
			users: postgres.NewUserRepo(db),
			polls: postgres.NewPollRepo(db),
			votes: postgres.NewVoteRepo(db),
			ping:  db.PingContext,
			close: db.Close,
		}, nil
	}
}
