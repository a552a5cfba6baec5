package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"online-polls/internal/domain/user"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables and the bootstrap admin, then exit",
		Run: func(cmd *cobra.Command, _ []string) {
			logger := commonRun()
			cfg := loadConfig()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			st, err := openStore(ctx, cfg, logger)
			if err != nil {
				slog.Error("migration failed", "error", err)
				os.Exit(1)
			}
			defer st.close()

			if cfg.AdminEmail != "" {
				if _, err := user.NewService(st.users).EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
					slog.Error("failed to create admin", "error", err)
					os.Exit(1)
				}
			}
			logger.Info("migration complete", "driver", cfg.DBDriver)
		},
	}
}
