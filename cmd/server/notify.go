package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"online-polls/internal/domain/poll"
	"online-polls/internal/domain/user"
	"online-polls/internal/worker"
)

// notifyCommand runs a single notification pass, for use from cron instead
// of the scheduler inside serve.
func notifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Mail voters about polls opening or closing soon, then exit",
		Run: func(cmd *cobra.Command, _ []string) {
			logger := commonRun()
			cfg := loadConfig()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			st, err := openStore(ctx, cfg, logger)
			if err != nil {
				slog.Error("failed to open store", "error", err)
				os.Exit(1)
			}
			defer st.close()

			dispatcher := newDispatcher(cfg, logger)
			notifier := worker.NewNotifier(dispatcher, user.NewService(st.users), st.votes, logger)
			scheduler := worker.NewScheduler(poll.NewService(st.polls), notifier, cfg.NotifyInterval, cfg.NotifyWindow, logger)

			queued, err := scheduler.RunOnce(ctx)
			if err != nil {
				slog.Error("notification run failed", "error", err)
				os.Exit(1)
			}

			// A cancelled context makes Run deliver what is queued and return.
			done, stop := context.WithCancel(ctx)
			stop()
			dispatcher.Run(done)
			logger.Info("notifications sent", "queued", queued)
		},
	}
}
