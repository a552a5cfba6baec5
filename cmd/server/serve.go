package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"online-polls/internal/config"
	"online-polls/internal/domain/poll"
	"online-polls/internal/domain/user"
	"online-polls/internal/domain/vote"
	api "online-polls/internal/http"
	"online-polls/internal/metrics"
	jwtpkg "online-polls/internal/platform/jwt"
	"online-polls/internal/platform/mailer"
	"online-polls/internal/ratelimit"
	"online-polls/internal/worker"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background workers (default)",
		Run:   serveRun,
	}
}

func serveRun(_ *cobra.Command, _ []string) {
	logger := commonRun()
	cfg := loadConfig()
	if err := serve(cfg, logger); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func newMailer(cfg *config.Config, logger *slog.Logger) mailer.Mailer {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, notifications are only logged")
		return mailer.NewLogMailer(logger)
	}
	return mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
}

func newDispatcher(cfg *config.Config, logger *slog.Logger) *worker.MailDispatcher {
	return worker.NewMailDispatcher(newMailer(cfg, logger), worker.MailDispatcherConfig{
		QueueSize: cfg.MailQueueSize,
		PerSecond: cfg.MailPerSecond,
	}, logger)
}

// newLimiterStore prefers Redis when configured and reachable.
func newLimiterStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ratelimit.Store, *ratelimit.MemoryStore, func()) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			logger.Info("vote rate limits shared via redis", "addr", cfg.RedisAddr)
			return ratelimit.NewRedisStore(client, ""), nil, func() { _ = client.Close() }
		}
		_ = client.Close()
		logger.Warn("redis unavailable, falling back to in-memory limits", "addr", cfg.RedisAddr, "error", err)
	}
	mem := ratelimit.NewMemoryStore()
	return mem, mem, func() {}
}

func serve(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	api.SetLogger(logger)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	userSvc := user.NewService(st.users)
	if cfg.AdminEmail != "" {
		if _, err := userSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
	}

	dispatcher := newDispatcher(cfg, logger)
	notifier := worker.NewNotifier(dispatcher, userSvc, st.votes, logger)
	pollSvc := poll.NewService(st.polls,
		poll.WithNotifier(notifier),
		poll.WithReportThreshold(cfg.ReportThreshold),
	)
	voteSvc := vote.NewService(st.polls, st.votes, vote.WithCacheTTL(cfg.CacheTTL()))
	stats := worker.NewStatsWorker(100, logger)
	scheduler := worker.NewScheduler(pollSvc, notifier, cfg.NotifyInterval, cfg.NotifyWindow, logger)

	limiterStore, memStore, closeLimiter := newLimiterStore(ctx, cfg, logger)
	defer closeLimiter()
	limiter := ratelimit.New(limiterStore, cfg.VoteRateLimit, cfg.VoteRateWindow)

	// Workers outlive the HTTP server so in-flight requests can still queue work.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	run := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(workerCtx)
		}()
	}
	run(dispatcher.Run)
	run(stats.Run)
	run(scheduler.Run)
	if memStore != nil {
		run(func(ctx context.Context) { memStore.Run(ctx, cfg.VoteRateWindow, cfg.VoteRateWindow) })
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(api.Deps{
			Users:   userSvc,
			Polls:   pollSvc,
			Votes:   voteSvc,
			JWT:     jwtpkg.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL),
			Limiter: limiter,
			Events:  stats,
			Ready:   st.ping,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			stopWorkers()
			wg.Wait()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)

	stopWorkers()
	wg.Wait()
	logger.Info("server stopped")
	return err
}
