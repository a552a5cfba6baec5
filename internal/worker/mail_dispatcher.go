package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"online-polls/internal/metrics"
	"online-polls/internal/platform/mailer"
	"online-polls/internal/retry"
)

// ComposeFunc builds a message when it is about to be sent, so lookups it
// needs happen off the request path.
type ComposeFunc func(ctx context.Context) (mailer.Message, error)

type MailDispatcherConfig struct {
	QueueSize    int
	PerSecond    float64
	Burst        int
	Attempts     int
	BaseDelay    time.Duration
	DrainTimeout time.Duration
}

// MailDispatcher is a bounded best-effort outbound mail queue.
type MailDispatcher struct {
	mailer  mailer.Mailer
	queue   chan ComposeFunc
	limiter *rate.Limiter
	cfg     MailDispatcherConfig
	logger  *slog.Logger
}

func NewMailDispatcher(m mailer.Mailer, cfg MailDispatcherConfig, logger *slog.Logger) *MailDispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MailDispatcher{
		mailer:  m,
		queue:   make(chan ComposeFunc, cfg.QueueSize),
		limiter: rate.NewLimiter(rate.Limit(cfg.PerSecond), cfg.Burst),
		cfg:     cfg,
		logger:  logger,
	}
}

// Enqueue never blocks; a full queue drops the message.
func (d *MailDispatcher) Enqueue(compose ComposeFunc) bool {
	select {
	case d.queue <- compose:
		metrics.SetMailQueueDepth(len(d.queue))
		return true
	default:
		metrics.IncMail("dropped")
		d.logger.Warn("mail queue full, dropping message")
		return false
	}
}

// Run sends queued mail until ctx is done, then gives what is still queued
// DrainTimeout to go out.
func (d *MailDispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case compose := <-d.queue:
			if ctx.Err() != nil {
				d.drain(compose)
				return
			}
			d.deliver(ctx, compose)
		}
	}
}

func (d *MailDispatcher) drain(pending ...ComposeFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.DrainTimeout)
	defer cancel()
	for _, compose := range pending {
		d.deliver(ctx, compose)
	}
	for {
		select {
		case compose := <-d.queue:
			d.deliver(ctx, compose)
		default:
			return
		}
	}
}

func (d *MailDispatcher) deliver(ctx context.Context, compose ComposeFunc) {
	metrics.SetMailQueueDepth(len(d.queue))

	msg, err := compose(ctx)
	if err != nil {
		metrics.IncMail("failed")
		d.logger.Error("compose mail", "error", err)
		return
	}
	if len(msg.To) == 0 {
		metrics.IncMail("skipped")
		return
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	if err := d.limiter.Wait(ctx); err != nil {
		metrics.IncMail("failed")
		d.logger.Warn("mail not sent", "id", msg.ID, "error", err)
		return
	}

	err = retry.DoWithRetry(ctx, d.cfg.Attempts, d.cfg.BaseDelay, func(ctx context.Context) error {
		err := d.mailer.Send(ctx, msg)
		if errors.Is(err, mailer.ErrNoRecipients) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		metrics.IncMail("failed")
		d.logger.Error("send mail", "id", msg.ID, "subject", msg.Subject, "error", err)
		return
	}
	metrics.IncMail("sent")
	d.logger.Info("mail sent", "id", msg.ID, "recipients", len(msg.To))
}
