package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"online-polls/internal/domain/poll"
	"online-polls/internal/domain/user"
	"online-polls/internal/metrics"
	"online-polls/internal/platform/mailer"
)

type Enqueuer interface {
	Enqueue(compose ComposeFunc) bool
}

type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	ListActiveVoters(ctx context.Context) ([]user.User, error)
}

type VoteChecker interface {
	HasVoted(ctx context.Context, pollID, voterID int64) (bool, error)
}

// Notifier turns lifecycle events into queued mail.
type Notifier struct {
	queue  Enqueuer
	users  UserDirectory
	votes  VoteChecker
	now    func() time.Time
	logger *slog.Logger
}

func NewNotifier(queue Enqueuer, users UserDirectory, votes VoteChecker, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{queue: queue, users: users, votes: votes, now: time.Now, logger: logger}
}

func (n *Notifier) WithClock(now func() time.Time) *Notifier {
	n.now = now
	return n
}

// PollSuspended queues a notice to the poll's creator.
func (n *Notifier) PollSuspended(p poll.Poll) {
	metrics.IncSuspension()
	n.logger.Info("poll suspended", "poll_id", p.ID, "reports", p.ReportCount)

	n.queue.Enqueue(func(ctx context.Context) (mailer.Message, error) {
		creator, err := n.users.GetByID(ctx, p.CreatedBy)
		if err != nil {
			return mailer.Message{}, fmt.Errorf("poll %d creator: %w", p.ID, err)
		}
		return mailer.Message{
			To:      []string{creator.Email},
			Subject: fmt.Sprintf("Your poll %q was suspended", p.Title),
			Body: fmt.Sprintf("Your poll %q received %d reports and no longer accepts votes.\n",
				p.Title, p.ReportCount),
		}, nil
	})
}

// NotifyStateChanges queues one message per change and returns how many were queued.
func (n *Notifier) NotifyStateChanges(changes []poll.StateChange) int {
	queued := 0
	for _, change := range changes {
		if n.queue.Enqueue(func(ctx context.Context) (mailer.Message, error) {
			return n.compose(ctx, change)
		}) {
			queued++
		}
	}
	return queued
}

func (n *Notifier) compose(ctx context.Context, change poll.StateChange) (mailer.Message, error) {
	voters, err := n.users.ListActiveVoters(ctx)
	if err != nil {
		return mailer.Message{}, err
	}

	p := change.Poll
	when := humanize.RelTime(change.At, n.now(), "ago", "from now")
	msg := mailer.Message{}

	switch change.Transition {
	case poll.TransitionOpening:
		for _, v := range voters {
			msg.To = append(msg.To, v.Email)
		}
		msg.Subject = fmt.Sprintf("New poll: %s", p.Title)
		msg.Body = fmt.Sprintf("%q opens %s (%s).\n\n%s\n",
			p.Title, when, change.At.Format(time.RFC1123), p.Question)
	case poll.TransitionClosing:
		for _, v := range voters {
			voted, err := n.votes.HasVoted(ctx, p.ID, v.ID)
			if err != nil {
				return mailer.Message{}, err
			}
			if !voted {
				msg.To = append(msg.To, v.Email)
			}
		}
		msg.Subject = fmt.Sprintf("Last chance to vote: %s", p.Title)
		msg.Body = fmt.Sprintf("%q closes %s (%s) and you have not voted yet.\n\n%s\n",
			p.Title, when, change.At.Format(time.RFC1123), p.Question)
	default:
		return mailer.Message{}, fmt.Errorf("unknown transition %q", change.Transition)
	}
	return msg, nil
}

type StateChangeLister interface {
	ListChangingStateWithin(ctx context.Context, window time.Duration) ([]poll.StateChange, error)
}

// Scheduler periodically looks for polls opening or closing within the next
// window. With window equal to the interval every transition is announced once.
type Scheduler struct {
	polls    StateChangeLister
	notifier *Notifier
	interval time.Duration
	window   time.Duration
	logger   *slog.Logger
}

func NewScheduler(polls StateChangeLister, notifier *Notifier, interval, window time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if window <= 0 {
		window = interval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{polls: polls, notifier: notifier, interval: interval, window: window, logger: logger}
}

func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	changes, err := s.polls.ListChangingStateWithin(ctx, s.window)
	if err != nil {
		return 0, err
	}
	queued := s.notifier.NotifyStateChanges(changes)
	s.logger.Info("notification run", "changes", len(changes), "queued", queued)
	return queued, nil
}

// Run calls RunOnce now and then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("notification run failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
