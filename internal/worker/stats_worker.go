package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"online-polls/internal/metrics"
)

type VoteEvent struct {
	PollID    int64
	VoterID   int64
	ChoiceIDs []int64
	At        time.Time
}

// StatsWorker consumes recorded votes off the request path.
type StatsWorker struct {
	ch     chan VoteEvent
	logger *slog.Logger

	mu     sync.Mutex
	byPoll map[int64]int64
}

func NewStatsWorker(buffer int, logger *slog.Logger) *StatsWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsWorker{
		ch:     make(chan VoteEvent, buffer),
		logger: logger,
		byPoll: make(map[int64]int64),
	}
}

// Offer hands ev to the worker without blocking. It returns false when the buffer is full.
func (w *StatsWorker) Offer(ev VoteEvent) bool {
	select {
	case w.ch <- ev:
		return true
	default:
		w.logger.Warn("stats worker buffer full, dropping vote event", "poll_id", ev.PollID)
		return false
	}
}

func (w *StatsWorker) Run(ctx context.Context) {
	w.logger.Info("stats worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats worker stopped")
			return
		case ev := <-w.ch:
			w.process(ev)
		}
	}
}

func (w *StatsWorker) process(ev VoteEvent) {
	metrics.AddChoicesSelected(len(ev.ChoiceIDs))

	w.mu.Lock()
	w.byPoll[ev.PollID]++
	n := w.byPoll[ev.PollID]
	w.mu.Unlock()

	w.logger.Debug("vote processed", "poll_id", ev.PollID, "choices", len(ev.ChoiceIDs), "poll_votes_seen", n)
}

// Seen returns how many vote events for pollID were processed since start.
func (w *StatsWorker) Seen(pollID int64) int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.byPoll[pollID]
}
