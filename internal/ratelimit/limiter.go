// Package ratelimit bounds vote attempts per source with a sliding window.
package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultMaxAttempts = 1
	DefaultWindow      = 60 * time.Second
)

// Store performs one atomic prune/check/record step for key: timestamps older
// than now-window are dropped, the attempt is rejected without being recorded
// when limit remain, otherwise now is recorded.
type Store interface {
	Admit(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, error)
}

type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

func New(store Store, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{store: store, limit: limit, window: window, now: time.Now}
}

func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func (l *Limiter) Window() time.Duration { return l.window }

// Allow reports whether key may make another attempt. The limiter is advisory:
// a store failure admits the attempt and returns the error for logging.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := l.store.Admit(ctx, key, l.now(), l.window, l.limit)
	if err != nil {
		return true, err
	}
	return ok, nil
}
