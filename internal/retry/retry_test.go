package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoWithRetrySucceedsEventually(t *testing.T) {
	calls := 0
	err := DoWithRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestDoWithRetryGivesUp(t *testing.T) {
	want := errors.New("still down")
	calls := 0
	err := DoWithRetry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return want
	})
	if !errors.Is(err, want) || calls != 2 {
		t.Fatalf("got err=%v calls=%d", err, calls)
	}
}

func TestDoWithRetryPermanent(t *testing.T) {
	want := errors.New("bad address")
	calls := 0
	err := DoWithRetry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		calls++
		return Permanent(want)
	})
	if err != want || calls != 1 {
		t.Fatalf("got err=%v calls=%d", err, calls)
	}
}

func TestDoWithRetryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := DoWithRetry(ctx, 3, time.Millisecond, func(context.Context) error {
		t.Fatalf("fn must not run on a canceled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
