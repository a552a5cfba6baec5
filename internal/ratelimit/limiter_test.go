package ratelimit_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"online-polls/internal/ratelimit"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiterOnePerMinute(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	l := ratelimit.New(ratelimit.NewMemoryStore(), 1, time.Minute).WithClock(c.Now)

	ok, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)

	c.Advance(10 * time.Millisecond)
	ok, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok, "second attempt inside the window")

	ok, err = l.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok, "other sources are independent")

	c.Advance(61 * time.Second)
	ok, err = l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok, "window has rolled past the first attempt")
}

func TestRejectedAttemptsAreNotRecorded(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	l := ratelimit.New(ratelimit.NewMemoryStore(), 2, time.Minute).WithClock(c.Now)

	for i := 0; i < 2; i++ {
		ok, _ := l.Allow(ctx, "k")
		require.True(t, ok)
	}
	// rejected attempts every 25s would keep the key blocked if they were recorded
	for i := 0; i < 3; i++ {
		c.Advance(25 * time.Second)
		ok, _ := l.Allow(ctx, "k")
		if i < 2 {
			assert.False(t, ok)
		} else {
			assert.True(t, ok)
		}
	}
}

func TestLimiterConcurrentSameKey(t *testing.T) {
	ctx := context.Background()
	l := ratelimit.New(ratelimit.NewMemoryStore(), 3, time.Hour)

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow(ctx, "shared"); ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), allowed.Load())
}

type failingStore struct{}

func (failingStore) Admit(context.Context, string, time.Time, time.Duration, int) (bool, error) {
	return false, errors.New("store down")
}

func TestLimiterFailsOpen(t *testing.T) {
	l := ratelimit.New(failingStore{}, 1, time.Minute)

	ok, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.True(t, ok)
}

func TestNewAppliesDefaults(t *testing.T) {
	l := ratelimit.New(ratelimit.NewMemoryStore(), 0, 0)
	assert.Equal(t, ratelimit.DefaultWindow, l.Window())
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	s := ratelimit.NewMemoryStore()
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	_, _ = s.Admit(ctx, "old", start, time.Minute, 1)
	_, _ = s.Admit(ctx, "fresh", start.Add(50*time.Second), time.Minute, 1)
	require.Equal(t, 2, s.Len())

	removed := s.Sweep(start.Add(90*time.Second), time.Minute)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())

	// a swept key starts over
	ok, err := s.Admit(ctx, "old", start.Add(90*time.Second), time.Minute, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreRunStops(t *testing.T) {
	s := ratelimit.NewMemoryStore()
	_, _ = s.Admit(context.Background(), "k", time.Now().Add(-time.Hour), time.Minute, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond, time.Minute)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	s := ratelimit.NewRedisStore(client, "test:ratelimit:"+uuid.NewString()+":")
	now := time.Now()

	ok, err := s.Admit(ctx, "10.0.0.9", now, time.Minute, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Admit(ctx, "10.0.0.9", now.Add(10*time.Millisecond), time.Minute, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Admit(ctx, "10.0.0.9", now.Add(61*time.Second), time.Minute, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}
