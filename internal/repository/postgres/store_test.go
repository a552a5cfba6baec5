package postgres_test

import (
	"context"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"online-polls/internal/domain/poll"
	"online-polls/internal/domain/user"
	"online-polls/internal/domain/vote"
	"online-polls/internal/platform/database"
	"online-polls/internal/repository/postgres"
)

type fixture struct {
	db     *sqlx.DB
	polls  *postgres.PollRepo
	votes  *postgres.VoteRepo
	author int64
	// unique per test so Search only sees this test's rows
	tag string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		t.Skip("DB_DSN not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, database.CreateSchema(ctx, db))

	tag := uuid.NewString()
	author := &user.User{Email: tag + "@example.com", PasswordHash: "hash", Role: user.RoleAdmin, IsActive: true}
	require.NoError(t, postgres.NewUserRepo(db).Create(ctx, author))

	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM polls WHERE created_by = $1`, author.ID)
		_, _ = db.Exec(`DELETE FROM users WHERE id = $1`, author.ID)
		_ = db.Close()
	})
	return &fixture{
		db:     db,
		polls:  postgres.NewPollRepo(db),
		votes:  postgres.NewVoteRepo(db),
		author: author.ID,
		tag:    tag,
	}
}

// now is truncated to the column precision so round trips compare equal.
func pgNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (f *fixture) createPoll(t *testing.T, title string, start, end time.Time) *poll.Poll {
	t.Helper()
	p := &poll.Poll{
		Title:          f.tag + " " + title,
		Question:       title + "?",
		PollType:       poll.TypeSingleChoice,
		CreatedBy:      f.author,
		StartDate:      start,
		ExpirationDate: end,
		IsActive:       true,
		CreatedAt:      start,
		Choices:        []poll.Choice{{Text: "a"}, {Text: "b"}},
		ReportedBy:     []int64{},
	}
	require.NoError(t, f.polls.Create(context.Background(), p))
	return p
}

func admitAll(*poll.Poll) error { return nil }

func TestPollRepoCreateAndGet(t *testing.T) {
	f := newFixture(t)
	now := pgNow()

	p := f.createPoll(t, "Lunch", now, now.Add(time.Hour))
	got, err := f.polls.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, got.Title)
	assert.True(t, got.StartDate.Equal(now))
	require.Len(t, got.Choices, 2)
	assert.Equal(t, "a", got.Choices[0].Text)
	assert.Empty(t, got.ReportedBy)

	_, err = f.polls.GetByID(context.Background(), -1)
	assert.ErrorIs(t, err, poll.ErrPollNotFound)
}

func TestVoteRepoDuplicateCast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := pgNow()
	p := f.createPoll(t, "Dup", now.Add(-time.Minute), now.Add(time.Hour))

	first := &vote.Vote{PollID: p.ID, VoterID: 7, ChoiceIDs: []int64{p.Choices[0].ID}, CreatedAt: now}
	updated, err := f.votes.Cast(ctx, first, admitAll)
	require.NoError(t, err)
	require.NotZero(t, first.ID)
	assert.Equal(t, int64(1), updated.Choices[0].VoteCount)

	// the unique (poll_id, user_id) key rejects the second ballot
	again := &vote.Vote{PollID: p.ID, VoterID: 7, ChoiceIDs: []int64{p.Choices[1].ID}, CreatedAt: now}
	_, err = f.votes.Cast(ctx, again, admitAll)
	assert.ErrorIs(t, err, vote.ErrAlreadyVoted)

	got, err := f.polls.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Choices[0].VoteCount)
	assert.Equal(t, int64(0), got.Choices[1].VoteCount)

	ledger, err := f.votes.ListByPoll(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, []int64{p.Choices[0].ID}, ledger[0].ChoiceIDs)
}

func TestVoteRepoConcurrentDuplicateCast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := pgNow()
	p := f.createPoll(t, "Race", now.Add(-time.Minute), now.Add(time.Hour))

	const attempts = 5
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := &vote.Vote{PollID: p.ID, VoterID: 8, ChoiceIDs: []int64{p.Choices[0].ID}, CreatedAt: now}
			_, err := f.votes.Cast(ctx, v, admitAll)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, vote.ErrAlreadyVoted)
	}
	assert.Equal(t, 1, ok)

	got, err := f.polls.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Choices[0].VoteCount)
}

func TestVoteRepoCastRejectedByAdmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := pgNow()
	p := f.createPoll(t, "Closed", now.Add(-time.Minute), now.Add(time.Hour))

	v := &vote.Vote{PollID: p.ID, VoterID: 9, ChoiceIDs: []int64{p.Choices[0].ID}, CreatedAt: now}
	_, err := f.votes.Cast(ctx, v, func(*poll.Poll) error { return poll.ErrSuspended })
	assert.ErrorIs(t, err, poll.ErrSuspended)

	voted, err := f.votes.HasVoted(ctx, p.ID, 9)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestVoteRepoCastHoldsShareLock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := pgNow()
	p := f.createPoll(t, "Lock", now.Add(-time.Minute), now.Add(time.Hour))

	inside := make(chan struct{})
	release := make(chan struct{})
	castDone := make(chan error, 1)
	go func() {
		v := &vote.Vote{PollID: p.ID, VoterID: 1, ChoiceIDs: []int64{p.Choices[0].ID}, CreatedAt: now}
		_, err := f.votes.Cast(ctx, v, func(*poll.Poll) error {
			close(inside)
			<-release
			return nil
		})
		castDone <- err
	}()
	<-inside

	// a report needs FOR UPDATE on the same row and must wait for the ballot
	reportDone := make(chan error, 1)
	go func() {
		_, err := f.polls.ApplyReport(ctx, p.ID, 2, now, func(p *poll.Poll) error {
			_, err := poll.ApplyReport(p, 2, now, 1)
			return err
		})
		reportDone <- err
	}()

	select {
	case err := <-reportDone:
		t.Fatalf("report finished while the ballot held its lock: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-castDone)
	require.NoError(t, <-reportDone)

	got, err := f.polls.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Choices[0].VoteCount)
	assert.False(t, got.IsActive)
	assert.Equal(t, []int64{2}, got.ReportedBy)
}

func TestPollRepoDuplicateReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := pgNow()
	p := f.createPoll(t, "Report", now.Add(-time.Minute), now.Add(time.Hour))

	noop := func(*poll.Poll) error { return nil }
	_, err := f.polls.ApplyReport(ctx, p.ID, 4, now, noop)
	require.NoError(t, err)

	// the poll_reports primary key rejects a repeat even when apply lets it through
	_, err = f.polls.ApplyReport(ctx, p.ID, 4, now, noop)
	assert.ErrorIs(t, err, poll.ErrAlreadyReported)

	_, err = f.polls.ApplyReport(ctx, p.ID, 5, now.Add(-time.Hour), noop)
	require.NoError(t, err)

	got, err := f.polls.GetByID(ctx, p.ID)
	require.NoError(t, err)
	// reporters come back in the order they were stamped
	assert.Equal(t, []int64{5, 4}, got.ReportedBy)

	_, err = f.polls.ApplyReport(ctx, -1, 4, now, noop)
	assert.ErrorIs(t, err, poll.ErrPollNotFound)
}

func TestPollRepoSearchStatusMatchesStatusAt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := pgNow()

	f.createPoll(t, "upcoming", now.Add(time.Hour), now.Add(2*time.Hour))
	f.createPoll(t, "active", now.Add(-time.Hour), now.Add(time.Hour))
	f.createPoll(t, "expired", now.Add(-2*time.Hour), now.Add(-time.Hour))
	f.createPoll(t, "ends now", now.Add(-time.Hour), now)
	f.createPoll(t, "starts now", now, now.Add(time.Hour))

	suspended := f.createPoll(t, "suspended", now.Add(time.Hour), now.Add(2*time.Hour))
	_, err := f.polls.ApplyReport(ctx, suspended.ID, 3, now, func(p *poll.Poll) error {
		_, err := poll.ApplyReport(p, 3, now, 1)
		return err
	})
	require.NoError(t, err)

	all, err := f.polls.Search(ctx, poll.SearchQuery{Text: f.tag}, now)
	require.NoError(t, err)
	require.Len(t, all, 6)

	want := map[poll.Status][]int64{}
	for i := range all {
		s := poll.StatusAt(&all[i], now)
		want[s] = append(want[s], all[i].ID)
	}

	for _, status := range []poll.Status{poll.StatusUpcoming, poll.StatusActive, poll.StatusExpired} {
		t.Run(string(status), func(t *testing.T) {
			got, err := f.polls.Search(ctx, poll.SearchQuery{Text: f.tag, Status: status}, now)
			require.NoError(t, err)
			ids := make([]int64, len(got))
			for i := range got {
				ids[i] = got[i].ID
			}
			assert.Equal(t, sortedIDs(want[status]), sortedIDs(ids))
		})
	}

	assert.Len(t, want[poll.StatusUpcoming], 1)
	assert.Len(t, want[poll.StatusActive], 3)
	assert.Len(t, want[poll.StatusExpired], 2)
}

func sortedIDs(ids []int64) []int64 {
	out := append([]int64{}, ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
