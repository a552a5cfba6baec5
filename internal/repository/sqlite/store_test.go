package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"online-polls/internal/domain/poll"
	"online-polls/internal/domain/user"
	"online-polls/internal/domain/vote"
	"online-polls/internal/repository/sqlite"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := sqlite.Open("", uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newPoll(title string, start, end time.Time, choices ...string) *poll.Poll {
	p := &poll.Poll{
		Title:          title,
		Question:       title + "?",
		PollType:       poll.TypeSingleChoice,
		CreatedBy:      1,
		StartDate:      start,
		ExpirationDate: end,
		IsActive:       true,
		CreatedAt:      start,
		ReportedBy:     []int64{},
	}
	for _, c := range choices {
		p.Choices = append(p.Choices, poll.Choice{Text: c})
	}
	return p
}

func TestPollRepoCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewPollRepo(newDB(t))
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	p := newPoll("Lunch", now, now.Add(time.Hour), "Pizza", "Sushi")
	require.NoError(t, repo.Create(ctx, p))
	require.NotZero(t, p.ID)
	require.NotZero(t, p.Choices[0].ID)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lunch", got.Title)
	assert.Equal(t, poll.TypeSingleChoice, got.PollType)
	assert.True(t, got.StartDate.Equal(now))
	require.Len(t, got.Choices, 2)
	assert.Equal(t, "Pizza", got.Choices[0].Text)
	assert.Equal(t, "Sushi", got.Choices[1].Text)
	assert.Empty(t, got.ReportedBy)

	_, err = repo.GetByID(ctx, p.ID+100)
	assert.ErrorIs(t, err, poll.ErrPollNotFound)
}

func TestPollRepoSearch(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewPollRepo(newDB(t))
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	upcoming := newPoll("Team offsite", now.Add(time.Hour), now.Add(2*time.Hour), "a", "b")
	active := newPoll("Team lunch", now.Add(-time.Hour), now.Add(time.Hour), "a", "b")
	expired := newPoll("Board 50%_off", now.Add(-2*time.Hour), now.Add(-time.Hour), "a", "b")
	for _, p := range []*poll.Poll{upcoming, active, expired} {
		require.NoError(t, repo.Create(ctx, p))
	}

	res, err := repo.Search(ctx, poll.SearchQuery{Text: "TEAM", SortBy: poll.SortByTitle, SortOrder: poll.SortAsc}, now)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, active.ID, res[0].ID)
	assert.Equal(t, upcoming.ID, res[1].ID)

	res, err = repo.Search(ctx, poll.SearchQuery{Status: poll.StatusExpired, SortBy: poll.SortByCreatedAt, SortOrder: poll.SortDesc}, now)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, expired.ID, res[0].ID)

	res, err = repo.Search(ctx, poll.SearchQuery{Text: "%_", SortBy: poll.SortByCreatedAt, SortOrder: poll.SortDesc}, now)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, expired.ID, res[0].ID)

	res, err = repo.Search(ctx, poll.SearchQuery{SortBy: poll.SortByStartDate, SortOrder: poll.SortDesc}, now)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, []int64{upcoming.ID, active.ID, expired.ID}, []int64{res[0].ID, res[1].ID, res[2].ID})
}

func TestPollRepoSearchFoldsNonASCII(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewPollRepo(newDB(t))
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	school := newPoll("École Élection", now.Add(-time.Hour), now.Add(time.Hour), "oui", "non")
	require.NoError(t, repo.Create(ctx, school))
	require.NoError(t, repo.Create(ctx, newPoll("Ecole sans accent", now.Add(-time.Hour), now.Add(time.Hour), "a", "b")))

	for _, text := range []string{"École", "école", "ÉCOLE", "élection"} {
		res, err := repo.Search(ctx, poll.SearchQuery{Text: text, SortBy: poll.SortByCreatedAt, SortOrder: poll.SortDesc}, now)
		require.NoError(t, err)
		require.Len(t, res, 1, "query %q", text)
		assert.Equal(t, school.ID, res[0].ID)
	}
}

func TestPollRepoApplyReport(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewPollRepo(newDB(t))
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	p := newPoll("Report me", now.Add(-time.Hour), now.Add(time.Hour), "a", "b")
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.ApplyReport(ctx, p.ID, 7, now, func(p *poll.Poll) error {
		p.ReportCount++
		p.IsActive = false
		p.ExpirationDate = now
		return nil
	})
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	stored, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ReportCount)
	assert.False(t, stored.IsActive)
	assert.True(t, stored.ExpirationDate.Equal(now))
	assert.Equal(t, []int64{7}, stored.ReportedBy)

	// the store rejects a repeated reporter even when apply lets it through
	_, err = repo.ApplyReport(ctx, p.ID, 7, now, func(p *poll.Poll) error { return nil })
	assert.ErrorIs(t, err, poll.ErrAlreadyReported)

	_, err = repo.ApplyReport(ctx, p.ID+100, 7, now, func(p *poll.Poll) error { return nil })
	assert.ErrorIs(t, err, poll.ErrPollNotFound)
}

func TestPollRepoApplyReportUsesGivenTime(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewPollRepo(newDB(t))
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	p := newPoll("Ordered", now.Add(-time.Hour), now.Add(24*time.Hour), "a", "b")
	require.NoError(t, repo.Create(ctx, p))

	noop := func(*poll.Poll) error { return nil }
	// filed first, but stamped later by the caller's clock
	_, err := repo.ApplyReport(ctx, p.ID, 9, now.Add(time.Hour), noop)
	require.NoError(t, err)
	_, err = repo.ApplyReport(ctx, p.ID, 3, now, noop)
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 9}, stored.ReportedBy)
}

func TestPollRepoDeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	polls := sqlite.NewPollRepo(db)
	votes := sqlite.NewVoteRepo(db)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	p := newPoll("Doomed", now.Add(-time.Hour), now.Add(time.Hour), "a", "b")
	require.NoError(t, polls.Create(ctx, p))

	v := &vote.Vote{PollID: p.ID, VoterID: 3, ChoiceIDs: []int64{p.Choices[0].ID}, CreatedAt: now}
	_, err := votes.Cast(ctx, v, func(*poll.Poll) error { return nil })
	require.NoError(t, err)

	require.NoError(t, polls.Delete(ctx, p.ID))
	_, err = polls.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, poll.ErrPollNotFound)

	ledger, err := votes.ListByPoll(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, ledger)

	assert.ErrorIs(t, polls.Delete(ctx, p.ID), poll.ErrPollNotFound)
}

func TestVoteRepoCast(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	polls := sqlite.NewPollRepo(db)
	votes := sqlite.NewVoteRepo(db)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	p := newPoll("Colors", now.Add(-time.Hour), now.Add(time.Hour), "red", "green", "blue")
	p.PollType = poll.TypeMultipleChoice
	require.NoError(t, polls.Create(ctx, p))
	red, blue := p.Choices[0].ID, p.Choices[2].ID

	v := &vote.Vote{PollID: p.ID, VoterID: 5, ChoiceIDs: []int64{blue, red}, CreatedAt: now}
	updated, err := votes.Cast(ctx, v, func(*poll.Poll) error { return nil })
	require.NoError(t, err)
	assert.NotZero(t, v.ID)
	assert.Equal(t, int64(1), updated.Choices[0].VoteCount)
	assert.Equal(t, int64(0), updated.Choices[1].VoteCount)
	assert.Equal(t, int64(1), updated.Choices[2].VoteCount)

	again := &vote.Vote{PollID: p.ID, VoterID: 5, ChoiceIDs: []int64{red}, CreatedAt: now}
	_, err = votes.Cast(ctx, again, func(*poll.Poll) error { return nil })
	assert.ErrorIs(t, err, vote.ErrAlreadyVoted)

	voted, err := votes.HasVoted(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.True(t, voted)

	ledger, err := votes.ListByPoll(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, int64(5), ledger[0].VoterID)
	assert.ElementsMatch(t, []int64{red, blue}, ledger[0].ChoiceIDs)
}

func TestVoteRepoCastRollsBackOnAdmitError(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	polls := sqlite.NewPollRepo(db)
	votes := sqlite.NewVoteRepo(db)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	p := newPoll("Closed", now.Add(-time.Hour), now.Add(time.Hour), "a", "b")
	require.NoError(t, polls.Create(ctx, p))

	v := &vote.Vote{PollID: p.ID, VoterID: 9, ChoiceIDs: []int64{p.Choices[0].ID}, CreatedAt: now}
	_, err := votes.Cast(ctx, v, func(*poll.Poll) error { return poll.ErrSuspended })
	assert.ErrorIs(t, err, poll.ErrSuspended)

	voted, err := votes.HasVoted(ctx, p.ID, 9)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewUserRepo(newDB(t))

	u := &user.User{Email: "ann@example.com", PasswordHash: "hash", Role: user.RoleVoter, IsActive: true}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	dup := &user.User{Email: "ann@example.com", PasswordHash: "hash", Role: user.RoleVoter, IsActive: true}
	assert.ErrorIs(t, repo.Create(ctx, dup), user.ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, repo.UpdateRole(ctx, u.ID, user.RoleAdmin))
	require.NoError(t, repo.Deactivate(ctx, u.ID))

	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, got.Role)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, repo.Deactivate(ctx, u.ID+100), user.ErrUserNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
