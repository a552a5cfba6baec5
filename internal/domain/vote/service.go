package vote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"online-polls/internal/domain/poll"
	"online-polls/internal/domain/user"
)

var (
	ErrAlreadyVoted     = errors.New("user already voted in this poll")
	ErrInvalidChoiceSet = errors.New("invalid choice set")
	ErrNoVotesYet       = errors.New("poll has no votes yet")
	ErrResultsForbidden = errors.New("results are available to admins and voters of this poll")
)

const defaultCacheTTL = 30 * time.Second

// Requester is the verified caller asking for results.
type Requester struct {
	ID   int64
	Role string
}

type Service struct {
	polls    PollReader
	repo     Repository
	now      func() time.Time
	cacheTTL time.Duration

	mu    sync.Mutex
	cache map[int64]cachedInsights
}

type cachedInsights struct {
	insights Insights
	expires  time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCacheTTL sets how long computed insights are served from memory. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.cacheTTL = ttl }
}

func NewService(polls PollReader, repo Repository, opts ...Option) *Service {
	s := &Service{
		polls:    polls,
		repo:     repo,
		now:      time.Now,
		cacheTTL: defaultCacheTTL,
		cache:    make(map[int64]cachedInsights),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cast records a vote by voterID. Checks run in order: poll exists, poll admits
// votes, voter has not voted, choice set is valid. The store re-runs admission
// and enforces uniqueness inside the write transaction, so a concurrent
// duplicate still ends in ErrAlreadyVoted. The returned vote holds the
// normalized choice ids as stored.
func (s *Service) Cast(ctx context.Context, pollID, voterID int64, choiceIDs []int64) (*poll.Poll, *Vote, error) {
	now := s.now()

	p, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, nil, err
	}
	if err := poll.Admit(p, now); err != nil {
		return nil, nil, err
	}

	voted, err := s.repo.HasVoted(ctx, pollID, voterID)
	if err != nil {
		return nil, nil, err
	}
	if voted {
		return nil, nil, ErrAlreadyVoted
	}

	ids, err := normalizeChoices(p, choiceIDs)
	if err != nil {
		return nil, nil, err
	}

	v := &Vote{
		PollID:    pollID,
		VoterID:   voterID,
		ChoiceIDs: ids,
		CreatedAt: now.UTC(),
	}
	updated, err := s.repo.Cast(ctx, v, func(current *poll.Poll) error {
		if err := poll.Admit(current, now); err != nil {
			return err
		}
		_, err := normalizeChoices(current, ids)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.Invalidate(pollID)
	return updated, v, nil
}

// normalizeChoices drops duplicate ids and checks the set against the poll.
func normalizeChoices(p *poll.Poll, choiceIDs []int64) ([]int64, error) {
	if len(choiceIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one choice is required", ErrInvalidChoiceSet)
	}
	seen := make(map[int64]struct{}, len(choiceIDs))
	ids := make([]int64, 0, len(choiceIDs))
	for _, id := range choiceIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		if _, ok := p.Choice(id); !ok {
			return nil, fmt.Errorf("%w: choice %d does not belong to poll %d", ErrInvalidChoiceSet, id, p.ID)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if p.PollType == poll.TypeSingleChoice && len(ids) > 1 {
		return nil, fmt.Errorf("%w: only one choice allowed in single-choice polls", ErrInvalidChoiceSet)
	}
	return ids, nil
}

// Insights returns the ranked results of a poll. Voter ids are only included for admins.
func (s *Service) Insights(ctx context.Context, pollID int64, req Requester) (*Insights, error) {
	p, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}

	isAdmin := req.Role == user.RoleAdmin
	if !isAdmin {
		voted, err := s.repo.HasVoted(ctx, pollID, req.ID)
		if err != nil {
			return nil, err
		}
		if !voted {
			return nil, ErrResultsForbidden
		}
	}

	ins, ok := s.cached(pollID)
	if !ok {
		ledger, err := s.repo.ListByPoll(ctx, pollID)
		if err != nil {
			return nil, err
		}
		if len(ledger) == 0 {
			return nil, ErrNoVotesYet
		}
		ins = Aggregate(p, ledger)
		s.store(pollID, ins)
	}

	out := ins.clone()
	if !isAdmin {
		for i := range out.Choices {
			out.Choices[i].Voters = nil
		}
	}
	return &out, nil
}

// Invalidate drops cached insights for a poll.
func (s *Service) Invalidate(pollID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, pollID)
}

func (s *Service) cached(pollID int64) (Insights, bool) {
	if s.cacheTTL <= 0 {
		return Insights{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cache[pollID]
	if !ok || s.now().After(c.expires) {
		return Insights{}, false
	}
	return c.insights, true
}

func (s *Service) store(pollID int64, ins Insights) {
	if s.cacheTTL <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[pollID] = cachedInsights{insights: ins, expires: s.now().Add(s.cacheTTL)}
}
