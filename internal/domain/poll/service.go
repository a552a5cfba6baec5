package poll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrPollNotFound = errors.New("poll not found")
	ErrInvalidPoll  = errors.New("invalid poll")
	ErrInvalidDates = errors.New("expirationDate must be after startDate")
	ErrInvalidQuery = errors.New("invalid search query")
)

// Notifier is told about polls that report suspension just closed. It must not block.
type Notifier interface {
	PollSuspended(p Poll)
}

type Service struct {
	repo      Repository
	notifier  Notifier
	threshold int
	now       func() time.Time
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithReportThreshold(n int) Option {
	return func(s *Service) { s.threshold = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		threshold: DefaultReportThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	Title          string
	Question       string
	Choices        []string
	PollType       Type
	StartDate      *time.Time
	ExpirationDate *time.Time
	CreatedBy      int64
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Poll, error) {
	title := strings.TrimSpace(in.Title)
	question := strings.TrimSpace(in.Question)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidPoll)
	}
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidPoll)
	}
	if !in.PollType.Valid() {
		return nil, fmt.Errorf("%w: pollType must be %q or %q", ErrInvalidPoll, TypeSingleChoice, TypeMultipleChoice)
	}
	if len(in.Choices) < 2 {
		return nil, fmt.Errorf("%w: poll must have at least two choices", ErrInvalidPoll)
	}
	if in.ExpirationDate == nil {
		return nil, fmt.Errorf("%w: expirationDate is required", ErrInvalidPoll)
	}

	now := s.now()
	start := now
	if in.StartDate != nil {
		start = *in.StartDate
	}
	if !start.Before(*in.ExpirationDate) {
		return nil, ErrInvalidDates
	}

	choices := make([]Choice, 0, len(in.Choices))
	for _, text := range in.Choices {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("%w: choice text cannot be empty", ErrInvalidPoll)
		}
		choices = append(choices, Choice{Text: text})
	}

	p := &Poll{
		Title:          title,
		Question:       question,
		Choices:        choices,
		PollType:       in.PollType,
		CreatedBy:      in.CreatedBy,
		StartDate:      start.UTC(),
		ExpirationDate: in.ExpirationDate.UTC(),
		IsActive:       true,
		ReportedBy:     []int64{},
		CreatedAt:      now.UTC(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Poll, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, q SearchQuery) ([]Poll, error) {
	switch q.Status {
	case "", StatusActive, StatusExpired, StatusUpcoming:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidQuery, q.Status)
	}
	switch q.SortBy {
	case "":
		q.SortBy = SortByCreatedAt
	case SortByCreatedAt, SortByStartDate, SortByExpirationDate, SortByTitle, SortByReportCount:
	default:
		return nil, fmt.Errorf("%w: unknown sort field %q", ErrInvalidQuery, q.SortBy)
	}
	switch strings.ToLower(string(q.SortOrder)) {
	case "":
		q.SortOrder = SortDesc
	case string(SortAsc):
		q.SortOrder = SortAsc
	case string(SortDesc):
		q.SortOrder = SortDesc
	default:
		return nil, fmt.Errorf("%w: sortOrder must be asc or desc", ErrInvalidQuery)
	}
	q.Text = strings.TrimSpace(q.Text)

	return s.repo.Search(ctx, q, s.now())
}

// Report files a report by reporterID. Reaching the threshold closes the poll
// and notifies its creator in the background.
func (s *Service) Report(ctx context.Context, pollID, reporterID int64) (*Poll, error) {
	now := s.now().UTC()
	var suspended bool
	p, err := s.repo.ApplyReport(ctx, pollID, reporterID, now, func(p *Poll) error {
		var err error
		suspended, err = ApplyReport(p, reporterID, now, s.threshold)
		return err
	})
	if err != nil {
		return nil, err
	}
	if suspended && s.notifier != nil {
		s.notifier.PollSuspended(*p)
	}
	return p, nil
}

// ListChangingStateWithin returns the opening/closing transitions due in the next window.
func (s *Service) ListChangingStateWithin(ctx context.Context, window time.Duration) ([]StateChange, error) {
	from := s.now().UTC()
	to := from.Add(window)
	polls, err := s.repo.ListChangingState(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var res []StateChange
	for _, p := range polls {
		res = append(res, ChangesWithin(p, from, to)...)
	}
	return res, nil
}
