package poll

import (
	"context"
	"time"
)

type Type string

const (
	TypeSingleChoice   Type = "single-choice"
	TypeMultipleChoice Type = "multiple-choice"
)

func (t Type) Valid() bool {
	return t == TypeSingleChoice || t == TypeMultipleChoice
}

// Status is derived from the clock and the lifecycle flags, it is never stored.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
)

type Poll struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Question       string    `json:"question"`
	Choices        []Choice  `json:"choices"`
	PollType       Type      `json:"pollType"`
	CreatedBy      int64     `json:"createdBy"`
	StartDate      time.Time `json:"startDate"`
	ExpirationDate time.Time `json:"expirationDate"`
	IsActive       bool      `json:"isActive"`
	ReportCount    int       `json:"reportCount"`
	ReportedBy     []int64   `json:"reportedBy"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Choice struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	VoteCount int64  `json:"voteCount"`
}

// Choice returns the choice with the given id.
func (p *Poll) Choice(id int64) (Choice, bool) {
	for _, c := range p.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

func (p *Poll) ReportedByUser(userID int64) bool {
	for _, id := range p.ReportedBy {
		if id == userID {
			return true
		}
	}
	return false
}

type SortField string

const (
	SortByCreatedAt      SortField = "createdAt"
	SortByStartDate      SortField = "startDate"
	SortByExpirationDate SortField = "expirationDate"
	SortByTitle          SortField = "title"
	SortByReportCount    SortField = "reportCount"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type SearchQuery struct {
	Text      string
	Status    Status
	SortBy    SortField
	SortOrder SortOrder
}

// Transition names a lifecycle edge a poll is about to cross.
type Transition string

const (
	TransitionOpening Transition = "opening"
	TransitionClosing Transition = "closing"
)

type StateChange struct {
	Poll       Poll
	Transition Transition
	At         time.Time
}

type Repository interface {
	Create(ctx context.Context, p *Poll) error
	GetByID(ctx context.Context, id int64) (*Poll, error)
	Search(ctx context.Context, q SearchQuery, now time.Time) ([]Poll, error)
	Delete(ctx context.Context, id int64) error
	// ApplyReport records reporterID against the poll, stamped at, and persists
	// whatever apply changed, atomically. A second report by the same user fails
	// with ErrAlreadyReported.
	ApplyReport(ctx context.Context, id, reporterID int64, at time.Time, apply func(p *Poll) error) (*Poll, error)
	// ListChangingState returns polls whose start or expiration falls in (from, to].
	ListChangingState(ctx context.Context, from, to time.Time) ([]Poll, error)
}
