package vote

import (
	"context"
	"time"

	"online-polls/internal/domain/poll"
)

// Vote is an immutable ledger entry. (PollID, VoterID) is unique in every store.
type Vote struct {
	ID        int64     `json:"id"`
	PollID    int64     `json:"pollId"`
	VoterID   int64     `json:"voterId"`
	ChoiceIDs []int64   `json:"choiceIds"`
	CreatedAt time.Time `json:"createdAt"`
}

type PollReader interface {
	GetByID(ctx context.Context, id int64) (*poll.Poll, error)
}

type Repository interface {
	// Cast runs admit against the stored poll, inserts v and increments the
	// chosen choice counters in one transaction, returning the updated poll.
	// A duplicate (poll, voter) pair fails with ErrAlreadyVoted and leaves no trace.
	Cast(ctx context.Context, v *Vote, admit func(p *poll.Poll) error) (*poll.Poll, error)
	HasVoted(ctx context.Context, pollID, voterID int64) (bool, error)
	ListByPoll(ctx context.Context, pollID int64) ([]Vote, error)
}
