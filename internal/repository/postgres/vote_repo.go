package postgres

import (
	"context"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"online-polls/internal/domain/poll"
	"online-polls/internal/domain/vote"
)

type VoteRepo struct {
	db *sqlx.DB
}

func NewVoteRepo(db *sqlx.DB) *VoteRepo {
	return &VoteRepo{db: db}
}

// Cast holds a share lock on the poll so a concurrent report cannot suspend it
// between admission and the ledger insert.
func (r *VoteRepo) Cast(ctx context.Context, v *vote.Vote, admit func(p *poll.Poll) error) (*poll.Poll, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := getPoll(ctx, tx, v.PollID, "FOR SHARE")
	if err != nil {
		return nil, err
	}
	if err := admit(p); err != nil {
		return nil, err
	}

	err = tx.QueryRowxContext(ctx, `
        INSERT INTO votes (poll_id, user_id, created_at)
        VALUES ($1, $2, $3)
        RETURNING id
    `, v.PollID, v.VoterID, v.CreatedAt).Scan(&v.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, vote.ErrAlreadyVoted
		}
		return nil, err
	}

	// fixed order keeps concurrent multi-choice ballots from deadlocking on choice rows
	ordered := append([]int64(nil), v.ChoiceIDs...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	for _, choiceID := range ordered {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO vote_choices (vote_id, choice_id) VALUES ($1, $2)
        `, v.ID, choiceID); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `
            UPDATE choices SET vote_count = vote_count + 1
            WHERE id = $1 AND poll_id = $2
        `, choiceID, v.PollID); err != nil {
			return nil, err
		}
	}

	updated, err := getPoll(ctx, tx, v.PollID, "")
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *VoteRepo) HasVoted(ctx context.Context, pollID, voterID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
        SELECT EXISTS (SELECT 1 FROM votes WHERE poll_id = $1 AND user_id = $2)
    `, pollID, voterID)
	return exists, err
}

type ledgerRow struct {
	ID        int64     `db:"id"`
	PollID    int64     `db:"poll_id"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ChoiceID  int64     `db:"choice_id"`
}

func (r *VoteRepo) ListByPoll(ctx context.Context, pollID int64) ([]vote.Vote, error) {
	var rows []ledgerRow
	err := r.db.SelectContext(ctx, &rows, `
        SELECT v.id, v.poll_id, v.user_id, v.created_at, vc.choice_id
        FROM votes v
        JOIN vote_choices vc ON vc.vote_id = v.id
        WHERE v.poll_id = $1
        ORDER BY v.id, vc.choice_id
    `, pollID)
	if err != nil {
		return nil, err
	}

	res := []vote.Vote{}
	for _, row := range rows {
		if n := len(res); n > 0 && res[n-1].ID == row.ID {
			res[n-1].ChoiceIDs = append(res[n-1].ChoiceIDs, row.ChoiceID)
			continue
		}
		res = append(res, vote.Vote{
			ID:        row.ID,
			PollID:    row.PollID,
			VoterID:   row.UserID,
			ChoiceIDs: []int64{row.ChoiceID},
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return res, nil
}
