package sqlite

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"online-polls/internal/domain/poll"
	"online-polls/internal/domain/vote"
)

type VoteRepo struct {
	db *gorm.DB
}

func NewVoteRepo(db *gorm.DB) *VoteRepo {
	return &VoteRepo{db: db}
}

func (r *VoteRepo) Cast(ctx context.Context, v *vote.Vote, admit func(p *poll.Poll) error) (*poll.Poll, error) {
	var updated *poll.Poll
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := loadPoll(tx, v.PollID)
		if err != nil {
			return err
		}
		if err := admit(p); err != nil {
			return err
		}

		m := voteModel{PollID: v.PollID, UserID: v.VoterID, CreatedAt: v.CreatedAt}
		if err := tx.Create(&m).Error; err != nil {
			if isUniqueViolation(err) {
				return vote.ErrAlreadyVoted
			}
			return err
		}
		v.ID = m.ID

		ordered := append([]int64(nil), v.ChoiceIDs...)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
		for _, choiceID := range ordered {
			if err := tx.Create(&voteChoiceModel{VoteID: m.ID, ChoiceID: choiceID}).Error; err != nil {
				return err
			}
			err := tx.Model(&choiceModel{}).
				Where("id = ? AND poll_id = ?", choiceID, v.PollID).
				UpdateColumn("vote_count", gorm.Expr("vote_count + ?", 1)).Error
			if err != nil {
				return err
			}
		}

		updated, err = loadPoll(tx, v.PollID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *VoteRepo) HasVoted(ctx context.Context, pollID, voterID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&voteModel{}).
		Where("poll_id = ? AND user_id = ?", pollID, voterID).
		Count(&n).Error
	return n > 0, err
}

func (r *VoteRepo) ListByPoll(ctx context.Context, pollID int64) ([]vote.Vote, error) {
	tx := r.db.WithContext(ctx)

	var votes []voteModel
	if err := tx.Where("poll_id = ?", pollID).Order("id").Find(&votes).Error; err != nil {
		return nil, err
	}
	res := make([]vote.Vote, 0, len(votes))
	if len(votes) == 0 {
		return res, nil
	}

	ids := make([]int64, len(votes))
	byID := make(map[int64]int, len(votes))
	for i, m := range votes {
		ids[i] = m.ID
		byID[m.ID] = i
		res = append(res, vote.Vote{
			ID:        m.ID,
			PollID:    m.PollID,
			VoterID:   m.UserID,
			ChoiceIDs: []int64{},
			CreatedAt: m.CreatedAt.UTC(),
		})
	}

	var selections []voteChoiceModel
	if err := tx.Where("vote_id IN ?", ids).Order("vote_id, choice_id").Find(&selections).Error; err != nil {
		return nil, err
	}
	for _, s := range selections {
		i := byID[s.VoteID]
		res[i].ChoiceIDs = append(res[i].ChoiceIDs, s.ChoiceID)
	}
	return res, nil
}
