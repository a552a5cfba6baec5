package sqlite

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"online-polls/internal/domain/poll"
)

type PollRepo struct {
	db *gorm.DB
}

func NewPollRepo(db *gorm.DB) *PollRepo {
	return &PollRepo{db: db}
}

func (m pollModel) toDomain() poll.Poll {
	return poll.Poll{
		ID:             m.ID,
		Title:          m.Title,
		Question:       m.Question,
		PollType:       poll.Type(m.PollType),
		CreatedBy:      m.CreatedBy,
		StartDate:      m.StartDate.UTC(),
		ExpirationDate: m.ExpirationDate.UTC(),
		IsActive:       m.IsActive,
		ReportCount:    m.ReportCount,
		CreatedAt:      m.CreatedAt.UTC(),
		Choices:        []poll.Choice{},
		ReportedBy:     []int64{},
	}
}

func (r *PollRepo) Create(ctx context.Context, p *poll.Poll) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := pollModel{
			Title:          p.Title,
			Question:       p.Question,
			PollType:       string(p.PollType),
			CreatedBy:      p.CreatedBy,
			StartDate:      p.StartDate,
			ExpirationDate: p.ExpirationDate,
			IsActive:       p.IsActive,
			ReportCount:    p.ReportCount,
			CreatedAt:      p.CreatedAt,
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		p.ID = m.ID

		for i := range p.Choices {
			c := choiceModel{PollID: m.ID, Position: i, Text: p.Choices[i].Text}
			if err := tx.Create(&c).Error; err != nil {
				return err
			}
			p.Choices[i].ID = c.ID
		}
		return nil
	})
}

func (r *PollRepo) GetByID(ctx context.Context, id int64) (*poll.Poll, error) {
	return loadPoll(r.db.WithContext(ctx), id)
}

func loadPoll(tx *gorm.DB, id int64) (*poll.Poll, error) {
	var m pollModel
	if err := tx.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, poll.ErrPollNotFound
		}
		return nil, err
	}
	polls, err := withDetails(tx, []pollModel{m})
	if err != nil {
		return nil, err
	}
	return &polls[0], nil
}

func withDetails(tx *gorm.DB, models []pollModel) ([]poll.Poll, error) {
	if len(models) == 0 {
		return []poll.Poll{}, nil
	}

	ids := make([]int64, len(models))
	byID := make(map[int64]int, len(models))
	out := make([]poll.Poll, len(models))
	for i, m := range models {
		ids[i] = m.ID
		byID[m.ID] = i
		out[i] = m.toDomain()
	}

	var choices []choiceModel
	if err := tx.Where("poll_id IN ?", ids).Order("poll_id, position").Find(&choices).Error; err != nil {
		return nil, err
	}
	for _, c := range choices {
		i := byID[c.PollID]
		out[i].Choices = append(out[i].Choices, poll.Choice{ID: c.ID, Text: c.Text, VoteCount: c.VoteCount})
	}

	var reports []reportModel
	if err := tx.Where("poll_id IN ?", ids).Order("poll_id, created_at, user_id").Find(&reports).Error; err != nil {
		return nil, err
	}
	for _, rep := range reports {
		i := byID[rep.PollID]
		out[i].ReportedBy = append(out[i].ReportedBy, rep.UserID)
	}

	return out, nil
}

// Search filters in Go: status depends on now, and SQLite's LOWER only folds
// ASCII, so title matching cannot be left to SQL.
func (r *PollRepo) Search(ctx context.Context, q poll.SearchQuery, now time.Time) ([]poll.Poll, error) {
	tx := r.db.WithContext(ctx)

	var models []pollModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}

	text := strings.ToLower(strings.TrimSpace(q.Text))
	filtered := models[:0]
	for _, m := range models {
		if text != "" && !strings.Contains(strings.ToLower(m.Title), text) {
			continue
		}
		p := m.toDomain()
		if q.Status != "" && poll.StatusAt(&p, now) != q.Status {
			continue
		}
		filtered = append(filtered, m)
	}
	sortModels(filtered, q.SortBy, q.SortOrder)

	return withDetails(tx, filtered)
}

func sortModels(models []pollModel, by poll.SortField, order poll.SortOrder) {
	less := func(a, b pollModel) int {
		switch by {
		case poll.SortByStartDate:
			return a.StartDate.Compare(b.StartDate)
		case poll.SortByExpirationDate:
			return a.ExpirationDate.Compare(b.ExpirationDate)
		case poll.SortByTitle:
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case poll.SortByReportCount:
			return a.ReportCount - b.ReportCount
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(models, func(i, j int) bool {
		c := less(models[i], models[j])
		if c == 0 {
			c = int(models[i].ID - models[j].ID)
		}
		if order == poll.SortAsc {
			return c < 0
		}
		return c > 0
	})
}

func (r *PollRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m pollModel
		if err := tx.First(&m, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return poll.ErrPollNotFound
			}
			return err
		}

		if err := tx.Exec(`DELETE FROM vote_choices WHERE vote_id IN (SELECT id FROM votes WHERE poll_id = ?)`, id).Error; err != nil {
			return err
		}
		for _, model := range []any{&voteModel{}, &reportModel{}, &choiceModel{}} {
			if err := tx.Where("poll_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&pollModel{}, id).Error
	})
}

func (r *PollRepo) ApplyReport(ctx context.Context, id, reporterID int64, at time.Time, apply func(p *poll.Poll) error) (*poll.Poll, error) {
	var p *poll.Poll
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = loadPoll(tx, id)
		if err != nil {
			return err
		}
		if err := apply(p); err != nil {
			return err
		}

		rep := reportModel{PollID: id, UserID: reporterID, CreatedAt: at.UTC()}
		if err := tx.Create(&rep).Error; err != nil {
			if isUniqueViolation(err) {
				return poll.ErrAlreadyReported
			}
			return err
		}

		return tx.Model(&pollModel{}).Where("id = ?", id).Updates(map[string]any{
			"report_count":    p.ReportCount,
			"is_active":       p.IsActive,
			"expiration_date": p.ExpirationDate,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PollRepo) ListChangingState(ctx context.Context, from, to time.Time) ([]poll.Poll, error) {
	tx := r.db.WithContext(ctx)

	var models []pollModel
	if err := tx.Where("is_active = ?", true).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	changing := models[:0]
	for _, m := range models {
		if len(poll.ChangesWithin(m.toDomain(), from, to)) > 0 {
			changing = append(changing, m)
		}
	}
	return withDetails(tx, changing)
}
