package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"online-polls/internal/domain/poll"
)

type PollRepo struct {
	db *sqlx.DB
}

func NewPollRepo(db *sqlx.DB) *PollRepo {
	return &PollRepo{db: db}
}

type pollRow struct {
	ID             int64     `db:"id"`
	Title          string    `db:"title"`
	Question       string    `db:"question"`
	PollType       string    `db:"poll_type"`
	CreatedBy      int64     `db:"created_by"`
	StartDate      time.Time `db:"start_date"`
	ExpirationDate time.Time `db:"expiration_date"`
	IsActive       bool      `db:"is_active"`
	ReportCount    int       `db:"report_count"`
	CreatedAt      time.Time `db:"created_at"`
}

type choiceRow struct {
	ID        int64  `db:"id"`
	PollID    int64  `db:"poll_id"`
	Text      string `db:"text"`
	VoteCount int64  `db:"vote_count"`
}

type reportRow struct {
	PollID int64 `db:"poll_id"`
	UserID int64 `db:"user_id"`
}

const pollColumns = `id, title, question, poll_type, created_by, start_date, expiration_date, is_active, report_count, created_at`

func (row pollRow) toDomain() poll.Poll {
	return poll.Poll{
		ID:             row.ID,
		Title:          row.Title,
		Question:       row.Question,
		PollType:       poll.Type(row.PollType),
		CreatedBy:      row.CreatedBy,
		StartDate:      row.StartDate.UTC(),
		ExpirationDate: row.ExpirationDate.UTC(),
		IsActive:       row.IsActive,
		ReportCount:    row.ReportCount,
		CreatedAt:      row.CreatedAt.UTC(),
		Choices:        []poll.Choice{},
		ReportedBy:     []int64{},
	}
}

func (r *PollRepo) Create(ctx context.Context, p *poll.Poll) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx, `
        INSERT INTO polls (title, question, poll_type, created_by, start_date, expiration_date, is_active, report_count, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `,
		p.Title, p.Question, string(p.PollType), p.CreatedBy,
		p.StartDate, p.ExpirationDate, p.IsActive, p.ReportCount, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return err
	}

	for i := range p.Choices {
		if err := tx.QueryRowxContext(ctx, `
            INSERT INTO choices (poll_id, position, text)
            VALUES ($1, $2, $3)
            RETURNING id
        `, p.ID, i, p.Choices[i].Text).Scan(&p.Choices[i].ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PollRepo) GetByID(ctx context.Context, id int64) (*poll.Poll, error) {
	return getPoll(ctx, r.db, id, "")
}

// getPoll loads a poll with its choices and reporters. lock is appended to the
// poll select, e.g. "FOR UPDATE" inside a transaction.
func getPoll(ctx context.Context, q sqlx.QueryerContext, id int64, lock string) (*poll.Poll, error) {
	var row pollRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT `+pollColumns+` FROM polls WHERE id = $1 `+lock, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, poll.ErrPollNotFound
		}
		return nil, err
	}

	polls, err := withDetails(ctx, q, []pollRow{row})
	if err != nil {
		return nil, err
	}
	return &polls[0], nil
}

// withDetails attaches choices and reporters to the given rows in two queries.
func withDetails(ctx context.Context, q sqlx.QueryerContext, rows []pollRow) ([]poll.Poll, error) {
	if len(rows) == 0 {
		return []poll.Poll{}, nil
	}

	ids := make([]int64, len(rows))
	byID := make(map[int64]int, len(rows))
	out := make([]poll.Poll, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		byID[row.ID] = i
		out[i] = row.toDomain()
	}

	query, args, err := sqlx.In(`
        SELECT id, poll_id, text, vote_count
        FROM choices WHERE poll_id IN (?)
        ORDER BY poll_id, position
    `, ids)
	if err != nil {
		return nil, err
	}
	var choices []choiceRow
	if err := sqlx.SelectContext(ctx, q, &choices, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, err
	}
	for _, c := range choices {
		i := byID[c.PollID]
		out[i].Choices = append(out[i].Choices, poll.Choice{ID: c.ID, Text: c.Text, VoteCount: c.VoteCount})
	}

	query, args, err = sqlx.In(`
        SELECT poll_id, user_id
        FROM poll_reports WHERE poll_id IN (?)
        ORDER BY poll_id, created_at, user_id
    `, ids)
	if err != nil {
		return nil, err
	}
	var reports []reportRow
	if err := sqlx.SelectContext(ctx, q, &reports, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, err
	}
	for _, rep := range reports {
		i := byID[rep.PollID]
		out[i].ReportedBy = append(out[i].ReportedBy, rep.UserID)
	}

	return out, nil
}

var sortColumns = map[poll.SortField]string{
	poll.SortByCreatedAt:      "created_at",
	poll.SortByStartDate:      "start_date",
	poll.SortByExpirationDate: "expiration_date",
	poll.SortByTitle:          "lower(title)",
	poll.SortByReportCount:    "report_count",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PollRepo) Search(ctx context.Context, q poll.SearchQuery, now time.Time) ([]poll.Poll, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if text := strings.TrimSpace(q.Text); text != "" {
		where = append(where, "title ILIKE '%' || "+arg(likeEscaper.Replace(text))+" || '%'")
	}

	switch q.Status {
	case poll.StatusActive:
		n := arg(now)
		where = append(where, "is_active AND start_date <= "+n+" AND expiration_date >= "+n)
	case poll.StatusUpcoming:
		n := arg(now)
		where = append(where, "is_active AND start_date > "+n+" AND expiration_date >= "+n)
	case poll.StatusExpired:
		where = append(where, "(NOT is_active OR expiration_date < "+arg(now)+")")
	}

	query := `SELECT ` + pollColumns + ` FROM polls`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	dir := "DESC"
	if q.SortOrder == poll.SortAsc {
		dir = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id %s", column, dir, dir)

	var rows []pollRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return withDetails(ctx, r.db, rows)
}

func (r *PollRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM polls WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return poll.ErrPollNotFound
	}
	return nil
}

func (r *PollRepo) ApplyReport(ctx context.Context, id, reporterID int64, at time.Time, apply func(p *poll.Poll) error) (*poll.Poll, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := getPoll(ctx, tx, id, "FOR UPDATE")
	if err != nil {
		return nil, err
	}
	if err := apply(p); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO poll_reports (poll_id, user_id, created_at) VALUES ($1, $2, $3)
    `, id, reporterID, at); err != nil {
		if isUniqueViolation(err) {
			return nil, poll.ErrAlreadyReported
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
        UPDATE polls SET report_count = $2, is_active = $3, expiration_date = $4
        WHERE id = $1
    `, id, p.ReportCount, p.IsActive, p.ExpirationDate); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PollRepo) ListChangingState(ctx context.Context, from, to time.Time) ([]poll.Poll, error) {
	var rows []pollRow
	err := r.db.SelectContext(ctx, &rows, `
        SELECT `+pollColumns+`
        FROM polls
        WHERE is_active
          AND ((start_date > $1 AND start_date <= $2)
            OR (expiration_date > $1 AND expiration_date <= $2))
        ORDER BY id
    `, from, to)
	if err != nil {
		return nil, err
	}
	return withDetails(ctx, r.db, rows)
}
