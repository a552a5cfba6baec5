package sqlite

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"online-polls/internal/platform/database"
)

type userModel struct {
	ID           int64  `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null"`
	IsActive     bool
	CreatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

type pollModel struct {
	ID             int64     `gorm:"primaryKey"`
	Title          string    `gorm:"not null"`
	Question       string    `gorm:"not null"`
	PollType       string    `gorm:"not null"`
	CreatedBy      int64     `gorm:"index"`
	StartDate      time.Time `gorm:"index"`
	ExpirationDate time.Time `gorm:"index"`
	IsActive       bool
	ReportCount    int
	CreatedAt      time.Time
}

func (pollModel) TableName() string { return "polls" }

type choiceModel struct {
	ID        int64  `gorm:"primaryKey"`
	PollID    int64  `gorm:"uniqueIndex:idx_choices_poll_position"`
	Position  int    `gorm:"uniqueIndex:idx_choices_poll_position"`
	Text      string `gorm:"not null"`
	VoteCount int64
}

func (choiceModel) TableName() string { return "choices" }

type voteModel struct {
	ID        int64 `gorm:"primaryKey"`
	PollID    int64 `gorm:"uniqueIndex:idx_votes_poll_user"`
	UserID    int64 `gorm:"uniqueIndex:idx_votes_poll_user"`
	CreatedAt time.Time
}

func (voteModel) TableName() string { return "votes" }

type voteChoiceModel struct {
	VoteID   int64 `gorm:"primaryKey;autoIncrement:false"`
	ChoiceID int64 `gorm:"primaryKey;autoIncrement:false"`
}

func (voteChoiceModel) TableName() string { return "vote_choices" }

type reportModel struct {
	PollID    int64 `gorm:"primaryKey;autoIncrement:false"`
	UserID    int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
}

func (reportModel) TableName() string { return "poll_reports" }

// Open opens the embedded store and migrates its tables. An empty path gives
// an in-memory database private to name.
func Open(path, name string) (*gorm.DB, error) {
	db, err := database.NewSQLite(path, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&userModel{},
		&pollModel{},
		&choiceModel{},
		&voteModel{},
		&voteChoiceModel{},
		&reportModel{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
