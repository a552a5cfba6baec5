package sqlite

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"online-polls/internal/domain/user"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (m userModel) toDomain() user.User {
	return user.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func (r *UserRepo) Create(ctx context.Context, u *user.User) error {
	m := userModel{
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		IsActive:     u.IsActive,
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return err
	}
	u.ID = m.ID
	u.CreatedAt = m.CreatedAt
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, "email = ?", email)
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *UserRepo) getOne(ctx context.Context, cond string, arg any) (*user.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).Where(cond, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	u := m.toDomain()
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]user.User, error) {
	var models []userModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	usersList := make([]user.User, 0, len(models))
	for _, m := range models {
		usersList = append(usersList, m.toDomain())
	}
	return usersList, nil
}

func (r *UserRepo) UpdateRole(ctx context.Context, id int64, role string) error {
	return r.update(ctx, id, "role", role)
}

func (r *UserRepo) Deactivate(ctx context.Context, id int64) error {
	return r.update(ctx, id, "is_active", false)
}

func (r *UserRepo) update(ctx context.Context, id int64, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}
