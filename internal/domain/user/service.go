package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidInput       = errors.New("invalid user input")
)

type Service struct {
	repo Repository
	cost int
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// WithHashCost returns a copy of s hashing passwords with cost. Tests use bcrypt.MinCost.
func (s *Service) WithHashCost(cost int) *Service {
	c := *s
	c.cost = cost
	return &c
}

func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	return s.create(ctx, email, password, RoleVoter)
}

func (s *Service) create(ctx context.Context, email, password, role string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}

	return u, nil
}

// EnsureAdmin creates the bootstrap administrator, or promotes the existing
// account with that email.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (*User, error) {
	existing, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	switch {
	case err == nil:
		if existing.Role != RoleAdmin {
			if err := s.repo.UpdateRole(ctx, existing.ID, RoleAdmin); err != nil {
				return nil, err
			}
			existing.Role = RoleAdmin
		}
		return existing, nil
	case errors.Is(err, ErrUserNotFound):
		return s.create(ctx, email, password, RoleAdmin)
	default:
		return nil, err
	}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// ListActiveVoters returns every active account holding the voter role.
func (s *Service) ListActiveVoters(ctx context.Context) ([]User, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]User, 0, len(all))
	for _, u := range all {
		if u.IsActive && u.Role == RoleVoter {
			res = append(res, u)
		}
	}
	return res, nil
}

func (s *Service) UpdateRole(ctx context.Context, id int64, role string) error {
	if !ValidRole(role) {
		return fmt.Errorf("%w: invalid role", ErrInvalidInput)
	}
	return s.repo.UpdateRole(ctx, id, role)
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}
