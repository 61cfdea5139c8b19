package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrWrongPassword   = errors.New("current password does not match")
	ErrAccountDisabled = errors.New("account is disabled")
)

var validRoles = map[string]bool{
	RoleAdmin: true, RoleEditor: true, RoleSupport: true,
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 10

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Password    string `json:"password"`
}

func validateProfile(email, displayName, role string) error {
	if !emailRe.MatchString(email) {
		return fmt.Errorf("invalid email address")
	}
	if l := len(strings.TrimSpace(displayName)); l == 0 || l > 100 {
		return fmt.Errorf("display_name must be between 1 and 100 characters")
	}
	if !validRoles[role] {
		return fmt.Errorf("invalid role: %s", role)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p CreateParams) (*User, error) {
	if err := validateProfile(p.Email, p.DisplayName, p.Role); err != nil {
		return nil, err
	}
	if err := validatePassword(p.Password); err != nil {
		return nil, err
	}
	if existing, err := s.repo.GetByEmail(ctx, p.Email); err == nil && existing != nil {
		return nil, ErrDuplicateEmail
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		Email:        strings.ToLower(p.Email),
		DisplayName:  p.DisplayName,
		Role:         p.Role,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

type UpdateParams struct {
	Email       *string `json:"email"`
	DisplayName *string `json:"display_name"`
	Role        *string `json:"role"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Email != nil {
		u.Email = strings.ToLower(*p.Email)
	}
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if err := validateProfile(u.Email, u.DisplayName, u.Role); err != nil {
		return nil, err
	}
	if p.Email != nil {
		if existing, err := s.repo.GetByEmail(ctx, u.Email); err == nil && existing != nil && existing.ID != id {
			return nil, ErrDuplicateEmail
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Deactivate disables the account without deleting it, so activity history
// keeps a valid actor reference.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.IsActive = false
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Reactivate(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.IsActive = true
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword verifies the current password before setting a new one.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	u.PasswordHash = string(hash)
	return s.repo.Update(ctx, u)
}

// Authenticate checks credentials and stamps last_login_at. It returns the
// same error for unknown emails and bad passwords.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrWrongPassword
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}
	now := time.Now().UTC()
	u.LastLoginAt = &now
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*User, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
