package therapist

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var ErrDuplicateEmail = errors.New("therapist email already exists")

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validate(t *Therapist) error {
	if l := len(strings.TrimSpace(t.FullName)); l == 0 || l > 200 {
		return fmt.Errorf("full_name must be between 1 and 200 characters")
	}
	if !emailRe.MatchString(t.Email) {
		return fmt.Errorf("invalid email address")
	}
	for _, s := range t.Specialties {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("specialties must not contain empty entries")
		}
	}
	return nil
}

func (s *Service) checkEmail(ctx context.Context, email string, exclude uuid.UUID) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != exclude {
		return ErrDuplicateEmail
	}
	return nil
}

func (s *Service) Create(ctx context.Context, t *Therapist) error {
	if err := validate(t); err != nil {
		return err
	}
	if err := s.checkEmail(ctx, t.Email, uuid.Nil); err != nil {
		return err
	}
	return s.repo.Create(ctx, t)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Therapist, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, t *Therapist) error {
	if err := validate(t); err != nil {
		return err
	}
	if err := s.checkEmail(ctx, t.Email, t.ID); err != nil {
		return err
	}
	return s.repo.Update(ctx, t)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// SetAcceptingClients flips the referral availability flag without touching
// the rest of the record.
func (s *Service) SetAcceptingClients(ctx context.Context, id uuid.UUID, accepting bool) (*Therapist, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.AcceptingClients = accepting
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Therapist, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
