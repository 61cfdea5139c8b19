package practice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var ErrDuplicateSlug = errors.New("practice slug already exists")

var validDifficulties = map[string]bool{
	"beginner": true, "intermediate": true, "advanced": true,
}

var slugRe = regexp.MustCompile(`^[a-z0-9-]+$`)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validate(p *Practice) error {
	if l := len(strings.TrimSpace(p.Title)); l == 0 || l > 200 {
		return fmt.Errorf("title must be between 1 and 200 characters")
	}
	if l := len(p.Slug); l == 0 || l > 100 || !slugRe.MatchString(p.Slug) {
		return fmt.Errorf("slug must be a lowercase slug of 1 to 100 characters")
	}
	if strings.TrimSpace(p.Category) == "" {
		return fmt.Errorf("category is required")
	}
	if p.DurationMinutes <= 0 {
		return fmt.Errorf("duration_minutes must be positive")
	}
	if p.Difficulty == "" {
		p.Difficulty = "beginner"
	}
	if !validDifficulties[p.Difficulty] {
		return fmt.Errorf("invalid difficulty: %s", p.Difficulty)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p *Practice) error {
	if err := validate(p); err != nil {
		return err
	}
	if existing, err := s.repo.GetBySlug(ctx, p.Slug); err == nil && existing != nil {
		return ErrDuplicateSlug
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Practice, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Practice) error {
	if err := validate(p); err != nil {
		return err
	}
	if existing, err := s.repo.GetBySlug(ctx, p.Slug); err == nil && existing != nil && existing.ID != p.ID {
		return ErrDuplicateSlug
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// SetPublished toggles a practice's visibility on the platform.
func (s *Service) SetPublished(ctx context.Context, id uuid.UUID, published bool) (*Practice, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.IsPublished = published
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Practice, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
