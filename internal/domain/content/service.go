package content

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrDuplicateSlug = errors.New("article slug already exists")

var validStatuses = map[string]bool{
	StatusDraft: true, StatusPublished: true, StatusArchived: true,
}

var slugRe = regexp.MustCompile(`^[a-z0-9-]+$`)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validate(a *Article) error {
	if l := len(strings.TrimSpace(a.Title)); l == 0 || l > 300 {
		return fmt.Errorf("title must be between 1 and 300 characters")
	}
	if l := len(a.Slug); l == 0 || l > 150 || !slugRe.MatchString(a.Slug) {
		return fmt.Errorf("slug must be a lowercase slug of 1 to 150 characters")
	}
	if strings.TrimSpace(a.Body) == "" {
		return fmt.Errorf("body is required")
	}
	if a.Status == "" {
		a.Status = StatusDraft
	}
	if !validStatuses[a.Status] {
		return fmt.Errorf("invalid status: %s", a.Status)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, a *Article) error {
	if err := validate(a); err != nil {
		return err
	}
	if existing, err := s.repo.GetBySlug(ctx, a.Slug); err == nil && existing != nil {
		return ErrDuplicateSlug
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if a.Status == StatusPublished && a.PublishedAt == nil {
		now := time.Now().UTC()
		a.PublishedAt = &now
	}
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Article, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, a *Article) error {
	if err := validate(a); err != nil {
		return err
	}
	if existing, err := s.repo.GetBySlug(ctx, a.Slug); err == nil && existing != nil && existing.ID != a.ID {
		return ErrDuplicateSlug
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if a.Status == StatusPublished && a.PublishedAt == nil {
		now := time.Now().UTC()
		a.PublishedAt = &now
	}
	return s.repo.Update(ctx, a)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// BulkSetStatus transitions a batch of articles to the given status and
// returns the number affected.
func (s *Service) BulkSetStatus(ctx context.Context, ids []uuid.UUID, status string) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("at least one id is required")
	}
	if !validStatuses[status] {
		return 0, fmt.Errorf("invalid status: %s", status)
	}
	return s.repo.SetStatus(ctx, ids, status)
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Article, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}
