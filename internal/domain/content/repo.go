package content

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("article not found")

type Repository interface {
	Create(ctx context.Context, a *Article) error
	GetByID(ctx context.Context, id uuid.UUID) (*Article, error)
	GetBySlug(ctx context.Context, slug string) (*Article, error)
	Update(ctx context.Context, a *Article) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetStatus(ctx context.Context, ids []uuid.UUID, status string) (int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Article, int, error)
}
