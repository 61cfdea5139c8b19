package practice

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("practice not found")

type Repository interface {
	Create(ctx context.Context, p *Practice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Practice, error)
	GetBySlug(ctx context.Context, slug string) (*Practice, error)
	Update(ctx context.Context, p *Practice) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Practice, int, error)
}
