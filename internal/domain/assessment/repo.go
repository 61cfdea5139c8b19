package assessment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no assessment matches the given identifier.
var ErrNotFound = errors.New("assessment not found")

type Repository interface {
	Create(ctx context.Context, a *Assessment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Assessment, error)
	GetByType(ctx context.Context, slug string) (*Assessment, error)
	Update(ctx context.Context, a *Assessment) error
	ReplaceQuestions(ctx context.Context, assessmentID uuid.UUID, questions []Question) error
	SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int, error)
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int, error)
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Assessment, int, error)
}
