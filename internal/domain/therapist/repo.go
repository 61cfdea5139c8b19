package therapist

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("therapist not found")

type Repository interface {
	Create(ctx context.Context, t *Therapist) error
	GetByID(ctx context.Context, id uuid.UUID) (*Therapist, error)
	GetByEmail(ctx context.Context, email string) (*Therapist, error)
	Update(ctx context.Context, t *Therapist) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Therapist, int, error)
}
