package support

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrResourceNotFound = errors.New("crisis resource not found")
	ErrFAQNotFound      = errors.New("faq not found")
)

type TicketRepository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	Update(ctx context.Context, t *Ticket) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Ticket, int, error)
}

type ResourceRepository interface {
	Create(ctx context.Context, r *CrisisResource) error
	GetByID(ctx context.Context, id uuid.UUID) (*CrisisResource, error)
	Update(ctx context.Context, r *CrisisResource) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, region string, limit, offset int) ([]*CrisisResource, int, error)
}

type FAQRepository interface {
	Create(ctx context.Context, f *FAQ) error
	GetByID(ctx context.Context, id uuid.UUID) (*FAQ, error)
	Update(ctx context.Context, f *FAQ) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params map[string]string, limit, offset int) ([]*FAQ, int, error)
}
