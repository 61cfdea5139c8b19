package activity

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("activity entry not found")

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	Search(ctx context.Context, params SearchParams) ([]*Entry, int, error)
	// SearchAll returns the full filtered set, ignoring pagination. Used by
	// the export endpoints.
	SearchAll(ctx context.Context, params SearchParams) ([]*Entry, error)
}
