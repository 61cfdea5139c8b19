package practice

import (
	"time"

	"github.com/google/uuid"
)

// Practice maps to the practice table: a guided wellness exercise shown to
// platform users (breathing, meditation, journaling and similar).
type Practice struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Slug            string    `db:"slug" json:"slug"`
	Category        string    `db:"category" json:"category"`
	Description     *string   `db:"description" json:"description,omitempty"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Difficulty      string    `db:"difficulty" json:"difficulty"`
	MediaURL        *string   `db:"media_url" json:"media_url,omitempty"`
	IsPublished     bool      `db:"is_published" json:"is_published"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
