package activity

import (
	"time"

	"github.com/google/uuid"
)

// Entry maps to the activity_entry table: one recorded admin action.
type Entry struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Timestamp  time.Time `db:"recorded_at" json:"timestamp"`
	ActorID    *string   `db:"actor_id" json:"actor_id,omitempty"`
	ActorEmail *string   `db:"actor_email" json:"actor_email,omitempty"`
	Action     string    `db:"action" json:"action"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   *string   `db:"entity_id" json:"entity_id,omitempty"`
	Detail     *string   `db:"detail" json:"detail,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	StatusCode int       `db:"status_code" json:"status_code"`
}

// SearchParams filters the activity log.
type SearchParams struct {
	ActorID    string
	ActorEmail string
	Action     string
	EntityType string
	From       time.Time
	To         time.Time
	SortOrder  string // asc or desc, desc by default
	Limit      int
	Offset     int
}
