package support

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Ticket maps to the support_ticket table: a help request submitted by a
// platform user and worked by the support team.
type Ticket struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	SubmitterEmail string     `db:"submitter_email" json:"submitter_email"`
	Subject        string     `db:"subject" json:"subject"`
	Body           string     `db:"body" json:"body"`
	Status         string     `db:"status" json:"status"`
	Priority       string     `db:"priority" json:"priority"`
	AssigneeID     *uuid.UUID `db:"assignee_id" json:"assignee_id,omitempty"`
	ResolvedAt     *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// CrisisResource maps to the crisis_resource table: a hotline or service
// surfaced to users in acute distress, ordered by sort_order per region.
type CrisisResource struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Region        string    `db:"region" json:"region"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	URL           *string   `db:"url" json:"url,omitempty"`
	Available24x7 bool      `db:"available_24x7" json:"available_24x7"`
	SortOrder     int       `db:"sort_order" json:"sort_order"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// FAQ maps to the faq table.
type FAQ struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Question    string    `db:"question" json:"question"`
	Answer      string    `db:"answer" json:"answer"`
	Category    string    `db:"category" json:"category"`
	SortOrder   int       `db:"sort_order" json:"sort_order"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
