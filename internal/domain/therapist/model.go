package therapist

import (
	"time"

	"github.com/google/uuid"
)

// Therapist maps to the therapist table: a directory entry for a licensed
// practitioner that platform users can be referred to.
type Therapist struct {
	ID               uuid.UUID `db:"id" json:"id"`
	FullName         string    `db:"full_name" json:"full_name"`
	Credentials      *string   `db:"credentials" json:"credentials,omitempty"`
	Specialties      []string  `db:"specialties" json:"specialties"`
	Email            string    `db:"email" json:"email"`
	Phone            *string   `db:"phone" json:"phone,omitempty"`
	Bio              *string   `db:"bio" json:"bio,omitempty"`
	AcceptingClients bool      `db:"accepting_clients" json:"accepting_clients"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
