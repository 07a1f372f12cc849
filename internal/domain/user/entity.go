package user

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/permission"
	"github.com/forumhq/forum-api/internal/domain/role"
)

// Actor represents a forum account (matches users table)
type Actor struct {
	ID           uuid.UUID      `db:"id"`
	Username     string         `db:"username"`
	Role         role.Role      `db:"role"`
	IsBanned     bool           `db:"is_banned"`
	BannedReason sql.NullString `db:"banned_reason"`

	// Timestamps
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsActive returns true if actor is not banned
func (a *Actor) IsActive() bool {
	return !a.IsBanned
}

// IsStaff returns true for helpers and above
func (a *Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

// Subject converts the stored actor into a permission subject.
// A role outside the catalog is corrupt data and fails hard.
func (a *Actor) Subject() (permission.Subject, error) {
	if !a.Role.IsKnown() {
		return permission.Subject{}, fmt.Errorf("actor %s: %w: %q", a.ID, role.ErrUnknownRole, a.Role)
	}
	return permission.Subject{ID: a.ID, Role: a.Role, Banned: a.IsBanned}, nil
}
