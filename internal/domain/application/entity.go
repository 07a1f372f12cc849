package application

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/role"
)

// Status represents application status (matches application_status enum)
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus validates a status filter
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, true
	}
	return "", false
}

// IsTerminal returns true once the application has been decided
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Profile is what the applicant submits
type Profile struct {
	Nickname   string
	Age        int
	Hours      int
	Experience string
	Reason     string
	Contact    string
}

// Application represents a staff application (matches applications table)
type Application struct {
	ID              uuid.UUID      `db:"id"`
	ApplicantID     uuid.UUID      `db:"applicant_id"`
	Nickname        string         `db:"nickname"`
	Age             int            `db:"age"`
	Hours           int            `db:"hours"`
	Experience      sql.NullString `db:"experience"`
	Reason          string         `db:"reason"`
	Contact         string         `db:"contact"`
	Status          Status         `db:"status"`
	RejectionReason sql.NullString `db:"rejection_reason"`
	GrantedRole     sql.NullString `db:"granted_role"`
	ReviewedBy      uuid.NullUUID  `db:"reviewed_by"`
	ReviewedAt      sql.NullTime   `db:"reviewed_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

// IsPending returns true while awaiting review
func (a *Application) IsPending() bool {
	return a.Status == StatusPending
}

// Granted returns the role granted on approval
func (a *Application) Granted() (role.Role, bool) {
	if !a.GrantedRole.Valid {
		return "", false
	}
	return role.Role(a.GrantedRole.String), true
}
