package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/staff"
	"github.com/forumhq/forum-api/internal/domain/user"
)

// Tx extends the staff transaction so an approval and its role change
// commit or roll back together.
type Tx interface {
	staff.Tx

	// LockApplication returns nil, nil when the id is unknown
	LockApplication(ctx context.Context, id uuid.UUID) (*Application, error)
	HasPendingApplication(ctx context.Context, applicantID uuid.UUID) (bool, error)
	// CreateApplication returns ErrDuplicatePending if a pending one exists
	CreateApplication(ctx context.Context, a *Application) error
	// DecideApplication writes the decision only while the row is still
	// pending; otherwise it returns database.ErrConcurrentConflict
	DecideApplication(ctx context.Context, a *Application) error
}

// ListFilter for the review queue
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}

// Normalize clamps paging to the allowed window
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Store runs application transactions and serves review views
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	user.Reader
	ListApplications(ctx context.Context, filter ListFilter) ([]*Application, int, error)
	CountApplications(ctx context.Context, status Status) (int, error)
	ListApplicationsByApplicant(ctx context.Context, applicantID uuid.UUID) ([]*Application, error)
}
