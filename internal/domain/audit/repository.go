package audit

import (
	"context"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Appender writes entries inside the caller's transaction, so an entry
// exists exactly when the change it records was committed
type Appender interface {
	AppendAudit(ctx context.Context, e *Entry) error
}

// Filter for listing audit entries
type Filter struct {
	Kind    *Kind
	ActorID *uuid.UUID
	Limit   int
	Offset  int
}

// Normalize clamps paging to the allowed window
func (f Filter) Normalize() Filter {
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

// Repository reads the trail, newest first
type Repository interface {
	ListAudit(ctx context.Context, filter Filter) ([]*Entry, int, error)
}
