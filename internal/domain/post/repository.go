package post

import (
	"context"

	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/audit"
	"github.com/forumhq/forum-api/internal/domain/user"
)

// Tx is the transactional view used by post operations.
// LockPost returns nil, nil when the id is unknown.
type Tx interface {
	user.Locker
	audit.Appender
	LockPost(ctx context.Context, id uuid.UUID) (*Post, error)
	CreatePost(ctx context.Context, p *Post) error
	UpdatePost(ctx context.Context, p *Post) error
}

// Store runs post transactions and serves reads.
// GetPost returns nil, nil when the id is unknown.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
}
