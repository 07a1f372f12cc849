package staff

import (
	"context"

	"github.com/forumhq/forum-api/internal/domain/audit"
	"github.com/forumhq/forum-api/internal/domain/user"
)

// Tx is the transactional view of the account store used by role changes.
// Every check and write of one operation runs against the same Tx.
type Tx interface {
	user.Locker
	user.Writer
	audit.Appender
}

// Store runs staff transactions and serves roster reads
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	user.Reader
}
