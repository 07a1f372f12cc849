package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/role"
)

// Locker loads actors inside a transaction and holds their rows until commit.
// Rows are locked in ascending id order so concurrent callers never deadlock
// on each other. Ids that do not exist are absent from the result.
type Locker interface {
	LockActors(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*Actor, error)
}

// Writer mutates actors inside a transaction
type Writer interface {
	SetRole(ctx context.Context, id uuid.UUID, r role.Role) error
	SetBanned(ctx context.Context, id uuid.UUID, banned bool, reason string) error
}

// Reader is the non-transactional read side of the account store.
// GetActor returns nil, nil when the id is unknown.
type Reader interface {
	GetActor(ctx context.Context, id uuid.UUID) (*Actor, error)
	ListActorsByRoles(ctx context.Context, roles []role.Role) ([]*Actor, error)
}

// LockOne locks a single actor, returning ErrActorNotFound when absent
func LockOne(ctx context.Context, l Locker, id uuid.UUID) (*Actor, error) {
	actors, err := l.LockActors(ctx, id)
	if err != nil {
		return nil, err
	}
	a, ok := actors[id]
	if !ok {
		return nil, ErrActorNotFound
	}
	return a, nil
}

// LockPair locks actor and target together
func LockPair(ctx context.Context, l Locker, actorID, targetID uuid.UUID) (*Actor, *Actor, error) {
	actors, err := l.LockActors(ctx, actorID, targetID)
	if err != nil {
		return nil, nil, err
	}
	actor, ok := actors[actorID]
	if !ok {
		return nil, nil, ErrActorNotFound
	}
	target, ok := actors[targetID]
	if !ok {
		return nil, nil, ErrActorNotFound
	}
	return actor, target, nil
}

// Fetch reads an actor fresh from the store, returning ErrActorNotFound when absent
func Fetch(ctx context.Context, r Reader, id uuid.UUID) (*Actor, error) {
	a, err := r.GetActor(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrActorNotFound
	}
	return a, nil
}
