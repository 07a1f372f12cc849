package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/permission"
	"github.com/forumhq/forum-api/internal/domain/user"
)

// Service exposes the activity view
type Service struct {
	repo   Repository
	actors user.Reader
}

// NewService creates audit service
func NewService(repo Repository, actors user.Reader) *Service {
	return &Service{repo: repo, actors: actors}
}

// List returns entries matching filter for a viewer of rank moderator or above
func (s *Service) List(ctx context.Context, viewerID uuid.UUID, filter Filter) ([]*Entry, int, error) {
	viewer, err := user.Fetch(ctx, s.actors, viewerID)
	if err != nil {
		return nil, 0, err
	}
	subject, err := viewer.Subject()
	if err != nil {
		return nil, 0, err
	}
	if err := permission.CanViewAudit(subject).Err(); err != nil {
		return nil, 0, err
	}

	return s.repo.ListAudit(ctx, filter.Normalize())
}
