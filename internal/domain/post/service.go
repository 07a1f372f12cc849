package post

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/audit"
	"github.com/forumhq/forum-api/internal/domain/notification"
	"github.com/forumhq/forum-api/internal/domain/permission"
	"github.com/forumhq/forum-api/internal/domain/user"
	"github.com/forumhq/forum-api/internal/pkg/database"
	"github.com/forumhq/forum-api/internal/pkg/logger"
	"github.com/forumhq/forum-api/internal/pkg/metrics"
)

var outcomes = []metrics.Class{
	{Err: permission.ErrPermissionDenied, Outcome: metrics.OutcomeDenied},
	{Err: ErrInvalidTransition, Outcome: metrics.OutcomeInvalid},
	{Err: ErrPostNotFound, Outcome: metrics.OutcomeNotFound},
	{Err: user.ErrActorNotFound, Outcome: metrics.OutcomeNotFound},
	{Err: database.ErrConcurrentConflict, Outcome: metrics.OutcomeConflict},
}

// CreateInput carries a new post's content
type CreateInput struct {
	Category Category
	Title    string
	Content  string
}

// Service runs the post moderation workflow
type Service struct {
	store  Store
	notify notification.Dispatcher
}

// NewService creates post service
func NewService(store Store, notify notification.Dispatcher) *Service {
	return &Service{store: store, notify: notify}
}

// Create opens a new post for any non-banned actor
func (s *Service) Create(ctx context.Context, authorID uuid.UUID, in CreateInput) (*Post, error) {
	if !in.Category.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, in.Category)
	}

	var created *Post
	err := s.store.InTx(ctx, func(tx Tx) error {
		author, err := user.LockOne(ctx, tx, authorID)
		if err != nil {
			return err
		}
		subject, err := author.Subject()
		if err != nil {
			return err
		}
		if err := permission.CanParticipate(subject).Err(); err != nil {
			return err
		}

		now := time.Now().UTC()
		p := &Post{
			ID:        uuid.New(),
			AuthorID:  authorID,
			Category:  in.Category,
			Title:     strings.TrimSpace(in.Title),
			Content:   strings.TrimSpace(in.Content),
			Status:    StatusOpen,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.CreatePost(ctx, p); err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		if err := tx.AppendAudit(ctx, audit.NewEntry(authorID, audit.KindPostCreate, audit.TargetPost, p.ID, string(p.Category))); err != nil {
			return fmt.Errorf("append audit: %w", err)
		}
		created = p
		return nil
	})
	metrics.Observe("post_create", err, outcomes...)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("post_id", created.ID.String()).
		Str("author_id", authorID.String()).
		Str("category", string(created.Category)).
		Msg("Post created")
	return created, nil
}

// Get returns a post by id
func (s *Service) Get(ctx context.Context, postID uuid.UUID) (*Post, error) {
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPostNotFound
	}
	return p, nil
}

// Approve moves an open post to approved
func (s *Service) Approve(ctx context.Context, actorID, postID uuid.UUID) (*Post, error) {
	return s.Transition(ctx, actorID, postID, ActionApprove, "")
}

// Reject moves an open post to rejected; reason is shown to the author
func (s *Service) Reject(ctx context.Context, actorID, postID uuid.UUID, reason string) (*Post, error) {
	return s.Transition(ctx, actorID, postID, ActionReject, reason)
}

// Resolve moves an open post to resolved
func (s *Service) Resolve(ctx context.Context, actorID, postID uuid.UUID) (*Post, error) {
	return s.Transition(ctx, actorID, postID, ActionResolve, "")
}

// Reopen returns a moderated post to open
func (s *Service) Reopen(ctx context.Context, actorID, postID uuid.UUID) (*Post, error) {
	return s.Transition(ctx, actorID, postID, ActionReopen, "")
}

// Transition applies action under the post and actor row locks.
// Only rejections keep a reason.
func (s *Service) Transition(ctx context.Context, actorID, postID uuid.UUID, action Action, reason string) (*Post, error) {
	var (
		updated *Post
		from    Status
	)
	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := s.authorizeModerator(ctx, tx, actorID); err != nil {
			return err
		}

		p, err := lockPost(ctx, tx, postID)
		if err != nil {
			return err
		}
		next, err := Next(p.Status, action)
		if err != nil {
			return err
		}

		from = p.Status
		p.Status = next
		p.Reason = sql.NullString{}
		if action == ActionReject {
			if r := strings.TrimSpace(reason); r != "" {
				p.Reason = sql.NullString{String: r, Valid: true}
			}
		}
		p.ModeratedBy = uuid.NullUUID{UUID: actorID, Valid: true}
		p.UpdatedAt = time.Now().UTC()

		if err := tx.UpdatePost(ctx, p); err != nil {
			return fmt.Errorf("update post: %w", err)
		}

		detail := fmt.Sprintf("%s -> %s", from, next)
		if p.Reason.Valid {
			detail += ": " + p.Reason.String
		}
		if err := tx.AppendAudit(ctx, audit.NewEntry(actorID, audit.KindPostStatusChange, audit.TargetPost, postID, detail)); err != nil {
			return fmt.Errorf("append audit: %w", err)
		}
		updated = p
		return nil
	})
	metrics.Observe("post_"+string(action), err, outcomes...)
	if err != nil {
		logFailure(ctx, string(action), actorID, postID, err)
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("post_id", postID.String()).
		Str("actor_id", actorID.String()).
		Str("from", string(from)).
		Str("to", string(updated.Status)).
		Msg("Post status changed")

	s.notify.Dispatch(notification.PostStatusChanged(updated.AuthorID, updated.ID, updated.Title, string(updated.Status), updated.Reason.String))
	return updated, nil
}

// TogglePin flips the pinned flag
func (s *Service) TogglePin(ctx context.Context, actorID, postID uuid.UUID) (*Post, error) {
	return s.toggle(ctx, actorID, postID, audit.KindPostPin, func(p *Post) bool {
		p.IsPinned = !p.IsPinned
		return p.IsPinned
	})
}

// ToggleHot flips the hot flag
func (s *Service) ToggleHot(ctx context.Context, actorID, postID uuid.UUID) (*Post, error) {
	return s.toggle(ctx, actorID, postID, audit.KindPostHot, func(p *Post) bool {
		p.IsHot = !p.IsHot
		return p.IsHot
	})
}

func (s *Service) toggle(ctx context.Context, actorID, postID uuid.UUID, kind audit.Kind, flip func(*Post) bool) (*Post, error) {
	var updated *Post
	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := s.authorizeModerator(ctx, tx, actorID); err != nil {
			return err
		}
		p, err := lockPost(ctx, tx, postID)
		if err != nil {
			return err
		}

		on := flip(p)
		p.UpdatedAt = time.Now().UTC()
		if err := tx.UpdatePost(ctx, p); err != nil {
			return fmt.Errorf("update post: %w", err)
		}
		if err := tx.AppendAudit(ctx, audit.NewEntry(actorID, kind, audit.TargetPost, postID, fmt.Sprintf("%t", on))); err != nil {
			return fmt.Errorf("append audit: %w", err)
		}
		updated = p
		return nil
	})
	metrics.Observe(string(kind), err, outcomes...)
	if err != nil {
		logFailure(ctx, string(kind), actorID, postID, err)
		return nil, err
	}
	return updated, nil
}

func (s *Service) authorizeModerator(ctx context.Context, tx Tx, actorID uuid.UUID) error {
	actor, err := user.LockOne(ctx, tx, actorID)
	if err != nil {
		return err
	}
	subject, err := actor.Subject()
	if err != nil {
		return err
	}
	return permission.CanModeratePost(subject).Err()
}

func lockPost(ctx context.Context, tx Tx, postID uuid.UUID) (*Post, error) {
	p, err := tx.LockPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPostNotFound
	}
	return p, nil
}

func logFailure(ctx context.Context, op string, actorID, postID uuid.UUID, err error) {
	l := logger.FromContext(ctx)
	event := l.Debug()
	if metrics.OutcomeFor(err, outcomes...) == metrics.OutcomeError {
		event = l.Error()
	}
	event.Err(err).
		Str("op", op).
		Str("actor_id", actorID.String()).
		Str("post_id", postID.String()).
		Msg("Post operation failed")
}
