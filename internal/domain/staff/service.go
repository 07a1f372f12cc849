package staff

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/audit"
	"github.com/forumhq/forum-api/internal/domain/notification"
	"github.com/forumhq/forum-api/internal/domain/permission"
	"github.com/forumhq/forum-api/internal/domain/role"
	"github.com/forumhq/forum-api/internal/domain/user"
	"github.com/forumhq/forum-api/internal/pkg/database"
	"github.com/forumhq/forum-api/internal/pkg/logger"
	"github.com/forumhq/forum-api/internal/pkg/metrics"
)

var outcomes = []metrics.Class{
	{Err: permission.ErrPermissionDenied, Outcome: metrics.OutcomeDenied},
	{Err: user.ErrActorNotFound, Outcome: metrics.OutcomeNotFound},
	{Err: role.ErrUnknownRole, Outcome: metrics.OutcomeInvalid},
	{Err: ErrAlreadyBanned, Outcome: metrics.OutcomeInvalid},
	{Err: ErrNotBanned, Outcome: metrics.OutcomeInvalid},
	{Err: database.ErrConcurrentConflict, Outcome: metrics.OutcomeConflict},
}

// Assignment is a committed role change
type Assignment struct {
	Target  *user.Actor
	OldRole role.Role
	NewRole role.Role
}

// Changed reports whether the role actually moved
func (a *Assignment) Changed() bool {
	return a.OldRole != a.NewRole
}

// Service is the single choke point for role and ban changes
type Service struct {
	store  Store
	notify notification.Dispatcher
}

// NewService creates staff service
func NewService(store Store, notify notification.Dispatcher) *Service {
	return &Service{store: store, notify: notify}
}

// AssignRole sets target's role to newRole on behalf of actor.
// A lost race is retried once against fresh rows.
func (s *Service) AssignRole(ctx context.Context, actorID, targetID uuid.UUID, newRole role.Role) (*Assignment, error) {
	var result *Assignment
	err := database.RetryOnConflict(ctx, "assign_role", func() error {
		return s.store.InTx(ctx, func(tx Tx) error {
			a, err := AssignRoleTx(ctx, tx, actorID, targetID, newRole, "")
			result = a
			return err
		})
	})
	metrics.Observe("assign_role", err, outcomes...)
	if err != nil {
		logDenial(ctx, "assign_role", actorID, targetID, err)
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("actor_id", actorID.String()).
		Str("target_id", targetID.String()).
		Str("old_role", result.OldRole.String()).
		Str("new_role", result.NewRole.String()).
		Msg("Role assigned")

	s.NotifyAssignment(result)
	return result, nil
}

// Demote resets target to the base role, with the same checks as AssignRole
func (s *Service) Demote(ctx context.Context, actorID, targetID uuid.UUID) (*Assignment, error) {
	return s.AssignRole(ctx, actorID, targetID, role.User)
}

// NotifyAssignment emits the role notification for a committed assignment.
// Callers running AssignRoleTx inside their own transaction call it after commit.
func (s *Service) NotifyAssignment(a *Assignment) {
	if a == nil || !a.Changed() {
		return
	}
	s.notify.Dispatch(notification.RoleChanged(a.Target.ID, a.OldRole.String(), a.NewRole.String()))
}

// AssignRoleTx performs a role assignment inside tx, which the caller commits.
// Actor and target are locked and re-read so the decision and the write see
// the same rows. detail is appended to the audit text.
func AssignRoleTx(ctx context.Context, tx Tx, actorID, targetID uuid.UUID, newRole role.Role, detail string) (*Assignment, error) {
	if actorID == targetID {
		return nil, permission.Denied(permission.ReasonSelfTarget)
	}
	if !newRole.IsKnown() {
		return nil, fmt.Errorf("%w: %q", role.ErrUnknownRole, newRole)
	}

	actor, target, err := user.LockPair(ctx, tx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	actorSubject, err := actor.Subject()
	if err != nil {
		return nil, err
	}
	targetSubject, err := target.Subject()
	if err != nil {
		return nil, err
	}

	if err := permission.CanAssignRole(actorSubject, targetSubject, newRole).Err(); err != nil {
		return nil, err
	}

	oldRole := target.Role
	if err := tx.SetRole(ctx, targetID, newRole); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	target.Role = newRole

	text := fmt.Sprintf("%s -> %s", oldRole, newRole)
	if detail != "" {
		text += " (" + detail + ")"
	}
	if err := tx.AppendAudit(ctx, audit.NewEntry(actorID, audit.KindRoleChange, audit.TargetActor, targetID, text)); err != nil {
		return nil, fmt.Errorf("append audit: %w", err)
	}

	return &Assignment{Target: target, OldRole: oldRole, NewRole: newRole}, nil
}

// Bootstrap makes target the top role without an acting user. Nobody
// outranks management, so this operator path is the only way to seat one.
func Bootstrap(ctx context.Context, store Store, targetID uuid.UUID) (*Assignment, error) {
	top := role.Top()
	var result *Assignment
	err := store.InTx(ctx, func(tx Tx) error {
		target, err := user.LockOne(ctx, tx, targetID)
		if err != nil {
			return err
		}
		oldRole := target.Role
		if err := tx.SetRole(ctx, targetID, top); err != nil {
			return fmt.Errorf("set role: %w", err)
		}
		target.Role = top

		text := fmt.Sprintf("%s -> %s (bootstrap)", oldRole, top)
		if err := tx.AppendAudit(ctx, audit.NewEntry(uuid.Nil, audit.KindRoleBootstrap, audit.TargetActor, targetID, text)); err != nil {
			return fmt.Errorf("append audit: %w", err)
		}
		result = &Assignment{Target: target, OldRole: oldRole, NewRole: top}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Warn().
		Str("target_id", targetID.String()).
		Str("old_role", result.OldRole.String()).
		Msg("Management role bootstrapped")
	return result, nil
}

// GrantableRoles lists what actor may hand out right now, for populating UI
// choices. Writes re-check independently.
func (s *Service) GrantableRoles(ctx context.Context, actorID uuid.UUID) ([]role.Role, error) {
	actor, err := user.Fetch(ctx, s.store, actorID)
	if err != nil {
		return nil, err
	}
	subject, err := actor.Subject()
	if err != nil {
		return nil, err
	}
	if subject.Banned {
		return []role.Role{}, nil
	}
	return permission.GrantableRoles(subject.Rank()), nil
}

// ListStaff returns every helper and above, highest rank first
func (s *Service) ListStaff(ctx context.Context) ([]*user.Actor, error) {
	staffRoles := make([]role.Role, 0, len(role.All()))
	for _, r := range role.All() {
		if r.IsStaff() {
			staffRoles = append(staffRoles, r)
		}
	}

	actors, err := s.store.ListActorsByRoles(ctx, staffRoles)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(actors, func(i, j int) bool {
		if actors[i].Role.Rank() != actors[j].Role.Rank() {
			return actors[i].Role.Rank() > actors[j].Role.Rank()
		}
		return strings.ToLower(actors[i].Username) < strings.ToLower(actors[j].Username)
	})
	return actors, nil
}

// Ban blocks target from every workflow operation
func (s *Service) Ban(ctx context.Context, actorID, targetID uuid.UUID, reason string) (*user.Actor, error) {
	return s.setBanned(ctx, actorID, targetID, true, strings.TrimSpace(reason))
}

// Unban lifts a ban
func (s *Service) Unban(ctx context.Context, actorID, targetID uuid.UUID) (*user.Actor, error) {
	return s.setBanned(ctx, actorID, targetID, false, "")
}

func (s *Service) setBanned(ctx context.Context, actorID, targetID uuid.UUID, banned bool, reason string) (*user.Actor, error) {
	op, kind := "unban", audit.KindUserUnban
	if banned {
		op, kind = "ban", audit.KindUserBan
	}

	var target *user.Actor
	err := database.RetryOnConflict(ctx, op, func() error {
		return s.store.InTx(ctx, func(tx Tx) error {
			if actorID == targetID {
				return permission.Denied(permission.ReasonSelfTarget)
			}
			actor, t, err := user.LockPair(ctx, tx, actorID, targetID)
			if err != nil {
				return err
			}
			actorSubject, err := actor.Subject()
			if err != nil {
				return err
			}
			targetSubject, err := t.Subject()
			if err != nil {
				return err
			}
			if err := permission.CanBan(actorSubject, targetSubject).Err(); err != nil {
				return err
			}

			switch {
			case banned && t.IsBanned:
				return ErrAlreadyBanned
			case !banned && !t.IsBanned:
				return ErrNotBanned
			}

			if err := tx.SetBanned(ctx, targetID, banned, reason); err != nil {
				return fmt.Errorf("set banned: %w", err)
			}
			t.IsBanned = banned
			t.BannedReason = sql.NullString{String: reason, Valid: banned && reason != ""}

			if err := tx.AppendAudit(ctx, audit.NewEntry(actorID, kind, audit.TargetActor, targetID, reason)); err != nil {
				return fmt.Errorf("append audit: %w", err)
			}
			target = t
			return nil
		})
	})
	metrics.Observe(op, err, outcomes...)
	if err != nil {
		logDenial(ctx, op, actorID, targetID, err)
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("actor_id", actorID.String()).
		Str("target_id", targetID.String()).
		Bool("banned", banned).
		Msg("Ban state changed")

	s.notify.Dispatch(notification.BanChanged(targetID, banned, reason))
	return target, nil
}

func logDenial(ctx context.Context, op string, actorID, targetID uuid.UUID, err error) {
	l := logger.FromContext(ctx)
	event := l.Debug()
	if metrics.OutcomeFor(err, outcomes...) == metrics.OutcomeError {
		event = l.Error()
	}
	event.Err(err).
		Str("op", op).
		Str("actor_id", actorID.String()).
		Str("target_id", targetID.String()).
		Msg("Staff operation failed")
}
