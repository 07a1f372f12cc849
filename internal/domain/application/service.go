package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/audit"
	"github.com/forumhq/forum-api/internal/domain/notification"
	"github.com/forumhq/forum-api/internal/domain/permission"
	"github.com/forumhq/forum-api/internal/domain/role"
	"github.com/forumhq/forum-api/internal/domain/staff"
	"github.com/forumhq/forum-api/internal/domain/user"
	"github.com/forumhq/forum-api/internal/pkg/database"
	"github.com/forumhq/forum-api/internal/pkg/logger"
	"github.com/forumhq/forum-api/internal/pkg/metrics"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

var outcomes = []metrics.Class{
	{Err: permission.ErrPermissionDenied, Outcome: metrics.OutcomeDenied},
	{Err: ErrInvalidTransition, Outcome: metrics.OutcomeInvalid},
	{Err: ErrDuplicatePending, Outcome: metrics.OutcomeInvalid},
	{Err: role.ErrUnknownRole, Outcome: metrics.OutcomeInvalid},
	{Err: ErrApplicationNotFound, Outcome: metrics.OutcomeNotFound},
	{Err: user.ErrActorNotFound, Outcome: metrics.OutcomeNotFound},
	{Err: database.ErrConcurrentConflict, Outcome: metrics.OutcomeConflict},
}

// Service runs the staff application workflow
type Service struct {
	store  Store
	staff  *staff.Service
	notify notification.Dispatcher
}

// NewService creates application service
func NewService(store Store, staffSvc *staff.Service, notify notification.Dispatcher) *Service {
	return &Service{store: store, staff: staffSvc, notify: notify}
}

// Submit files a new pending application; one pending application per applicant
func (s *Service) Submit(ctx context.Context, applicantID uuid.UUID, profile Profile) (*Application, error) {
	var created *Application
	err := s.store.InTx(ctx, func(tx Tx) error {
		applicant, err := user.LockOne(ctx, tx, applicantID)
		if err != nil {
			return err
		}
		subject, err := applicant.Subject()
		if err != nil {
			return err
		}
		if err := permission.CanParticipate(subject).Err(); err != nil {
			return err
		}

		pending, err := tx.HasPendingApplication(ctx, applicantID)
		if err != nil {
			return err
		}
		if pending {
			return ErrDuplicatePending
		}

		now := time.Now().UTC()
		a := &Application{
			ID:          uuid.New(),
			ApplicantID: applicantID,
			Nickname:    strings.TrimSpace(profile.Nickname),
			Age:         profile.Age,
			Hours:       profile.Hours,
			Reason:      strings.TrimSpace(profile.Reason),
			Contact:     strings.TrimSpace(profile.Contact),
			Status:      StatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if exp := strings.TrimSpace(profile.Experience); exp != "" {
			a.Experience = sql.NullString{String: exp, Valid: true}
		}

		if err := tx.CreateApplication(ctx, a); err != nil {
			return err
		}
		if err := tx.AppendAudit(ctx, audit.NewEntry(applicantID, audit.KindApplicationSubmit, audit.TargetApplication, a.ID, a.Nickname)); err != nil {
			return fmt.Errorf("append audit: %w", err)
		}
		created = a
		return nil
	})
	metrics.Observe("application_submit", err, outcomes...)
	if err != nil {
		logFailure(ctx, "submit", applicantID, uuid.Nil, err)
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("application_id", created.ID.String()).
		Str("applicant_id", applicantID.String()).
		Msg("Staff application submitted")
	return created, nil
}

// Approve grants grantedRole to the applicant and closes the application.
// The role change runs in the same transaction: if it is denied the
// application stays pending.
func (s *Service) Approve(ctx context.Context, reviewerID, applicationID uuid.UUID, grantedRole role.Role) (*Application, error) {
	var (
		decided    *Application
		assignment *staff.Assignment
	)
	err := database.RetryOnConflict(ctx, "application_approve", func() error {
		return s.store.InTx(ctx, func(tx Tx) error {
			a, reviewer, err := s.lockForReview(ctx, tx, reviewerID, applicationID)
			if err != nil {
				return err
			}
			if !grantedRole.IsKnown() {
				return fmt.Errorf("%w: %q", role.ErrUnknownRole, grantedRole)
			}
			if err := permission.CanGrant(reviewer, grantedRole).Err(); err != nil {
				return err
			}
			if !a.IsPending() {
				return ErrInvalidTransition
			}

			result, err := staff.AssignRoleTx(ctx, tx, reviewerID, a.ApplicantID, grantedRole, "application "+a.ID.String())
			if err != nil {
				return err
			}

			a.Status = StatusApproved
			a.GrantedRole = sql.NullString{String: grantedRole.String(), Valid: true}
			a.RejectionReason = sql.NullString{}
			stampReview(a, reviewerID)
			if err := tx.DecideApplication(ctx, a); err != nil {
				return err
			}
			if err := tx.AppendAudit(ctx, audit.NewEntry(reviewerID, audit.KindApplicationApprove, audit.TargetApplication, a.ID, grantedRole.String())); err != nil {
				return fmt.Errorf("append audit: %w", err)
			}

			decided, assignment = a, result
			return nil
		})
	})
	metrics.Observe("application_approve", err, outcomes...)
	if err != nil {
		logFailure(ctx, "approve", reviewerID, applicationID, err)
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("application_id", applicationID.String()).
		Str("reviewer_id", reviewerID.String()).
		Str("granted_role", grantedRole.String()).
		Msg("Staff application approved")

	s.notify.Dispatch(notification.ApplicationDecided(decided.ApplicantID, decided.ID, string(decided.Status), grantedRole.String(), ""))
	s.staff.NotifyAssignment(assignment)
	return decided, nil
}

// Reject closes the application without a role change
func (s *Service) Reject(ctx context.Context, reviewerID, applicationID uuid.UUID, reason string) (*Application, error) {
	var decided *Application
	err := database.RetryOnConflict(ctx, "application_reject", func() error {
		return s.store.InTx(ctx, func(tx Tx) error {
			a, _, err := s.lockForReview(ctx, tx, reviewerID, applicationID)
			if err != nil {
				return err
			}
			if !a.IsPending() {
				return ErrInvalidTransition
			}

			a.Status = StatusRejected
			a.RejectionReason = sql.NullString{}
			if r := strings.TrimSpace(reason); r != "" {
				a.RejectionReason = sql.NullString{String: r, Valid: true}
			}
			stampReview(a, reviewerID)
			if err := tx.DecideApplication(ctx, a); err != nil {
				return err
			}
			if err := tx.AppendAudit(ctx, audit.NewEntry(reviewerID, audit.KindApplicationReject, audit.TargetApplication, a.ID, a.RejectionReason.String)); err != nil {
				return fmt.Errorf("append audit: %w", err)
			}

			decided = a
			return nil
		})
	})
	metrics.Observe("application_reject", err, outcomes...)
	if err != nil {
		logFailure(ctx, "reject", reviewerID, applicationID, err)
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("application_id", applicationID.String()).
		Str("reviewer_id", reviewerID.String()).
		Msg("Staff application rejected")

	s.notify.Dispatch(notification.ApplicationDecided(decided.ApplicantID, decided.ID, string(decided.Status), "", decided.RejectionReason.String))
	return decided, nil
}

// List returns the review queue, newest first
func (s *Service) List(ctx context.Context, reviewerID uuid.UUID, filter ListFilter) ([]*Application, int, error) {
	if err := s.authorizeReviewer(ctx, reviewerID); err != nil {
		return nil, 0, err
	}
	return s.store.ListApplications(ctx, filter.Normalize())
}

// CountPending returns the size of the pending queue
func (s *Service) CountPending(ctx context.Context, reviewerID uuid.UUID) (int, error) {
	if err := s.authorizeReviewer(ctx, reviewerID); err != nil {
		return 0, err
	}
	return s.store.CountApplications(ctx, StatusPending)
}

// Mine returns the caller's own applications, newest first
func (s *Service) Mine(ctx context.Context, applicantID uuid.UUID) ([]*Application, error) {
	return s.store.ListApplicationsByApplicant(ctx, applicantID)
}

// lockForReview locks the application before the reviewer row, the same
// order for approve and reject, and checks the reviewer's current rank.
func (s *Service) lockForReview(ctx context.Context, tx Tx, reviewerID, applicationID uuid.UUID) (*Application, permission.Subject, error) {
	a, err := tx.LockApplication(ctx, applicationID)
	if err != nil {
		return nil, permission.Subject{}, err
	}
	if a == nil {
		return nil, permission.Subject{}, ErrApplicationNotFound
	}

	reviewer, err := user.LockOne(ctx, tx, reviewerID)
	if err != nil {
		return nil, permission.Subject{}, err
	}
	subject, err := reviewer.Subject()
	if err != nil {
		return nil, permission.Subject{}, err
	}
	if err := permission.CanReviewApplication(subject).Err(); err != nil {
		return nil, permission.Subject{}, err
	}
	return a, subject, nil
}

func (s *Service) authorizeReviewer(ctx context.Context, reviewerID uuid.UUID) error {
	reviewer, err := user.Fetch(ctx, s.store, reviewerID)
	if err != nil {
		return err
	}
	subject, err := reviewer.Subject()
	if err != nil {
		return err
	}
	return permission.CanReviewApplication(subject).Err()
}

func stampReview(a *Application, reviewerID uuid.UUID) {
	now := time.Now().UTC()
	a.ReviewedBy = uuid.NullUUID{UUID: reviewerID, Valid: true}
	a.ReviewedAt = sql.NullTime{Time: now, Valid: true}
	a.UpdatedAt = now
}

func logFailure(ctx context.Context, op string, actorID, applicationID uuid.UUID, err error) {
	l := logger.FromContext(ctx)
	event := l.Debug()
	if metrics.OutcomeFor(err, outcomes...) == metrics.OutcomeError {
		event = l.Error()
	}
	if errors.Is(err, database.ErrConcurrentConflict) {
		event = l.Warn()
	}
	event.Err(err).
		Str("op", op).
		Str("actor_id", actorID.String()).
		Str("application_id", applicationID.String()).
		Msg("Application operation failed")
}
