// Package postgres is the authoritative store. Every workflow transaction
// locks the rows it decides on with SELECT ... FOR UPDATE, so the permission
// check and the write see the same committed state.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/forumhq/forum-api/internal/domain/application"
	"github.com/forumhq/forum-api/internal/domain/audit"
	"github.com/forumhq/forum-api/internal/domain/post"
	"github.com/forumhq/forum-api/internal/domain/role"
	"github.com/forumhq/forum-api/internal/domain/staff"
	"github.com/forumhq/forum-api/internal/domain/user"
	"github.com/forumhq/forum-api/internal/pkg/database"
)

const (
	actorColumns       = `id, username, role, is_banned, banned_reason, created_at, updated_at`
	postColumns        = `id, author_id, category, title, content, status, reason, is_pinned, is_hot, moderated_by, created_at, updated_at`
	applicationColumns = `id, applicant_id, nickname, age, hours, experience, reason, contact, status,
		rejection_reason, granted_role, reviewed_by, reviewed_at, created_at, updated_at`
	auditColumns = `id, actor_id, kind, target_type, target_id, detail, created_at`
)

// Store reads and writes forum state in Postgres
type Store struct {
	db *sqlx.DB
}

// New creates a Postgres store
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Staff returns the store as seen by the staff workflow
func (s *Store) Staff() staff.Store { return staffStore{s} }

// Posts returns the store as seen by the post workflow
func (s *Store) Posts() post.Store { return postStore{s} }

// Applications returns the store as seen by the application workflow
func (s *Store) Applications() application.Store { return applicationStore{s} }

// Audit returns the read side of the audit trail
func (s *Store) Audit() audit.Repository { return s }

func (s *Store) inTx(ctx context.Context, fn func(t *txn) error) error {
	return database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(&txn{tx: tx})
	})
}

// CreateActor seeds an account; registration itself lives outside this service
func (s *Store) CreateActor(ctx context.Context, a *user.Actor) error {
	query := `
		INSERT INTO users (id, username, role, is_banned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID,
		a.Username,
		a.Role,
		a.IsBanned,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

// GetActor returns nil, nil when the id is unknown
func (s *Store) GetActor(ctx context.Context, id uuid.UUID) (*user.Actor, error) {
	query := `SELECT ` + actorColumns + ` FROM users WHERE id = $1`
	var a user.Actor
	err := s.db.GetContext(ctx, &a, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// ListActorsByRoles returns actors holding any of roles, by username
func (s *Store) ListActorsByRoles(ctx context.Context, roles []role.Role) ([]*user.Actor, error) {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}

	query := `SELECT ` + actorColumns + ` FROM users WHERE role = ANY($1) ORDER BY lower(username)`
	actors := []*user.Actor{}
	err := s.db.SelectContext(ctx, &actors, query, pq.StringArray(names))
	return actors, err
}

// ListAudit returns matching entries newest first and the total match count
func (s *Store) ListAudit(ctx context.Context, filter audit.Filter) ([]*audit.Entry, int, error) {
	filter = filter.Normalize()

	var (
		where []string
		args  []interface{}
	)
	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		where = append(where, `kind = $`+strconv.Itoa(len(args)))
	}
	if filter.ActorID != nil {
		args = append(args, *filter.ActorID)
		where = append(where, `actor_id = $`+strconv.Itoa(len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = ` WHERE ` + strings.Join(where, ` AND `)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM audit_entries`+cond, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit: %w", err)
	}

	query := `SELECT ` + auditColumns + ` FROM audit_entries` + cond +
		fmt.Sprintf(` ORDER BY id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	entries := []*audit.Entry{}
	if err := s.db.SelectContext(ctx, &entries, query, append(args, filter.Limit, filter.Offset)...); err != nil {
		return nil, 0, fmt.Errorf("list audit: %w", err)
	}
	return entries, total, nil
}

type staffStore struct{ *Store }

func (s staffStore) InTx(ctx context.Context, fn func(tx staff.Tx) error) error {
	return s.inTx(ctx, func(t *txn) error { return fn(t) })
}

type postStore struct{ *Store }

func (s postStore) InTx(ctx context.Context, fn func(tx post.Tx) error) error {
	return s.inTx(ctx, func(t *txn) error { return fn(t) })
}

// GetPost returns nil, nil when the id is unknown
func (s postStore) GetPost(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	var p post.Post
	err := s.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

type applicationStore struct{ *Store }

func (s applicationStore) InTx(ctx context.Context, fn func(tx application.Tx) error) error {
	return s.inTx(ctx, func(t *txn) error { return fn(t) })
}

func (s applicationStore) ListApplications(ctx context.Context, filter application.ListFilter) ([]*application.Application, int, error) {
	filter = filter.Normalize()

	cond := ""
	var args []interface{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		cond = ` WHERE status = $1`
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM applications`+cond, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	query := `SELECT ` + applicationColumns + ` FROM applications` + cond +
		fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	apps := []*application.Application{}
	if err := s.db.SelectContext(ctx, &apps, query, append(args, filter.Limit, filter.Offset)...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	return apps, total, nil
}

func (s applicationStore) CountApplications(ctx context.Context, status application.Status) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM applications WHERE status = $1`, status)
	return n, err
}

func (s applicationStore) ListApplicationsByApplicant(ctx context.Context, applicantID uuid.UUID) ([]*application.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE applicant_id = $1 ORDER BY created_at DESC, id`
	apps := []*application.Application{}
	err := s.db.SelectContext(ctx, &apps, query, applicantID)
	return apps, err
}
