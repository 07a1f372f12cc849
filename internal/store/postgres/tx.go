package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/forumhq/forum-api/internal/domain/application"
	"github.com/forumhq/forum-api/internal/domain/audit"
	"github.com/forumhq/forum-api/internal/domain/post"
	"github.com/forumhq/forum-api/internal/domain/role"
	"github.com/forumhq/forum-api/internal/domain/user"
	"github.com/forumhq/forum-api/internal/pkg/database"
)

// txn implements every workflow Tx on one sqlx transaction
type txn struct {
	tx *sqlx.Tx
}

// LockActors locks rows in ascending id order
func (t *txn) LockActors(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*user.Actor, error) {
	query := `SELECT ` + actorColumns + ` FROM users WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`
	var actors []*user.Actor
	if err := t.tx.SelectContext(ctx, &actors, query, pq.StringArray(sortedIDs(ids))); err != nil {
		return nil, fmt.Errorf("lock actors: %w", err)
	}

	out := make(map[uuid.UUID]*user.Actor, len(actors))
	for _, a := range actors {
		out[a.ID] = a
	}
	return out, nil
}

func (t *txn) SetRole(ctx context.Context, id uuid.UUID, r role.Role) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, r)
	if err != nil {
		return err
	}
	return requireRow(res, user.ErrActorNotFound)
}

func (t *txn) SetBanned(ctx context.Context, id uuid.UUID, banned bool, reason string) error {
	var r sql.NullString
	if banned && reason != "" {
		r = sql.NullString{String: reason, Valid: true}
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE users SET is_banned = $2, banned_reason = $3, updated_at = NOW() WHERE id = $1`,
		id, banned, r,
	)
	if err != nil {
		return err
	}
	return requireRow(res, user.ErrActorNotFound)
}

func (t *txn) AppendAudit(ctx context.Context, e *audit.Entry) error {
	query := `
		INSERT INTO audit_entries (id, actor_id, kind, target_type, target_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := t.tx.ExecContext(ctx, query,
		e.ID,
		e.ActorID,
		e.Kind,
		e.TargetType,
		e.TargetID,
		e.Detail,
		e.CreatedAt,
	)
	return err
}

// LockPost returns nil, nil when the id is unknown
func (t *txn) LockPost(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	var p post.Post
	err := t.tx.GetContext(ctx, &p, `SELECT `+postColumns+` FROM posts WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (t *txn) CreatePost(ctx context.Context, p *post.Post) error {
	query := `
		INSERT INTO posts (id, author_id, category, title, content, status, is_pinned, is_hot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := t.tx.ExecContext(ctx, query,
		p.ID,
		p.AuthorID,
		p.Category,
		p.Title,
		p.Content,
		p.Status,
		p.IsPinned,
		p.IsHot,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (t *txn) UpdatePost(ctx context.Context, p *post.Post) error {
	query := `
		UPDATE posts SET
			status = $2, reason = $3, is_pinned = $4, is_hot = $5, moderated_by = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := t.tx.ExecContext(ctx, query,
		p.ID,
		p.Status,
		p.Reason,
		p.IsPinned,
		p.IsHot,
		p.ModeratedBy,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res, post.ErrPostNotFound)
}

// LockApplication returns nil, nil when the id is unknown
func (t *txn) LockApplication(ctx context.Context, id uuid.UUID) (*application.Application, error) {
	var a application.Application
	err := t.tx.GetContext(ctx, &a, `SELECT `+applicationColumns+` FROM applications WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (t *txn) HasPendingApplication(ctx context.Context, applicantID uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE applicant_id = $1 AND status = 'pending')`,
		applicantID,
	)
	return exists, err
}

func (t *txn) CreateApplication(ctx context.Context, a *application.Application) error {
	query := `
		INSERT INTO applications (id, applicant_id, nickname, age, hours, experience, reason, contact, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := t.tx.ExecContext(ctx, query,
		a.ID,
		a.ApplicantID,
		a.Nickname,
		a.Age,
		a.Hours,
		a.Experience,
		a.Reason,
		a.Contact,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if database.IsUniqueViolation(err, "applications_one_pending") {
		return application.ErrDuplicatePending
	}
	return err
}

// DecideApplication only touches a row that is still pending
func (t *txn) DecideApplication(ctx context.Context, a *application.Application) error {
	query := `
		UPDATE applications SET
			status = $2, rejection_reason = $3, granted_role = $4, reviewed_by = $5, reviewed_at = $6, updated_at = $7
		WHERE id = $1 AND status = 'pending'
	`
	res, err := t.tx.ExecContext(ctx, query,
		a.ID,
		a.Status,
		a.RejectionReason,
		a.GrantedRole,
		a.ReviewedBy,
		a.ReviewedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("application %s is no longer pending: %w", a.ID, database.ErrConcurrentConflict)
	}
	return nil
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func sortedIDs(ids []uuid.UUID) []string {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id.String())
	}
	sort.Strings(out)
	return out
}
