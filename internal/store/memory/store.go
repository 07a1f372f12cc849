// Package memory is a mutex-guarded store for tests and local development.
// A transaction holds the store lock from start to commit, so every
// transaction sees a consistent snapshot and writes never interleave.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/application"
	"github.com/forumhq/forum-api/internal/domain/audit"
	"github.com/forumhq/forum-api/internal/domain/post"
	"github.com/forumhq/forum-api/internal/domain/role"
	"github.com/forumhq/forum-api/internal/domain/staff"
	"github.com/forumhq/forum-api/internal/domain/user"
	"github.com/forumhq/forum-api/internal/pkg/database"
)

// Store keeps actors, posts, applications and the audit trail in memory
type Store struct {
	mu     sync.Mutex
	actors map[uuid.UUID]user.Actor
	posts  map[uuid.UUID]post.Post
	apps   map[uuid.UUID]application.Application
	trail  []audit.Entry
}

// New creates an empty store
func New() *Store {
	return &Store{
		actors: make(map[uuid.UUID]user.Actor),
		posts:  make(map[uuid.UUID]post.Post),
		apps:   make(map[uuid.UUID]application.Application),
	}
}

// PutActor inserts or replaces an account, outside any workflow
func (s *Store) PutActor(a user.Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	s.actors[a.ID] = a
}

// CreateActor seeds an account, failing on a taken id or username
func (s *Store) CreateActor(ctx context.Context, a *user.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.actors {
		if existing.ID == a.ID || strings.EqualFold(existing.Username, a.Username) {
			return fmt.Errorf("actor %s: already exists", a.Username)
		}
	}
	s.actors[a.ID] = *a
	return nil
}

// Staff returns the store as seen by the staff workflow
func (s *Store) Staff() staff.Store { return staffStore{s} }

// Posts returns the store as seen by the post workflow
func (s *Store) Posts() post.Store { return postStore{s} }

// Applications returns the store as seen by the application workflow
func (s *Store) Applications() application.Store { return applicationStore{s} }

// Audit returns the read side of the audit trail
func (s *Store) Audit() audit.Repository { return s }

// inTx runs fn under the store lock and restores the previous state if fn fails
func (s *Store) inTx(ctx context.Context, fn func(t *txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&txn{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	actors   map[uuid.UUID]user.Actor
	posts    map[uuid.UUID]post.Post
	apps     map[uuid.UUID]application.Application
	trailLen int
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		actors:   make(map[uuid.UUID]user.Actor, len(s.actors)),
		posts:    make(map[uuid.UUID]post.Post, len(s.posts)),
		apps:     make(map[uuid.UUID]application.Application, len(s.apps)),
		trailLen: len(s.trail),
	}
	for k, v := range s.actors {
		snap.actors[k] = v
	}
	for k, v := range s.posts {
		snap.posts[k] = v
	}
	for k, v := range s.apps {
		snap.apps[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.actors = snap.actors
	s.posts = snap.posts
	s.apps = snap.apps
	s.trail = s.trail[:snap.trailLen]
}

// GetActor returns nil, nil when the id is unknown
func (s *Store) GetActor(ctx context.Context, id uuid.UUID) (*user.Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.actors[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// ListActorsByRoles returns actors holding any of roles, by username
func (s *Store) ListActorsByRoles(ctx context.Context, roles []role.Role) ([]*user.Actor, error) {
	want := make(map[role.Role]bool, len(roles))
	for _, r := range roles {
		want[r] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*user.Actor, 0)
	for _, a := range s.actors {
		if want[a.Role] {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Username) < strings.ToLower(out[j].Username)
	})
	return out, nil
}

// ListAudit returns matching entries newest first and the total match count
func (s *Store) ListAudit(ctx context.Context, filter audit.Filter) ([]*audit.Entry, int, error) {
	filter = filter.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]*audit.Entry, 0)
	for i := len(s.trail) - 1; i >= 0; i-- {
		e := s.trail[i]
		if filter.Kind != nil && e.Kind != *filter.Kind {
			continue
		}
		if filter.ActorID != nil && (!e.ActorID.Valid || e.ActorID.UUID != *filter.ActorID) {
			continue
		}
		matched = append(matched, &e)
	}
	return page(matched, filter.Limit, filter.Offset), len(matched), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// txn is the transactional view handed to workflow callbacks. The store
// lock is already held, so every row it touches stays locked until commit.
type txn struct {
	s *Store
}

func (t *txn) LockActors(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*user.Actor, error) {
	out := make(map[uuid.UUID]*user.Actor, len(ids))
	for _, id := range ids {
		if a, ok := t.s.actors[id]; ok {
			a := a
			out[id] = &a
		}
	}
	return out, nil
}

func (t *txn) SetRole(ctx context.Context, id uuid.UUID, r role.Role) error {
	a, ok := t.s.actors[id]
	if !ok {
		return user.ErrActorNotFound
	}
	a.Role = r
	a.UpdatedAt = time.Now().UTC()
	t.s.actors[id] = a
	return nil
}

func (t *txn) SetBanned(ctx context.Context, id uuid.UUID, banned bool, reason string) error {
	a, ok := t.s.actors[id]
	if !ok {
		return user.ErrActorNotFound
	}
	a.IsBanned = banned
	a.BannedReason = sql.NullString{}
	if banned && reason != "" {
		a.BannedReason = sql.NullString{String: reason, Valid: true}
	}
	a.UpdatedAt = time.Now().UTC()
	t.s.actors[id] = a
	return nil
}

func (t *txn) AppendAudit(ctx context.Context, e *audit.Entry) error {
	if e == nil {
		return fmt.Errorf("nil audit entry")
	}
	t.s.trail = append(t.s.trail, *e)
	return nil
}

func (t *txn) LockPost(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	p, ok := t.s.posts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *txn) CreatePost(ctx context.Context, p *post.Post) error {
	if _, ok := t.s.posts[p.ID]; ok {
		return fmt.Errorf("post %s already exists", p.ID)
	}
	t.s.posts[p.ID] = *p
	return nil
}

func (t *txn) UpdatePost(ctx context.Context, p *post.Post) error {
	if _, ok := t.s.posts[p.ID]; !ok {
		return post.ErrPostNotFound
	}
	t.s.posts[p.ID] = *p
	return nil
}

func (t *txn) LockApplication(ctx context.Context, id uuid.UUID) (*application.Application, error) {
	a, ok := t.s.apps[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (t *txn) HasPendingApplication(ctx context.Context, applicantID uuid.UUID) (bool, error) {
	for _, a := range t.s.apps {
		if a.ApplicantID == applicantID && a.IsPending() {
			return true, nil
		}
	}
	return false, nil
}

func (t *txn) CreateApplication(ctx context.Context, a *application.Application) error {
	if a.IsPending() {
		pending, _ := t.HasPendingApplication(ctx, a.ApplicantID)
		if pending {
			return application.ErrDuplicatePending
		}
	}
	t.s.apps[a.ID] = *a
	return nil
}

func (t *txn) DecideApplication(ctx context.Context, a *application.Application) error {
	current, ok := t.s.apps[a.ID]
	if !ok {
		return application.ErrApplicationNotFound
	}
	if !current.IsPending() {
		return fmt.Errorf("application %s already %s: %w", a.ID, current.Status, database.ErrConcurrentConflict)
	}
	t.s.apps[a.ID] = *a
	return nil
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
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type applicationStore struct{ *Store }

func (s applicationStore) InTx(ctx context.Context, fn func(tx application.Tx) error) error {
	return s.inTx(ctx, func(t *txn) error { return fn(t) })
}

func (s applicationStore) ListApplications(ctx context.Context, filter application.ListFilter) ([]*application.Application, int, error) {
	filter = filter.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]*application.Application, 0)
	for _, a := range s.apps {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		a := a
		matched = append(matched, &a)
	}
	sortNewestFirst(matched)
	return page(matched, filter.Limit, filter.Offset), len(matched), nil
}

func (s applicationStore) CountApplications(ctx context.Context, status application.Status) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, a := range s.apps {
		if a.Status == status {
			n++
		}
	}
	return n, nil
}

func (s applicationStore) ListApplicationsByApplicant(ctx context.Context, applicantID uuid.UUID) ([]*application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*application.Application, 0)
	for _, a := range s.apps {
		if a.ApplicantID == applicantID {
			a := a
			out = append(out, &a)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(apps []*application.Application) {
	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].CreatedAt.After(apps[j].CreatedAt)
		}
		return apps[i].ID.String() < apps[j].ID.String()
	})
}
