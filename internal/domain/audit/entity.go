package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/pkg/ids"
)

// Kind names the state-changing operation an entry records
type Kind string

const (
	KindRoleChange         Kind = "role_change"
	KindRoleBootstrap      Kind = "role_bootstrap"
	KindPostCreate         Kind = "post_create"
	KindPostStatusChange   Kind = "post_status_change"
	KindPostPin            Kind = "post_pin"
	KindPostHot            Kind = "post_hot"
	KindUserBan            Kind = "user_ban"
	KindUserUnban          Kind = "user_unban"
	KindApplicationSubmit  Kind = "application_submit"
	KindApplicationApprove Kind = "application_approve"
	KindApplicationReject  Kind = "application_reject"
)

var kinds = map[Kind]bool{
	KindRoleChange:         true,
	KindRoleBootstrap:      true,
	KindPostCreate:         true,
	KindPostStatusChange:   true,
	KindPostPin:            true,
	KindPostHot:            true,
	KindUserBan:            true,
	KindUserUnban:          true,
	KindApplicationSubmit:  true,
	KindApplicationApprove: true,
	KindApplicationReject:  true,
}

// ParseKind validates a kind name from a filter
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !kinds[k] {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// TargetType says what TargetID refers to
type TargetType string

const (
	TargetActor       TargetType = "actor"
	TargetPost        TargetType = "post"
	TargetApplication TargetType = "application"
)

// Entry is one append-only audit record (matches audit_entries table).
// ActorID is null for operator actions such as bootstrap.
type Entry struct {
	ID         string        `db:"id" json:"id"`
	ActorID    uuid.NullUUID `db:"actor_id" json:"actor_id"`
	Kind       Kind          `db:"kind" json:"kind"`
	TargetType TargetType    `db:"target_type" json:"target_type"`
	TargetID   uuid.UUID     `db:"target_id" json:"target_id"`
	Detail     string        `db:"detail" json:"detail"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// NewEntry stamps a new entry with a sortable id and the current time
func NewEntry(actorID uuid.UUID, kind Kind, targetType TargetType, targetID uuid.UUID, detail string) *Entry {
	now := time.Now().UTC()
	e := &Entry{
		ID:         ids.NewAt(now),
		Kind:       kind,
		TargetType: targetType,
		TargetID:   targetID,
		Detail:     detail,
		CreatedAt:  now,
	}
	if actorID != uuid.Nil {
		e.ActorID = uuid.NullUUID{UUID: actorID, Valid: true}
	}
	return e
}
