package permission

import (
	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/role"
)

// Subject is an actor as loaded from the store for the current operation.
// It must never be built from client-supplied role data.
type Subject struct {
	ID     uuid.UUID
	Role   role.Role
	Banned bool
}

// Rank returns the subject's current rank
func (s Subject) Rank() int {
	return s.Role.Rank()
}

// Decision is the outcome of a permission check
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow returns an allowing decision
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with reason
func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Err converts a denial into a DeniedError, nil when allowed
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return Denied(d.Reason)
}

// Minimum ranks per protected action
var (
	moderatePostRank      = role.Helper.Rank()
	reviewApplicationRank = role.Moderator.Rank()
	banRank               = role.Moderator.Rank()
	viewAuditRank         = role.Moderator.Rank()
)

// IsProtected reports whether r is exempt from the standard demotion path
func IsProtected(r role.Role) bool {
	return r == role.Management
}

// CanAssignRole decides whether actor may set target's role to newRole.
// Checks run in a fixed order: self-targeting, the protected tier, bans,
// then rank.
func CanAssignRole(actor, target Subject, newRole role.Role) Decision {
	if actor.ID == target.ID {
		return Deny(ReasonSelfTarget)
	}
	if IsProtected(target.Role) && !actor.Role.Outranks(target.Role) {
		return Deny(ReasonProtectedRole)
	}
	if actor.Banned {
		return Deny(ReasonBanned)
	}
	if !newRole.IsKnown() {
		return Deny(ReasonUnknownRole)
	}
	if len(GrantableRoles(actor.Rank())) == 0 {
		return Deny(ReasonInsufficientRank)
	}
	if newRole.Rank() >= actor.Rank() {
		return Deny(ReasonInsufficientRank)
	}
	// Peers and superiors are out of reach, same as admin CanManage.
	if !actor.Role.Outranks(target.Role) {
		return Deny(ReasonInsufficientRank)
	}
	return Allow()
}

// CanGrant decides whether actor may hand out granted at all
func CanGrant(actor Subject, granted role.Role) Decision {
	if !granted.IsKnown() {
		return Deny(ReasonUnknownRole)
	}
	if granted.Rank() >= actor.Rank() {
		return Deny(ReasonInsufficientRank)
	}
	return Allow()
}

// CanModeratePost requires helper or above
func CanModeratePost(actor Subject) Decision {
	return atLeast(actor, moderatePostRank)
}

// CanReviewApplication requires moderator or above
func CanReviewApplication(actor Subject) Decision {
	return atLeast(actor, reviewApplicationRank)
}

// CanViewAudit requires moderator or above
func CanViewAudit(actor Subject) Decision {
	return atLeast(actor, viewAuditRank)
}

// CanParticipate allows any non-banned actor (posting, applying)
func CanParticipate(actor Subject) Decision {
	if actor.Banned {
		return Deny(ReasonBanned)
	}
	return Allow()
}

// CanBan decides whether actor may ban or unban target
func CanBan(actor, target Subject) Decision {
	if actor.ID == target.ID {
		return Deny(ReasonSelfTarget)
	}
	if IsProtected(target.Role) && !actor.Role.Outranks(target.Role) {
		return Deny(ReasonProtectedRole)
	}
	if actor.Banned {
		return Deny(ReasonBanned)
	}
	if actor.Rank() < banRank || !actor.Role.Outranks(target.Role) {
		return Deny(ReasonInsufficientRank)
	}
	return Allow()
}

// GrantableRoles returns every role an actor of actorRank may assign.
// Helpers and below cannot assign anything.
func GrantableRoles(actorRank int) []role.Role {
	if actorRank <= role.Helper.Rank() {
		return []role.Role{}
	}
	return role.Below(actorRank)
}

func atLeast(actor Subject, rank int) Decision {
	if actor.Banned {
		return Deny(ReasonBanned)
	}
	if actor.Rank() < rank {
		return Deny(ReasonInsufficientRank)
	}
	return Allow()
}
