package staff

import (
	"time"

	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/role"
	"github.com/forumhq/forum-api/internal/domain/user"
)

// AssignRoleRequest for PUT /staff/{id}/role
type AssignRoleRequest struct {
	Role string `json:"role" validate:"required,forum_role"`
}

// BanRequest for POST /staff/{id}/ban
type BanRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// RoleResponse represents a catalog entry in API
type RoleResponse struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// RoleResponses converts roles to responses
func RoleResponses(roles []role.Role) []RoleResponse {
	out := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleResponse{Name: r.String(), Rank: r.Rank()})
	}
	return out
}

// ActorResponse represents a user in staff API
type ActorResponse struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	Rank         int       `json:"rank"`
	IsBanned     bool      `json:"is_banned"`
	BannedReason *string   `json:"banned_reason,omitempty"`
	UpdatedAt    string    `json:"updated_at"`
}

// ActorResponseFromEntity converts entity to response
func ActorResponseFromEntity(a *user.Actor) *ActorResponse {
	resp := &ActorResponse{
		ID:        a.ID,
		Username:  a.Username,
		Role:      a.Role.String(),
		Rank:      a.Role.Rank(),
		IsBanned:  a.IsBanned,
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
	if a.BannedReason.Valid {
		resp.BannedReason = &a.BannedReason.String
	}
	return resp
}

// RosterResponse is one public staff roster entry. Ban state is not exposed.
type RosterResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	Rank     int       `json:"rank"`
}

// RosterResponses converts the roster
func RosterResponses(actors []*user.Actor) []RosterResponse {
	out := make([]RosterResponse, 0, len(actors))
	for _, a := range actors {
		out = append(out, RosterResponse{ID: a.ID, Username: a.Username, Role: a.Role.String(), Rank: a.Role.Rank()})
	}
	return out
}

// AssignmentResponse is returned after a role change
type AssignmentResponse struct {
	User    *ActorResponse `json:"user"`
	OldRole string         `json:"old_role"`
	NewRole string         `json:"new_role"`
}
