package staff

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/role"
	"github.com/forumhq/forum-api/internal/middleware"
	"github.com/forumhq/forum-api/internal/pkg/errorhandler"
	"github.com/forumhq/forum-api/internal/pkg/response"
	"github.com/forumhq/forum-api/internal/pkg/validator"
)

// Handler handles staff HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates staff handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListRoles handles GET /roles
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	response.OK(w, RoleResponses(role.All()))
}

// ListStaff handles GET /staff; open to every signed-in user
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	actors, err := h.service.ListStaff(r.Context())
	if err != nil {
		errorhandler.Workflow(r.Context(), w, err)
		return
	}
	response.OK(w, RosterResponses(actors))
}

// Grantable handles GET /staff/grantable
func (h *Handler) Grantable(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.GrantableRoles(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		errorhandler.Workflow(r.Context(), w, err)
		return
	}
	response.OK(w, RoleResponses(roles))
}

// AssignRole handles PUT /staff/{id}/role
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	targetID, ok := parseTargetID(w, r)
	if !ok {
		return
	}

	var req AssignRoleRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}
	newRole, err := role.Parse(req.Role)
	if err != nil {
		response.ValidationError(w, map[string]string{"role": "Unknown role"})
		return
	}

	result, err := h.service.AssignRole(r.Context(), middleware.GetUserID(r.Context()), targetID, newRole)
	if err != nil {
		errorhandler.Workflow(r.Context(), w, err)
		return
	}
	response.OK(w, assignmentResponse(result))
}

// Demote handles POST /staff/{id}/demote
func (h *Handler) Demote(w http.ResponseWriter, r *http.Request) {
	targetID, ok := parseTargetID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Demote(r.Context(), middleware.GetUserID(r.Context()), targetID)
	if err != nil {
		errorhandler.Workflow(r.Context(), w, err)
		return
	}
	response.OK(w, assignmentResponse(result))
}

// Ban handles POST /staff/{id}/ban
func (h *Handler) Ban(w http.ResponseWriter, r *http.Request) {
	targetID, ok := parseTargetID(w, r)
	if !ok {
		return
	}

	var req BanRequest
	if r.ContentLength != 0 {
		if err := response.DecodeJSON(r.Body, &req); err != nil {
			response.BadRequest(w, "Invalid JSON body")
			return
		}
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	target, err := h.service.Ban(r.Context(), middleware.GetUserID(r.Context()), targetID, req.Reason)
	if err != nil {
		h.banError(w, r, err)
		return
	}
	response.OK(w, ActorResponseFromEntity(target))
}

// Unban handles POST /staff/{id}/unban
func (h *Handler) Unban(w http.ResponseWriter, r *http.Request) {
	targetID, ok := parseTargetID(w, r)
	if !ok {
		return
	}

	target, err := h.service.Unban(r.Context(), middleware.GetUserID(r.Context()), targetID)
	if err != nil {
		h.banError(w, r, err)
		return
	}
	response.OK(w, ActorResponseFromEntity(target))
}

func (h *Handler) banError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrAlreadyBanned):
		response.InvalidTransition(w, "User is already banned")
	case errors.Is(err, ErrNotBanned):
		response.InvalidTransition(w, "User is not banned")
	default:
		errorhandler.Workflow(r.Context(), w, err)
	}
}

func parseTargetID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return uuid.Nil, false
	}
	return id, true
}

func assignmentResponse(a *Assignment) *AssignmentResponse {
	return &AssignmentResponse{
		User:    ActorResponseFromEntity(a.Target),
		OldRole: a.OldRole.String(),
		NewRole: a.NewRole.String(),
	}
}
