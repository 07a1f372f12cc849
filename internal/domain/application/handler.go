package application

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/domain/role"
	"github.com/forumhq/forum-api/internal/middleware"
	"github.com/forumhq/forum-api/internal/pkg/errorhandler"
	"github.com/forumhq/forum-api/internal/pkg/response"
	"github.com/forumhq/forum-api/internal/pkg/validator"
)

// Handler handles staff application HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates application handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Submit handles POST /applications
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	a, err := h.service.Submit(r.Context(), middleware.GetUserID(r.Context()), req.Profile())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, ApplicationResponseFromEntity(a))
}

// Mine handles GET /applications/mine
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.Mine(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, ApplicationResponses(apps))
}

// List handles GET /applications
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{}
	if s := q.Get("status"); s != "" {
		status, ok := ParseStatus(s)
		if !ok {
			response.ValidationError(w, map[string]string{"status": "Must be one of: pending, approved, rejected"})
			return
		}
		filter.Status = &status
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))
	filter = filter.Normalize()

	apps, total, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.WithMeta(w, ApplicationResponses(apps), response.Meta{
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// Count handles GET /applications/count
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.CountPending(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, CountResponse{Pending: n})
}

// Approve handles POST /applications/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	appID, ok := parseApplicationID(w, r)
	if !ok {
		return
	}

	var req ApproveRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}
	granted, err := role.Parse(req.Role)
	if err != nil {
		response.ValidationError(w, map[string]string{"role": "Unknown role"})
		return
	}

	a, err := h.service.Approve(r.Context(), middleware.GetUserID(r.Context()), appID, granted)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, ApplicationResponseFromEntity(a))
}

// Reject handles POST /applications/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	appID, ok := parseApplicationID(w, r)
	if !ok {
		return
	}

	var req RejectRequest
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

	a, err := h.service.Reject(r.Context(), middleware.GetUserID(r.Context()), appID, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, ApplicationResponseFromEntity(a))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrApplicationNotFound):
		response.NotFound(w, "Application not found")
	case errors.Is(err, ErrInvalidTransition):
		response.InvalidTransition(w, err.Error())
	case errors.Is(err, ErrDuplicatePending):
		response.Error(w, http.StatusConflict, "DUPLICATE_PENDING", "You already have a pending application")
	default:
		errorhandler.Workflow(r.Context(), w, err)
	}
}

func parseApplicationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid application ID")
		return uuid.Nil, false
	}
	return id, true
}
