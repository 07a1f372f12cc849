package post

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/middleware"
	"github.com/forumhq/forum-api/internal/pkg/errorhandler"
	"github.com/forumhq/forum-api/internal/pkg/response"
	"github.com/forumhq/forum-api/internal/pkg/validator"
)

// Handler handles post HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates post handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /posts
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	p, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), CreateInput{
		Category: Category(req.Category),
		Title:    req.Title,
		Content:  req.Content,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, PostResponseFromEntity(p))
}

// Get handles GET /posts/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), postID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, PostResponseFromEntity(p))
}

// Moderate returns the handler for approve, resolve and reopen
func (h *Handler) Moderate(action Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, ok := parsePostID(w, r)
		if !ok {
			return
		}

		p, err := h.service.Transition(r.Context(), middleware.GetUserID(r.Context()), postID, action, "")
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		response.OK(w, PostResponseFromEntity(p))
	}
}

// Reject handles POST /posts/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	postID, ok := parsePostID(w, r)
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

	p, err := h.service.Reject(r.Context(), middleware.GetUserID(r.Context()), postID, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, PostResponseFromEntity(p))
}

// TogglePin handles POST /posts/{id}/pin
func (h *Handler) TogglePin(w http.ResponseWriter, r *http.Request) {
	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}

	p, err := h.service.TogglePin(r.Context(), middleware.GetUserID(r.Context()), postID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, PostResponseFromEntity(p))
}

// ToggleHot handles POST /posts/{id}/hot
func (h *Handler) ToggleHot(w http.ResponseWriter, r *http.Request) {
	postID, ok := parsePostID(w, r)
	if !ok {
		return
	}

	p, err := h.service.ToggleHot(r.Context(), middleware.GetUserID(r.Context()), postID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, PostResponseFromEntity(p))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrPostNotFound):
		response.NotFound(w, "Post not found")
	case errors.Is(err, ErrInvalidTransition):
		response.InvalidTransition(w, err.Error())
	case errors.Is(err, ErrInvalidCategory):
		response.ValidationError(w, map[string]string{"category": "Invalid category"})
	default:
		errorhandler.Workflow(r.Context(), w, err)
	}
}

func parsePostID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid post ID")
		return uuid.Nil, false
	}
	return id, true
}
