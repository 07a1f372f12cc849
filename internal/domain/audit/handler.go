package audit

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/middleware"
	"github.com/forumhq/forum-api/internal/pkg/errorhandler"
	"github.com/forumhq/forum-api/internal/pkg/response"
)

// Handler handles audit HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates audit handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /audit
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{}

	if l := q.Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v <= 0 {
			response.BadRequest(w, "Invalid limit")
			return
		}
		filter.Limit = v
	}
	if o := q.Get("offset"); o != "" {
		v, err := strconv.Atoi(o)
		if err != nil || v < 0 {
			response.BadRequest(w, "Invalid offset")
			return
		}
		filter.Offset = v
	}
	if k := q.Get("kind"); k != "" {
		kind, err := ParseKind(k)
		if err != nil {
			response.BadRequest(w, "Unknown audit kind")
			return
		}
		filter.Kind = &kind
	}
	if a := q.Get("actor_id"); a != "" {
		id, err := uuid.Parse(a)
		if err != nil {
			response.BadRequest(w, "Invalid actor ID")
			return
		}
		filter.ActorID = &id
	}

	entries, total, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()), filter)
	if err != nil {
		errorhandler.Workflow(r.Context(), w, err)
		return
	}

	items := make([]*EntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, EntryResponseFromEntity(e))
	}

	filter = filter.Normalize()
	response.WithMeta(w, items, response.Meta{Total: total, Limit: filter.Limit, Offset: filter.Offset})
}
