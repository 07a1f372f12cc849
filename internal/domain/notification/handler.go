package notification

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/forumhq/forum-api/internal/middleware"
	"github.com/forumhq/forum-api/internal/pkg/logger"
	"github.com/forumhq/forum-api/internal/pkg/response"
)

const defaultInboxPage = 20

// InboxReader reads a user's recent notifications
type InboxReader interface {
	Inbox(ctx context.Context, userID string, limit int64) ([]Event, error)
}

// Handler serves the caller's notification inbox
type Handler struct {
	inbox InboxReader
}

// NewHandler creates notification handler
func NewHandler(inbox InboxReader) *Handler {
	return &Handler{inbox: inbox}
}

// Inbox handles GET /notifications
func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	limit := defaultInboxPage
	if l := r.URL.Query().Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v <= 0 {
			response.BadRequest(w, "Invalid limit")
			return
		}
		limit = min(v, DefaultInboxSize)
	}

	events, err := h.inbox.Inbox(r.Context(), userID.String(), int64(limit))
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("read notification inbox")
		response.InternalError(w)
		return
	}
	response.OK(w, events)
}

// Routes returns notification router; mount behind the auth middleware
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Inbox)
	return r
}
