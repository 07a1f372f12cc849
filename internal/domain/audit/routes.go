package audit

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns audit router; mount behind the auth middleware
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	return r
}
