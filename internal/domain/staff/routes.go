package staff

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns staff router; mount behind the auth middleware.
// writeLimit throttles mutating routes.
func (h *Handler) Routes(writeLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListStaff)
	r.Get("/grantable", h.Grantable)

	r.Group(func(r chi.Router) {
		r.Use(writeLimit)
		r.Put("/{id}/role", h.AssignRole)
		r.Post("/{id}/demote", h.Demote)
		r.Post("/{id}/ban", h.Ban)
		r.Post("/{id}/unban", h.Unban)
	})

	return r
}
