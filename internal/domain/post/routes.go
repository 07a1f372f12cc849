package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns post router; mount behind the auth middleware.
// writeLimit throttles mutating routes.
func (h *Handler) Routes(writeLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(writeLimit)
		r.Post("/", h.Create)
		r.Post("/{id}/approve", h.Moderate(ActionApprove))
		r.Post("/{id}/reject", h.Reject)
		r.Post("/{id}/resolve", h.Moderate(ActionResolve))
		r.Post("/{id}/reopen", h.Moderate(ActionReopen))
		r.Post("/{id}/pin", h.TogglePin)
		r.Post("/{id}/hot", h.ToggleHot)
	})

	return r
}
