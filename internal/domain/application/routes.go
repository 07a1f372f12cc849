package application

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns application router; mount behind the auth middleware.
func (h *Handler) Routes(writeLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/mine", h.Mine)
	r.Get("/count", h.Count)

	r.Group(func(r chi.Router) {
		r.Use(writeLimit)
		r.Post("/", h.Submit)
		r.Post("/{id}/approve", h.Approve)
		r.Post("/{id}/reject", h.Reject)
	})

	return r
}
