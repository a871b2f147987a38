// internal/app/features/progress/routes.go
package progress

import (
	"github.com/dalemusser/pairup/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts learning progress under "/api/progress".
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeSummary)
	r.Get("/topics", h.ServeTopics)
	r.Post("/topics/{id}", h.HandleWatch)
	return r
}
