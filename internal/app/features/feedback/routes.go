// internal/app/features/feedback/routes.go
package feedback

import (
	"github.com/dalemusser/pairup/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts feedback under "/api/feedback".
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/summary", h.ServeSummary)
	return r
}
