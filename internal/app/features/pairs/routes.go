// internal/app/features/pairs/routes.go
package pairs

import (
	"github.com/dalemusser/pairup/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the pair endpoints under "/api/pairs". Who may act on a pair
// is decided by the negotiator, not by route guards.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/summary", h.ServeSummary)
	r.Get("/{id}", h.ServeView)
	r.Post("/{id}/propose", h.HandlePropose)
	r.Post("/{id}/confirm", h.HandleConfirm)
	r.Post("/{id}/meeting-link", h.HandleMeetingLink)
	return r
}
