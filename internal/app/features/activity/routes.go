// internal/app/features/activity/routes.go
package activity

import (
	"github.com/dalemusser/pairup/internal/app/system/auth"
	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for activity endpoints, mounted at /api/activity.
// Coordinators see activity tied to the events they coordinate.
// Admins see all activity.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Use(auth.RequireRole(models.RoleAdmin, models.RoleCoordinator))

		// Per-day counts by type
		pr.Get("/summary", h.ServeSummary)
		pr.Get("/summary.csv", h.ServeSummaryCSV)
	})

	// One user's recent activity (admins only)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Use(auth.RequireRole(models.RoleAdmin))
		pr.Get("/users/{id}", h.ServeUser)
	})
	return r
}
