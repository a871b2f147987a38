// internal/app/features/events/routes.go
package events

import (
	"github.com/dalemusser/pairup/internal/app/system/auth"
	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the event endpoints under "/api/events".
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeView)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin, models.RoleCoordinator))
		pr.Post("/", h.HandleCreate)
		pr.Patch("/{id}", h.HandleEdit)
		pr.Post("/{id}/regenerate", h.HandleRegenerate)
	})
	return r
}
