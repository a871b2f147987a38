// internal/app/features/curriculum/routes.go
package curriculum

import (
	"github.com/dalemusser/pairup/internal/app/system/auth"
	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the curriculum under "/api/curriculum". {level} is one of
// semesters, subjects, chapters or topics.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Get("/", h.ServeTree)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin))
		pr.Post("/{level}", h.HandleCreate)
		pr.Patch("/{level}/{id}", h.HandleEdit)
		pr.Delete("/{level}/{id}", h.HandleDelete)
	})
	return r
}
