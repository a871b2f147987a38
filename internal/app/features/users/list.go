// internal/app/features/users/list.go
package users

import (
	"net/http"

	userstore "github.com/dalemusser/pairup/internal/app/store/users"
	"github.com/dalemusser/pairup/internal/app/system/paging"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /api/users?role=&status=&q=&before=&after=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list users")
	defer cancel()

	before, after := paging.Cursors(r)
	rows, page, err := h.Users.List(ctx, userstore.ListFilter{
		Role:   query.Get(r, "role"),
		Status: query.Get(r, "status"),
		Search: query.Get(r, "q"),
		Before: before,
		After:  after,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if rows == nil {
		rows = []models.User{}
	}
	respond.OK(w, listResponse{Users: rows, Page: page})
}
