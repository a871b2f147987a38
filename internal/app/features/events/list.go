// internal/app/features/events/list.go
package events

import (
	"net/http"

	"github.com/dalemusser/pairup/internal/app/features/shared"
	"github.com/dalemusser/pairup/internal/app/policy/viewscope"
	pairstore "github.com/dalemusser/pairup/internal/app/store/pairs"
	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"github.com/dalemusser/pairup/internal/domain/models"
)

const maxEvents = 200

// ServeList handles GET /api/events. Results follow the caller's scope.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list events")
	defer cancel()

	scope, err := viewscope.Resolve(ctx, r, h.Events)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	limit := shared.QueryInt(r, "limit", 50, 1, maxEvents)
	rows, err := h.Events.List(ctx, scope.EventFilter(), int64(limit))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if rows == nil {
		rows = []models.Event{}
	}
	respond.OK(w, map[string]any{"events": rows})
}

// ServeView handles GET /api/events/{id}: the event plus the pairs of its
// current round the caller may see.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "view event")
	defer cancel()

	scope, err := viewscope.Resolve(ctx, r, h.Events)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, shared.NotFound(err, "event"))
		return
	}
	if !scope.CanSeeEvent(*e) {
		// Same answer as a missing event so ids cannot be probed.
		respond.Error(w, h.Log, apperr.NotFound("event not found"))
		return
	}

	pairs, err := h.Pairs.List(ctx, scope.PairFilter(), pairstore.ListFilter{EventID: &e.ID})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, viewResponse{Event: *e, Pairs: pairs, CanManage: scope.CanManageEvent(*e)})
}
