// internal/app/features/events/edit.go
package events

import (
	"net/http"

	"github.com/dalemusser/pairup/internal/app/features/shared"
	"github.com/dalemusser/pairup/internal/app/policy/viewscope"
	"github.com/dalemusser/pairup/internal/app/store/activity"
	eventstore "github.com/dalemusser/pairup/internal/app/store/events"
	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.uber.org/zap"
)

// loadManaged loads the {id} event and checks the caller may manage it.
func (h *Handler) loadManaged(w http.ResponseWriter, r *http.Request) (*models.Event, viewscope.ViewScope, bool) {
	id, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return nil, viewscope.ViewScope{}, false
	}
	scope, err := viewscope.Resolve(r.Context(), r, h.Events)
	if err != nil {
		respond.Error(w, h.Log, err)
		return nil, viewscope.ViewScope{}, false
	}
	e, err := h.Events.GetByID(r.Context(), id)
	if err != nil {
		respond.Error(w, h.Log, shared.NotFound(err, "event"))
		return nil, viewscope.ViewScope{}, false
	}
	if !scope.CanManageEvent(*e) {
		respond.Error(w, h.Log, apperr.NotAuthorized("you do not coordinate this event"))
		return nil, viewscope.ViewScope{}, false
	}
	return e, scope, true
}

// HandleEdit handles PATCH /api/events/{id}. A changed participant list
// applies from the next regeneration; existing pairs are untouched.
// Only admins may change the coordinators.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	e, scope, ok := h.loadManaged(w, r)
	if !ok {
		return
	}
	var in editInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update event")
	defer cancel()

	upd := eventstore.Update{Name: in.Name, Description: in.Description}
	if in.StartsOn != nil {
		t, err := shared.ParseTime("starts_on", *in.StartsOn)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		upd.StartsOn = &t
	}
	if in.ParticipantIDs != nil {
		ids, err := h.participants(ctx, in.ParticipantIDs)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		upd.ParticipantIDs = ids
	}
	if in.CoordinatorIDs != nil {
		if !scope.All {
			respond.Error(w, h.Log, apperr.NotAuthorized("only admins can change coordinators"))
			return
		}
		ids, err := h.coordinators(ctx, in.CoordinatorIDs)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		upd.CoordinatorIDs = ids
	}

	updated, err := h.Events.Update(ctx, e.ID, upd)
	if err != nil {
		respond.Error(w, h.Log, shared.NotFound(err, "event"))
		return
	}
	h.Log.Info("event updated", zap.String("event_id", e.ID.Hex()))
	respond.OK(w, updated)
}

// HandleRegenerate handles POST /api/events/{id}/regenerate. It replaces the
// event's pairs with a new round and returns them.
func (h *Handler) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	e, scope, ok := h.loadManaged(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "regenerate pairs")
	defer cancel()

	pairs, err := h.generate(ctx, *e)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if fresh, err := h.Events.GetByID(ctx, e.ID); err == nil {
		e = fresh
	}
	if err := h.Activity.Create(ctx, activity.Event{
		UserID:    scope.UserID,
		EventType: activity.EventPairsGenerated,
		EventID:   &e.ID,
		Details:   map[string]any{"round": e.Round, "pairs": len(pairs)},
	}); err != nil {
		h.Log.Warn("record activity", zap.Error(err))
	}

	h.Log.Info("pairs regenerated",
		zap.String("event_id", e.ID.Hex()),
		zap.Int("round", e.Round),
		zap.Int("pairs", len(pairs)))
	respond.OK(w, regenerateResponse{Event: *e, Pairs: pairs})
}
