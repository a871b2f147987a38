// internal/app/features/events/new.go
package events

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/pairup/internal/app/features/shared"
	eventstore "github.com/dalemusser/pairup/internal/app/store/events"
	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/authz"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.uber.org/zap"
)

// HandleCreate handles POST /api/events. The event is stored first and its
// first round of pairs is generated in the background.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		respond.Error(w, h.Log, apperr.ErrUnauthenticated.WithMessage("sign in required"))
		return
	}
	var in createInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	var startsOn *time.Time
	if in.StartsOn != "" {
		t, err := shared.ParseTime("starts_on", in.StartsOn)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		t = t.UTC()
		startsOn = &t
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create event")
	defer cancel()

	participants, err := h.participants(ctx, in.ParticipantIDs)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	coordinators, err := h.coordinators(ctx, in.CoordinatorIDs)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	// A coordinator always coordinates the events they create.
	if role == models.RoleCoordinator && !containsID(coordinators, uid) {
		coordinators = append(coordinators, uid)
	}

	e, err := h.Events.Create(ctx, models.Event{
		Name:           in.Name,
		Description:    in.Description,
		StartsOn:       startsOn,
		ParticipantIDs: participants,
		CoordinatorIDs: coordinators,
		CreatedByID:    uid,
	})
	if errors.Is(err, eventstore.ErrSlugExhausted) {
		respond.Error(w, h.Log, apperr.Wrap(apperr.KindConflict, err, "an event with this name already exists"))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	h.Log.Info("event created",
		zap.String("event_id", e.ID.Hex()),
		zap.String("slug", e.Slug),
		zap.Int("participants", len(e.ParticipantIDs)))
	h.pairInBackground(e)
	respond.Created(w, e)
}
