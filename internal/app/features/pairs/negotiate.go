// internal/app/features/pairs/negotiate.go
package pairs

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/pairup/internal/app/features/shared"
	"github.com/dalemusser/pairup/internal/app/store/activity"
	"github.com/dalemusser/pairup/internal/app/system/metrics"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandlePropose handles POST /api/pairs/{id}/propose. The caller's candidate
// list replaces their previous one; the response carries the earliest slot
// both sides now share, if any.
func (h *Handler) HandlePropose(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	actor, err := shared.Actor(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in proposeInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	cands := make([]time.Time, 0, len(in.Candidates))
	for _, raw := range in.Candidates {
		t, err := shared.ParseTime("candidates", raw)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		cands = append(cands, t)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "propose slots")
	defer cancel()

	res, err := h.Negotiator.Propose(ctx, id, actor, cands)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	metrics.Negotiation.WithLabelValues("propose").Inc()
	if res.Common != nil {
		metrics.Negotiation.WithLabelValues("common_found").Inc()
	}
	h.record(ctx, actor.ID, activity.EventPropose, res.Pair)
	respond.OK(w, res)
}

// HandleConfirm handles POST /api/pairs/{id}/confirm. The given time is
// taken as is.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	actor, err := shared.Actor(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in confirmInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	at, err := shared.ParseTime("scheduled_at", in.ScheduledAt)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "confirm pair")
	defer cancel()

	p, err := h.Negotiator.Confirm(ctx, id, actor, at, in.MeetingLink)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	metrics.Negotiation.WithLabelValues("confirm").Inc()
	h.record(ctx, actor.ID, activity.EventConfirm, *p)
	h.Log.Info("pair confirmed",
		zap.String("pair_id", p.ID.Hex()),
		zap.String("by", actor.ID.Hex()),
		zap.Time("scheduled_at", at.UTC()))
	respond.OK(w, p)
}

// HandleMeetingLink handles POST /api/pairs/{id}/meeting-link (admins).
func (h *Handler) HandleMeetingLink(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	actor, err := shared.Actor(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in meetingLinkInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set meeting link")
	defer cancel()

	p, err := h.Negotiator.SetMeetingLink(ctx, id, actor, in.MeetingLink)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	metrics.Negotiation.WithLabelValues("meeting_link").Inc()
	h.record(ctx, actor.ID, activity.EventMeetingLink, *p)
	respond.OK(w, p)
}

// record stores an activity event. Failures are logged only.
func (h *Handler) record(ctx context.Context, userID primitive.ObjectID, eventType string, p models.Pair) {
	if err := h.Activity.RecordPairAction(ctx, userID, eventType, p.EventID, p.ID); err != nil {
		h.Log.Warn("record activity",
			zap.String("event_type", eventType),
			zap.String("pair_id", p.ID.Hex()),
			zap.Error(err))
	}
}
