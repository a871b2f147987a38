// internal/app/features/events/roster.go
package events

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/pairup/internal/app/features/shared"
	rosterstore "github.com/dalemusser/pairup/internal/app/store/roster"
	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/metrics"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// participants parses and checks a roster: distinct ids of active students.
func (h *Handler) participants(ctx context.Context, hexes []string) ([]primitive.ObjectID, error) {
	ids, err := shared.ParseIDs("participant_ids", hexes)
	if err != nil {
		return nil, err
	}
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, apperr.Validation("participant " + id.Hex() + " is listed more than once")
		}
		seen[id] = struct{}{}
	}
	n, err := h.Users.CountActiveStudents(ctx, ids)
	if err != nil {
		return nil, err
	}
	if int(n) != len(ids) {
		return nil, apperr.Validation("every participant must be an active student")
	}
	return ids, nil
}

// coordinators parses and checks coordinator ids: active coordinators or admins.
func (h *Handler) coordinators(ctx context.Context, hexes []string) ([]primitive.ObjectID, error) {
	ids, err := shared.ParseIDs("coordinator_ids", hexes)
	if err != nil {
		return nil, err
	}
	found, err := h.Users.ContactsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		u, ok := found[id]
		if !ok || u.Status != models.UserActive || (u.Role != models.RoleCoordinator && u.Role != models.RoleAdmin) {
			return nil, apperr.Validation("coordinator " + id.Hex() + " is not an active coordinator")
		}
		if !containsID(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

// generate runs one pairing round for e and counts the outcome.
func (h *Handler) generate(ctx context.Context, e models.Event) ([]models.Pair, error) {
	pairs, err := h.Generator.Generate(ctx, e)
	switch {
	case err != nil:
		metrics.PairingRuns.WithLabelValues("error").Inc()
		if errors.Is(err, rosterstore.ErrRoundConflict) {
			return nil, apperr.Wrap(apperr.KindConflict, err, "pairs for this event are being regenerated, try again")
		}
		return nil, err
	case len(pairs) == 0:
		metrics.PairingRuns.WithLabelValues("empty").Inc()
	default:
		metrics.PairingRuns.WithLabelValues("ok").Inc()
		metrics.PairsGenerated.Add(float64(len(pairs)))
	}
	return pairs, nil
}

// pairInBackground generates the first round for a new event. A failure
// leaves the event in place and is recorded as its pairing note.
func (h *Handler) pairInBackground(e models.Event) {
	h.background.Add(1)
	go func() {
		defer h.background.Done()
		ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Long(), h.Log, "initial pairing")
		defer cancel()

		pairs, err := h.generate(ctx, e)
		if err != nil {
			h.Log.Error("initial pairing failed",
				zap.String("event_id", e.ID.Hex()),
				zap.Error(err))
			if nerr := h.Events.SetPairingNote(ctx, e.ID, "pairing failed: "+apperr.Message(err)); nerr != nil {
				h.Log.Warn("record pairing note", zap.String("event_id", e.ID.Hex()), zap.Error(nerr))
			}
			return
		}
		h.Log.Info("initial pairing done",
			zap.String("event_id", e.ID.Hex()),
			zap.Int("pairs", len(pairs)),
			zap.Time("at", time.Now().UTC()))
	}()
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
