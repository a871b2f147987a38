package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Assignment is one interviewer/interviewee edge of the rotation.
type Assignment struct {
	Interviewer primitive.ObjectID
	Interviewee primitive.ObjectID
}

// Rotate shuffles ids with Fisher-Yates and links each participant to the
// next one in a cycle, so everyone interviews once and is interviewed once.
// Fewer than two ids produce no assignments. ids is not modified.
func Rotate(ids []primitive.ObjectID, rng Rand) []Assignment {
	n := len(ids)
	if n < 2 {
		return nil
	}
	shuffled := make([]primitive.ObjectID, n)
	copy(shuffled, ids)
	for i := n - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	out := make([]Assignment, n)
	for k := range shuffled {
		out[k] = Assignment{Interviewer: shuffled[k], Interviewee: shuffled[(k+1)%n]}
	}
	return out
}

// RosterStore atomically swaps an event's pair set for a new round.
type RosterStore interface {
	// ReplaceRoster stores pairs and proposals under round, removes every
	// pair and proposal of the event from other rounds, and records round on
	// the event.
	ReplaceRoster(ctx context.Context, eventID primitive.ObjectID, round int, pairs []models.Pair, proposals []models.SlotProposal) error
}

// Generator builds a fresh round of pairs for an event.
type Generator struct {
	Roster   RosterStore
	Slots    *SlotPicker
	Rand     Rand
	Notifier Notifier
	Now      func() time.Time
}

// Generate replaces the event's pairs with a new rotation. Each pair gets a
// default slot which seeds both sides' proposals and the pair's current
// proposed time. With fewer than two participants the event ends up with no
// pairs and no error is returned.
func (g *Generator) Generate(ctx context.Context, event models.Event) ([]models.Pair, error) {
	if err := distinct(event.ParticipantIDs); err != nil {
		return nil, err
	}
	round := event.Round + 1
	now := g.Now().UTC()

	assignments := Rotate(event.ParticipantIDs, g.Rand)
	pairs := make([]models.Pair, 0, len(assignments))
	proposals := make([]models.SlotProposal, 0, 2*len(assignments))

	for _, a := range assignments {
		slot := normalizeTime(g.Slots.Pick())
		p := models.Pair{
			ID:                  primitive.NewObjectID(),
			EventID:             event.ID,
			Round:               round,
			InterviewerID:       a.Interviewer,
			IntervieweeID:       a.Interviewee,
			DefaultTimeSlot:     slot,
			CurrentProposedTime: slot,
			Status:              models.PairPending,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		pairs = append(pairs, p)
		for _, who := range p.Parties() {
			proposals = append(proposals, models.SlotProposal{
				ID:            primitive.NewObjectID(),
				PairID:        p.ID,
				EventID:       event.ID,
				ParticipantID: who,
				Candidates:    []time.Time{slot},
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		}
	}

	if err := g.Roster.ReplaceRoster(ctx, event.ID, round, pairs, proposals); err != nil {
		return nil, fmt.Errorf("replace roster for event %s: %w", event.ID.Hex(), err)
	}

	event.Round = round
	if g.Notifier != nil {
		g.Notifier.PairsGenerated(ctx, event, pairs)
	}
	return pairs, nil
}

func distinct(ids []primitive.ObjectID) error {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return apperr.Validation("participant " + id.Hex() + " is listed more than once")
		}
		seen[id] = struct{}{}
	}
	return nil
}
