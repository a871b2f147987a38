package scheduling

import (
	"context"
	"time"

	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier receives negotiation and roster transitions. Implementations must
// not block the caller for long and never report failure: delivery problems
// are theirs to log.
type Notifier interface {
	PairsGenerated(ctx context.Context, event models.Event, pairs []models.Pair)
	ProposalCreated(ctx context.Context, pair models.Pair, from primitive.ObjectID, candidates []time.Time, common *time.Time)
	PairConfirmed(ctx context.Context, pair models.Pair, by primitive.ObjectID)
	MeetingLinkSet(ctx context.Context, pair models.Pair)
	Reminder(ctx context.Context, pair models.Pair)
}

// NopNotifier discards everything.
type NopNotifier struct{}

func (NopNotifier) PairsGenerated(context.Context, models.Event, []models.Pair) {}
func (NopNotifier) ProposalCreated(context.Context, models.Pair, primitive.ObjectID, []time.Time, *time.Time) {
}
func (NopNotifier) PairConfirmed(context.Context, models.Pair, primitive.ObjectID) {}
func (NopNotifier) MeetingLinkSet(context.Context, models.Pair)                    {}
func (NopNotifier) Reminder(context.Context, models.Pair)                          {}
