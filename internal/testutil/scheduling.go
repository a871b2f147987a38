package testutil

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/dalemusser/pairup/internal/app/scheduling"
	rosterstore "github.com/dalemusser/pairup/internal/app/store/roster"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TestSlotWindow is the interview window used by handler tests: 09:00-17:00
// UTC over the next week.
var TestSlotWindow = scheduling.SlotWindow{StartHour: 9, EndHour: 17, LookaheadDays: 7, Location: time.UTC}

// NewGenerator returns a pairing generator writing to db with a seeded
// shuffle. notifier may be nil.
func NewGenerator(t *testing.T, db *mongo.Database, notifier scheduling.Notifier) *scheduling.Generator {
	t.Helper()
	if notifier == nil {
		notifier = scheduling.NopNotifier{}
	}
	rng := rand.New(rand.NewPCG(1, 2))
	return &scheduling.Generator{
		Roster:   rosterstore.New(db.Client(), db, zap.NewNop()),
		Slots:    &scheduling.SlotPicker{Window: TestSlotWindow, Rand: rng, Now: time.Now},
		Rand:     rng,
		Notifier: notifier,
		Now:      time.Now,
	}
}
