// internal/app/features/pairs/handler.go
package pairs

import (
	"github.com/dalemusser/pairup/internal/app/scheduling"
	"github.com/dalemusser/pairup/internal/app/store/activity"
	eventstore "github.com/dalemusser/pairup/internal/app/store/events"
	pairstore "github.com/dalemusser/pairup/internal/app/store/pairs"
	proposalstore "github.com/dalemusser/pairup/internal/app/store/proposals"
	userstore "github.com/dalemusser/pairup/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves pair listing and the slot negotiation endpoints.
type Handler struct {
	Pairs      *pairstore.Store
	Proposals  *proposalstore.Store
	Events     *eventstore.Store
	Users      *userstore.Store
	Activity   *activity.Store
	Negotiator *scheduling.Negotiator
	Log        *zap.Logger
}

// NewHandler constructs a pairs Handler around neg.
func NewHandler(db *mongo.Database, neg *scheduling.Negotiator, logger *zap.Logger) *Handler {
	return &Handler{
		Pairs:      pairstore.New(db),
		Proposals:  proposalstore.New(db),
		Events:     eventstore.New(db),
		Users:      userstore.New(db),
		Activity:   activity.New(db),
		Negotiator: neg,
		Log:        logger,
	}
}
