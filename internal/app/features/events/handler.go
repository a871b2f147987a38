// internal/app/features/events/handler.go
package events

import (
	"sync"

	"github.com/dalemusser/pairup/internal/app/scheduling"
	"github.com/dalemusser/pairup/internal/app/store/activity"
	eventstore "github.com/dalemusser/pairup/internal/app/store/events"
	pairstore "github.com/dalemusser/pairup/internal/app/store/pairs"
	userstore "github.com/dalemusser/pairup/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the event registry and pairing endpoints.
type Handler struct {
	Events    *eventstore.Store
	Users     *userstore.Store
	Pairs     *pairstore.Store
	Activity  *activity.Store
	Generator *scheduling.Generator
	Log       *zap.Logger

	// background tracks pairing runs started by HandleCreate.
	background sync.WaitGroup
}

// NewHandler constructs an events Handler. gen writes new rounds.
func NewHandler(db *mongo.Database, gen *scheduling.Generator, logger *zap.Logger) *Handler {
	return &Handler{
		Events:    eventstore.New(db),
		Users:     userstore.New(db),
		Pairs:     pairstore.New(db),
		Activity:  activity.New(db),
		Generator: gen,
		Log:       logger,
	}
}

// Wait blocks until every background pairing run has finished.
func (h *Handler) Wait() { h.background.Wait() }
