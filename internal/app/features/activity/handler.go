// internal/app/features/activity/handler.go
package activity

import (
	"github.com/dalemusser/pairup/internal/app/store/activity"
	eventstore "github.com/dalemusser/pairup/internal/app/store/events"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the activity analytics endpoints for coordinators and admins.
type Handler struct {
	Activity *activity.Store
	Events   *eventstore.Store
	Log      *zap.Logger
}

// NewHandler creates a new activity Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Activity: activity.New(db),
		Events:   eventstore.New(db),
		Log:      logger,
	}
}
