// internal/app/features/feedback/handler.go
package feedback

import (
	"github.com/dalemusser/pairup/internal/app/store/activity"
	eventstore "github.com/dalemusser/pairup/internal/app/store/events"
	feedbackstore "github.com/dalemusser/pairup/internal/app/store/feedback"
	pairstore "github.com/dalemusser/pairup/internal/app/store/pairs"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Feedback *feedbackstore.Store
	Pairs    *pairstore.Store
	Events   *eventstore.Store
	Activity *activity.Store
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Feedback: feedbackstore.New(db),
		Pairs:    pairstore.New(db),
		Events:   eventstore.New(db),
		Activity: activity.New(db),
		Log:      logger,
	}
}
