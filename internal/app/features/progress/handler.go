// internal/app/features/progress/handler.go
package progress

import (
	"context"

	"github.com/dalemusser/pairup/internal/app/store/activity"
	curriculumstore "github.com/dalemusser/pairup/internal/app/store/curriculum"
	eventstore "github.com/dalemusser/pairup/internal/app/store/events"
	progressstore "github.com/dalemusser/pairup/internal/app/store/progress"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Publisher pushes progress changes to the learner's open sessions.
type Publisher interface {
	TopicProgress(ctx context.Context, p models.TopicProgress)
}

type Handler struct {
	Progress   *progressstore.Store
	Curriculum *curriculumstore.Store
	Events     *eventstore.Store
	Activity   *activity.Store
	Publisher  Publisher
	Log        *zap.Logger
}

// NewHandler constructs a progress Handler. pub may be nil.
func NewHandler(db *mongo.Database, pub Publisher, logger *zap.Logger) *Handler {
	return &Handler{
		Progress:   progressstore.New(db),
		Curriculum: curriculumstore.New(db),
		Events:     eventstore.New(db),
		Activity:   activity.New(db),
		Publisher:  pub,
		Log:        logger,
	}
}
