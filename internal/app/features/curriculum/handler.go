// internal/app/features/curriculum/handler.go
package curriculum

import (
	curriculumstore "github.com/dalemusser/pairup/internal/app/store/curriculum"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the curriculum tree and its admin editing endpoints.
type Handler struct {
	Store *curriculumstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Store: curriculumstore.New(db), Log: logger}
}
