// internal/domain/models/feedback.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Feedback is what one side of a pair writes about the other after the
// interview. One document per (pair_id, from_id).
type Feedback struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PairID       primitive.ObjectID `bson:"pair_id" json:"pair_id"`
	EventID      primitive.ObjectID `bson:"event_id" json:"event_id"`
	FromID       primitive.ObjectID `bson:"from_id" json:"from_id"`
	ToID         primitive.ObjectID `bson:"to_id" json:"to_id"`
	FromSide     Side               `bson:"from_side" json:"from_side"`
	Rating       int                `bson:"rating" json:"rating"` // 1..5
	Strengths    string             `bson:"strengths" json:"strengths"`
	Improvements string             `bson:"improvements" json:"improvements"`
	Comments     string             `bson:"comments" json:"comments"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
