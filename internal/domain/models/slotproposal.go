// internal/domain/models/slotproposal.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SlotProposal is one participant's current set of candidate times for a pair.
// Exactly one document per (pair_id, participant_id); a new proposal replaces
// the candidates of the previous one.
type SlotProposal struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PairID        primitive.ObjectID `bson:"pair_id" json:"pair_id"`
	EventID       primitive.ObjectID `bson:"event_id" json:"event_id"`
	ParticipantID primitive.ObjectID `bson:"participant_id" json:"participant_id"`
	Candidates    []time.Time        `bson:"candidates" json:"candidates"` // ascending, unique
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
