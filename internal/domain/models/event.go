// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is a recruiting/mock-interview event. ParticipantIDs is the ordered
// roster handed to the pairing generator; it is frozen for a round once pairs
// have been generated.
type Event struct {
	ID             primitive.ObjectID   `bson:"_id" json:"id"`
	Name           string               `bson:"name" json:"name"`
	NameCI         string               `bson:"name_ci" json:"-"`
	Slug           string               `bson:"slug" json:"slug"`
	Description    string               `bson:"description" json:"description"`
	StartsOn       *time.Time           `bson:"starts_on,omitempty" json:"starts_on,omitempty"`
	ParticipantIDs []primitive.ObjectID `bson:"participant_ids" json:"participant_ids"`
	CoordinatorIDs []primitive.ObjectID `bson:"coordinator_ids" json:"coordinator_ids"`

	// Round is incremented each time pairs are (re)generated.
	Round       int        `bson:"round" json:"round"`
	PairedAt    *time.Time `bson:"paired_at,omitempty" json:"paired_at,omitempty"`
	PairingNote string     `bson:"pairing_note,omitempty" json:"pairing_note,omitempty"`

	CreatedByID primitive.ObjectID `bson:"created_by_id" json:"created_by_id"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// HasCoordinator reports whether userID coordinates this event.
func (e Event) HasCoordinator(userID primitive.ObjectID) bool {
	for _, id := range e.CoordinatorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HasParticipant reports whether userID is on the event roster.
func (e Event) HasParticipant(userID primitive.ObjectID) bool {
	for _, id := range e.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}
