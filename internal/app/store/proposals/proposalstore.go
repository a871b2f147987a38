// internal/app/store/proposals/proposalstore.go
package proposalstore

import (
	"context"
	"time"

	"github.com/dalemusser/pairup/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store keeps exactly one slot proposal per (pair_id, participant_id).
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("slot_proposals")}
}

// Upsert replaces the participant's candidates for the pair, creating the
// document on first use.
func (s *Store) Upsert(ctx context.Context, sp models.SlotProposal) (*models.SlotProposal, error) {
	now := time.Now().UTC()
	filter := bson.M{"pair_id": sp.PairID, "participant_id": sp.ParticipantID}
	update := bson.M{
		"$set": bson.M{
			"event_id":   sp.EventID,
			"candidates": sp.Candidates,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.SlotProposal
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if err != nil && wafflemongo.IsDup(err) {
		// Two first-time upserts raced on the unique index; the loser retries
		// as a plain update.
		err = s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns the participant's latest proposal for the pair.
// Returns mongo.ErrNoDocuments if they have not proposed.
func (s *Store) Get(ctx context.Context, pairID, participantID primitive.ObjectID) (*models.SlotProposal, error) {
	var sp models.SlotProposal
	err := s.c.FindOne(ctx, bson.M{"pair_id": pairID, "participant_id": participantID}).Decode(&sp)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// ListForPair returns both sides' proposals, if any.
func (s *Store) ListForPair(ctx context.Context, pairID primitive.ObjectID) ([]models.SlotProposal, error) {
	cur, err := s.c.Find(ctx, bson.M{"pair_id": pairID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.SlotProposal{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
