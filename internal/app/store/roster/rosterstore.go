// internal/app/store/roster/rosterstore.go
package rosterstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/pairup/internal/app/system/txn"
	"github.com/dalemusser/pairup/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrRoundConflict is returned when another run already wrote pairs for
// the same event round.
var ErrRoundConflict = errors.New("pairs for this round were generated concurrently")

// Store replaces an event's roster: its pairs, their slot proposals and the
// event's round counter.
type Store struct {
	client    *mongo.Client
	events    *mongo.Collection
	pairs     *mongo.Collection
	proposals *mongo.Collection
	log       *zap.Logger
}

func New(client *mongo.Client, db *mongo.Database, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		client:    client,
		events:    db.Collection("events"),
		pairs:     db.Collection("pairs"),
		proposals: db.Collection("slot_proposals"),
		log:       log,
	}
}

// ReplaceRoster makes pairs (all of round) the event's only pairs and
// proposals the only slot proposals.
//
// With transaction support the swap is atomic. Without it the same steps run
// in order: insert the new round, delete everything else for the event, bump
// the event. A crash between steps leaves both rounds visible until the next
// regeneration, which deletes every round but its own.
func (s *Store) ReplaceRoster(ctx context.Context, eventID primitive.ObjectID, round int, pairs []models.Pair, proposals []models.SlotProposal) error {
	steps := func(ctx context.Context) error {
		return s.replace(ctx, eventID, round, pairs, proposals)
	}
	transactional, err := txn.RunOrFallback(ctx, s.client, steps, steps)
	if wafflemongo.IsDup(err) || mongo.IsDuplicateKeyError(err) {
		return ErrRoundConflict
	}
	if err != nil {
		return err
	}
	if !transactional {
		s.log.Debug("roster replaced without transaction",
			zap.String("event_id", eventID.Hex()),
			zap.Int("round", round))
	}
	return nil
}

func (s *Store) replace(ctx context.Context, eventID primitive.ObjectID, round int, pairs []models.Pair, proposals []models.SlotProposal) error {
	if len(pairs) > 0 {
		docs := make([]any, len(pairs))
		for i := range pairs {
			docs[i] = pairs[i]
		}
		if _, err := s.pairs.InsertMany(ctx, docs); err != nil {
			return err
		}
	}
	if len(proposals) > 0 {
		docs := make([]any, len(proposals))
		for i := range proposals {
			docs[i] = proposals[i]
		}
		if _, err := s.proposals.InsertMany(ctx, docs); err != nil {
			return err
		}
	}

	keep := make([]primitive.ObjectID, 0, len(pairs))
	for _, p := range pairs {
		keep = append(keep, p.ID)
	}
	if _, err := s.pairs.DeleteMany(ctx, bson.M{"event_id": eventID, "_id": bson.M{"$nin": keep}}); err != nil {
		return err
	}
	if _, err := s.proposals.DeleteMany(ctx, bson.M{"event_id": eventID, "pair_id": bson.M{"$nin": keep}}); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := s.events.UpdateOne(ctx, bson.M{"_id": eventID}, bson.M{
		"$set":   bson.M{"round": round, "paired_at": now, "updated_at": now},
		"$unset": bson.M{"pairing_note": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
