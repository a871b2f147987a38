// internal/app/store/feedback/feedbackstore.go
package feedbackstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/pairup/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrAlreadySubmitted is returned when the author already left feedback on the pair.
var ErrAlreadySubmitted = errors.New("feedback for this pair was already submitted")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("feedback")}
}

// Create inserts fb. The unique (pair_id, from_id) index enforces one
// feedback per author per pair.
func (s *Store) Create(ctx context.Context, fb models.Feedback) (models.Feedback, error) {
	fb.ID = primitive.NewObjectID()
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, fb); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Feedback{}, ErrAlreadySubmitted
		}
		return models.Feedback{}, err
	}
	return fb, nil
}

// ListFilter narrows List on top of the caller's scope filter.
type ListFilter struct {
	PairID  *primitive.ObjectID
	EventID *primitive.ObjectID
	ToID    *primitive.ObjectID
	Limit   int64
}

// List returns feedback matching scope and f, newest first.
func (s *Store) List(ctx context.Context, scope bson.M, f ListFilter) ([]models.Feedback, error) {
	and := []bson.M{}
	if len(scope) > 0 {
		and = append(and, scope)
	}
	if f.PairID != nil {
		and = append(and, bson.M{"pair_id": *f.PairID})
	}
	if f.EventID != nil {
		and = append(and, bson.M{"event_id": *f.EventID})
	}
	if f.ToID != nil {
		and = append(and, bson.M{"to_id": *f.ToID})
	}
	filter := bson.M{}
	if len(and) > 0 {
		filter = bson.M{"$and": and}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Feedback{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RatingSummary aggregates ratings received by one user.
type RatingSummary struct {
	Count   int64   `bson:"count" json:"count"`
	Average float64 `bson:"average" json:"average"`
}

// SummaryFor returns how many ratings toID received and their mean.
func (s *Store) SummaryFor(ctx context.Context, toID primitive.ObjectID) (RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"to_id": toID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"count":   bson.M{"$sum": 1},
			"average": bson.M{"$avg": "$rating"},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return RatingSummary{}, err
	}
	defer cur.Close(ctx)

	var out RatingSummary
	if cur.Next(ctx) {
		if err := cur.Decode(&out); err != nil {
			return RatingSummary{}, err
		}
	}
	return out, cur.Err()
}
