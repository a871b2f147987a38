// internal/app/store/pairs/pairstore.go
package pairstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errBadSide = errors.New("side must be interviewer or interviewee")

// Store persists pairs. Every write touches one document and is atomic on
// its own; there is no locking across documents.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("pairs")}
}

// GetByID loads a pair. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Pair, error) {
	var p models.Pair
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListFilter narrows List on top of the caller's scope filter.
type ListFilter struct {
	EventID *primitive.ObjectID
	Status  string
	Limit   int64
}

// List returns pairs matching scope and f, newest first.
func (s *Store) List(ctx context.Context, scope bson.M, f ListFilter) ([]models.Pair, error) {
	filter := bson.M{}
	for k, v := range scope {
		filter[k] = v
	}
	if f.EventID != nil {
		filter = bson.M{"$and": []bson.M{filter, {"event_id": *f.EventID}}}
	}
	if f.Status != "" {
		filter = bson.M{"$and": []bson.M{filter, {"status": f.Status}}}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Pair{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) findAndSet(ctx context.Context, filter, update bson.M) (*models.Pair, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Pair
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// RecordProposal bumps the proposing side's counter and moves the current
// proposed time.
func (s *Store) RecordProposal(ctx context.Context, id primitive.ObjectID, side models.Side, proposed time.Time) (*models.Pair, error) {
	var counter string
	switch side {
	case models.SideInterviewer:
		counter = "interviewer_proposals"
	case models.SideInterviewee:
		counter = "interviewee_proposals"
	default:
		return nil, errBadSide
	}
	return s.findAndSet(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{counter: 1},
		"$set": bson.M{
			"current_proposed_time": proposed,
			"updated_at":            time.Now().UTC(),
		},
	})
}

// Confirm schedules the pair at at. It is unconditional: a later confirm
// overwrites an earlier one and re-arms the reminder. An empty link keeps
// whatever link the pair already has.
func (s *Store) Confirm(ctx context.Context, id, by primitive.ObjectID, at time.Time, link string) (*models.Pair, error) {
	set := bson.M{
		"scheduled_at":          at,
		"current_proposed_time": at,
		"status":                models.PairScheduled,
		"confirmed_by_id":       by,
		"updated_at":            time.Now().UTC(),
	}
	if link != "" {
		set["meeting_link"] = link
	}
	return s.findAndSet(ctx, bson.M{"_id": id}, bson.M{
		"$set":   set,
		"$unset": bson.M{"reminder_sent_at": "", "completed_at": ""},
	})
}

// SetMeetingLink replaces the pair's meeting link.
func (s *Store) SetMeetingLink(ctx context.Context, id primitive.ObjectID, link string) (*models.Pair, error) {
	return s.findAndSet(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"meeting_link": link,
		"updated_at":   time.Now().UTC(),
	}})
}

// UpcomingScheduled returns scheduled pairs starting in [from, to] that still
// need a reminder or a meeting link.
func (s *Store) UpcomingScheduled(ctx context.Context, from, to time.Time) ([]models.Pair, error) {
	filter := bson.M{
		"status":       models.PairScheduled,
		"scheduled_at": bson.M{"$gte": from, "$lte": to},
		"$or": []bson.M{
			{"reminder_sent_at": nil},
			{"meeting_link": bson.M{"$in": bson.A{nil, ""}}},
		},
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Pair
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetMeetingLinkIfEmpty sets link only when the pair has none.
func (s *Store) SetMeetingLinkIfEmpty(ctx context.Context, id primitive.ObjectID, link string) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "meeting_link": bson.M{"$in": bson.A{nil, ""}}},
		bson.M{"$set": bson.M{"meeting_link": link, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// MarkReminded records the reminder unless one was already recorded.
func (s *Store) MarkReminded(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "reminder_sent_at": nil},
		bson.M{"$set": bson.M{"reminder_sent_at": at}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// CompleteStartedBefore moves scheduled pairs that started before cutoff to
// completed.
func (s *Store) CompleteStartedBefore(ctx context.Context, cutoff, at time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.PairScheduled, "scheduled_at": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{
			"status":       models.PairCompleted,
			"completed_at": at,
			"updated_at":   at,
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// StatusCounts returns the number of pairs per status among those matching scope.
func (s *Store) StatusCounts(ctx context.Context, scope bson.M) (map[string]int64, error) {
	if scope == nil {
		scope = bson.M{}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: scope}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]int64{}
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.N
	}
	return out, cur.Err()
}
