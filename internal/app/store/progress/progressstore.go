// internal/app/store/progress/progressstore.go
package progressstore

import (
	"context"
	"time"

	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CompletionPercent is the share of a video that must be watched for the
// topic to count as completed.
const CompletionPercent = 90

type Store struct {
	c  *mongo.Collection
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("topic_progress"), db: db}
}

// Completes reports whether watched seconds complete a topic of the given length.
func Completes(watched, duration int) bool {
	if duration <= 0 {
		return watched > 0
	}
	return watched*100 >= duration*CompletionPercent
}

// RecordWatch raises the user's watched seconds for topic to at least
// watched (never lowers it) and marks the topic completed once the
// threshold is reached. Completion is never undone. changed reports
// whether the completion flag flipped on this call.
func (s *Store) RecordWatch(ctx context.Context, userID primitive.ObjectID, topic models.Topic, watched int, at time.Time) (p models.TopicProgress, changed bool, err error) {
	if watched < 0 {
		watched = 0
	}
	if topic.DurationSeconds > 0 && watched > topic.DurationSeconds {
		watched = topic.DurationSeconds
	}

	filter := bson.M{"user_id": userID, "topic_id": topic.ID}
	update := bson.M{
		"$max": bson.M{"watched_seconds": watched},
		"$set": bson.M{"subject_id": topic.SubjectID, "updated_at": at},
		"$setOnInsert": bson.M{
			"completed": false,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err = s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		err = s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	}
	if err != nil {
		return models.TopicProgress{}, false, err
	}

	if p.Completed || !Completes(p.WatchedSeconds, topic.DurationSeconds) {
		return p, false, nil
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": p.ID, "completed": false},
		bson.M{"$set": bson.M{"completed": true, "completed_at": at}},
	)
	if err != nil {
		return models.TopicProgress{}, false, err
	}
	p.Completed = true
	p.CompletedAt = &at
	return p, res.ModifiedCount > 0, nil
}

// ForUser returns every progress record of the user.
func (s *Store) ForUser(ctx context.Context, userID primitive.ObjectID) ([]models.TopicProgress, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.TopicProgress{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubjectProgress is one row of a user's per-subject completion summary.
type SubjectProgress struct {
	SubjectID primitive.ObjectID `bson:"_id" json:"subject_id"`
	Name      string             `bson:"name" json:"name"`
	Total     int                `bson:"total" json:"total_topics"`
	Completed int                `bson:"completed" json:"completed_topics"`
	Percent   float64            `bson:"-" json:"percent"`
}

// Summary returns, for every subject with topics, how many of its topics
// the user completed.
func (s *Store) Summary(ctx context.Context, userID primitive.ObjectID) ([]SubjectProgress, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":       "$subject_id",
			"total":     bson.M{"$sum": 1},
			"topic_ids": bson.M{"$push": "$_id"},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from": "topic_progress",
			"let":  bson.M{"ids": "$topic_ids"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$user_id", userID}},
					bson.M{"$eq": bson.A{"$completed", true}},
					bson.M{"$in": bson.A{"$topic_id", "$$ids"}},
				}}}},
				bson.M{"$project": bson.M{"_id": 1}},
			},
			"as": "done",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "subjects",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "subject",
		}}},
		{{Key: "$project", Value: bson.M{
			"total":     1,
			"completed": bson.M{"$size": "$done"},
			"name":      bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$subject.name", 0}}, ""}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}}},
	}

	cur, err := s.db.Collection("topics").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []SubjectProgress{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Total > 0 {
			out[i].Percent = float64(out[i].Completed) * 100 / float64(out[i].Total)
		}
	}
	return out, nil
}
