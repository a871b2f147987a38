// internal/app/store/activity/store.go
package activity

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event types for activity tracking.
const (
	EventLogin          = "login"           // User signed in
	EventPairsGenerated = "pairs_generated" // A coordinator or admin (re)generated an event's pairs
	EventPropose        = "propose"         // Participant proposed candidate slots
	EventConfirm        = "confirm"         // Participant confirmed a slot
	EventMeetingLink    = "meeting_link"    // Admin attached a meeting link
	EventFeedback       = "feedback"        // Participant submitted feedback
	EventTopicProgress  = "topic_progress"  // User watched part of a topic video
)

// Event represents a user activity event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`

	// What happened
	EventType string `bson:"event_type" json:"event_type"`

	// Context (varies by event type)
	EventID *primitive.ObjectID `bson:"event_id,omitempty" json:"event_id,omitempty"`
	PairID  *primitive.ObjectID `bson:"pair_id,omitempty" json:"pair_id,omitempty"`
	TopicID *primitive.ObjectID `bson:"topic_id,omitempty" json:"topic_id,omitempty"`
	Details map[string]any      `bson:"details,omitempty" json:"details,omitempty"`
}

// Store manages activity events.
type Store struct {
	c *mongo.Collection
}

// New creates a new activity Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activity_events")}
}

// Create records a new activity event.
func (s *Store) Create(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// RecordPairAction records an action a user took on a pair.
func (s *Store) RecordPairAction(ctx context.Context, userID primitive.ObjectID, eventType string, eventID, pairID primitive.ObjectID) error {
	return s.Create(ctx, Event{
		UserID:    userID,
		EventType: eventType,
		EventID:   &eventID,
		PairID:    &pairID,
	})
}

// RecordTopicProgress records a video-watch update.
func (s *Store) RecordTopicProgress(ctx context.Context, userID, topicID primitive.ObjectID, watched int, completed bool) error {
	return s.Create(ctx, Event{
		UserID:    userID,
		EventType: EventTopicProgress,
		TopicID:   &topicID,
		Details:   map[string]any{"watched_seconds": watched, "completed": completed},
	})
}

// GetByUser retrieves recent events for a user.
func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByUserInTimeRange counts events for a user in a time range.
func (s *Store) CountByUserInTimeRange(ctx context.Context, userID primitive.ObjectID, eventType string, start, end time.Time) (int64, error) {
	filter := bson.M{
		"user_id":    userID,
		"event_type": eventType,
		"timestamp": bson.M{
			"$gte": start,
			"$lte": end,
		},
	}
	return s.c.CountDocuments(ctx, filter)
}

// DayCount is the number of events of one type on one UTC day.
type DayCount struct {
	Day       string `bson:"day" json:"day"` // YYYY-MM-DD
	EventType string `bson:"event_type" json:"event_type"`
	Count     int64  `bson:"count" json:"count"`
}

// DailySummary returns per-day, per-type counts since the given time.
// When eventIDs is non-nil only events tied to those interview events are
// counted.
func (s *Store) DailySummary(ctx context.Context, since time.Time, eventIDs []primitive.ObjectID) ([]DayCount, error) {
	match := bson.M{"timestamp": bson.M{"$gte": since}}
	if eventIDs != nil {
		match["event_id"] = bson.M{"$in": eventIDs}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"day":  bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$timestamp"}},
				"type": "$event_type",
			},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":        0,
			"day":        "$_id.day",
			"event_type": "$_id.type",
			"count":      1,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "day", Value: 1}, {Key: "event_type", Value: 1}}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []DayCount{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
