// internal/domain/models/curriculum.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The curriculum is a four-level tree: Semester > Subject > Chapter > Topic.
// Each level points at its parent; Order sorts siblings.

type Semester struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Order     int                `bson:"order" json:"order"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type Subject struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	SemesterID primitive.ObjectID `bson:"semester_id" json:"semester_id"`
	Name       string             `bson:"name" json:"name"`
	Order      int                `bson:"order" json:"order"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

type Chapter struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	SubjectID primitive.ObjectID `bson:"subject_id" json:"subject_id"`
	Name      string             `bson:"name" json:"name"`
	Order     int                `bson:"order" json:"order"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Topic is the leaf: one video lesson. SubjectID is denormalized from the
// chapter so progress can be rolled up per subject without a lookup.
type Topic struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	ChapterID       primitive.ObjectID `bson:"chapter_id" json:"chapter_id"`
	SubjectID       primitive.ObjectID `bson:"subject_id" json:"subject_id"`
	Title           string             `bson:"title" json:"title"`
	VideoURL        string             `bson:"video_url" json:"video_url"`
	DurationSeconds int                `bson:"duration_seconds" json:"duration_seconds"`
	Order           int                `bson:"order" json:"order"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// TopicProgress tracks how much of a topic's video a user has watched.
// One document per (user_id, topic_id).
type TopicProgress struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	TopicID        primitive.ObjectID `bson:"topic_id" json:"topic_id"`
	SubjectID      primitive.ObjectID `bson:"subject_id" json:"subject_id"`
	WatchedSeconds int                `bson:"watched_seconds" json:"watched_seconds"`
	Completed      bool               `bson:"completed" json:"completed"`
	CompletedAt    *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
