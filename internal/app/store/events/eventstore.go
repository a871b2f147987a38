// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/pairup/internal/app/system/normalize"
	"github.com/dalemusser/pairup/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/gosimple/slug"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	slugAttempts  = 5
	slugSuffixSet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	// ErrSlugExhausted is returned when no free slug was found for a name.
	ErrSlugExhausted = errors.New("could not allocate a unique event slug")
	errNameRequired  = errors.New("event name is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// Create inserts e with a slug derived from its name. On a slug collision a
// short random suffix is appended and the insert retried.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	e.Name = normalize.Name(e.Name)
	if e.Name == "" {
		return models.Event{}, errNameRequired
	}
	e.ID = primitive.NewObjectID()
	e.NameCI = text.Fold(e.Name)
	if e.ParticipantIDs == nil {
		e.ParticipantIDs = []primitive.ObjectID{}
	}
	if e.CoordinatorIDs == nil {
		e.CoordinatorIDs = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	base := slug.Make(e.Name)
	if base == "" {
		base = "event"
	}
	e.Slug = base
	for i := 0; i < slugAttempts; i++ {
		_, err := s.c.InsertOne(ctx, e)
		if err == nil {
			return e, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Event{}, err
		}
		suffix, err := gonanoid.Generate(slugSuffixSet, 6)
		if err != nil {
			return models.Event{}, err
		}
		e.Slug = base + "-" + suffix
	}
	return models.Event{}, ErrSlugExhausted
}

// GetByID loads an event. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetBySlug loads an event by slug. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetBySlug(ctx context.Context, sl string) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"slug": strings.ToLower(strings.TrimSpace(sl))}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns events matching filter, newest first. filter is usually a
// ViewScope event filter.
func (s *Store) List(ctx context.Context, filter bson.M, limit int64) ([]models.Event, error) {
	if filter == nil {
		filter = bson.M{}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CoordinatedEventIDs returns the ids of events userID coordinates.
func (s *Store) CoordinatedEventIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, bson.M{"coordinator_ids": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	ids := []primitive.ObjectID{}
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// Update holds the editable event fields. Nil fields are left unchanged.
type Update struct {
	Name           *string
	Description    *string
	StartsOn       *time.Time
	ParticipantIDs []primitive.ObjectID
	CoordinatorIDs []primitive.ObjectID
}

// Update applies upd and returns the updated event. The slug is kept.
// A new participant list takes effect on the next pairing run.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Event, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		if name == "" {
			return nil, errNameRequired
		}
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.StartsOn != nil {
		set["starts_on"] = upd.StartsOn.UTC()
	}
	if upd.ParticipantIDs != nil {
		set["participant_ids"] = upd.ParticipantIDs
	}
	if upd.CoordinatorIDs != nil {
		set["coordinator_ids"] = upd.CoordinatorIDs
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e models.Event
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// SetPairingNote records the outcome of the last background pairing run.
// An empty note clears it.
func (s *Store) SetPairingNote(ctx context.Context, id primitive.ObjectID, note string) error {
	update := bson.M{"$set": bson.M{"pairing_note": note}}
	if note == "" {
		update = bson.M{"$unset": bson.M{"pairing_note": ""}}
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
