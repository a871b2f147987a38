package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

// CreateUser creates an active test user. passwordHash may be empty.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role, passwordHash string) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		FullName:     fullName,
		FullNameCI:   text.Fold(fullName),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       models.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateStudent creates an active student.
func (f *Fixtures) CreateStudent(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleStudent, "")
}

// CreateCoordinator creates an active coordinator.
func (f *Fixtures) CreateCoordinator(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleCoordinator, "")
}

// CreateAdmin creates an active admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleAdmin, "")
}

// CreateDisabledUser creates a disabled student.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		Role:       models.RoleStudent,
		Status:     models.UserDisabled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateEvent creates an event with the given roster and coordinators.
func (f *Fixtures) CreateEvent(ctx context.Context, name string, participants, coordinators []primitive.ObjectID) models.Event {
	f.t.Helper()
	now := time.Now().UTC()
	e := models.Event{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         text.Fold(name),
		Slug:           slug.Make(name) + "-" + primitive.NewObjectID().Hex()[18:],
		ParticipantIDs: participants,
		CoordinatorIDs: coordinators,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if e.ParticipantIDs == nil {
		e.ParticipantIDs = []primitive.ObjectID{}
	}
	if e.CoordinatorIDs == nil {
		e.CoordinatorIDs = []primitive.ObjectID{}
	}
	f.insert(ctx, "events", e)
	return e
}

// CreatePair creates a pending round-1 pair whose default slot is slot.
func (f *Fixtures) CreatePair(ctx context.Context, eventID, interviewer, interviewee primitive.ObjectID, slot time.Time) models.Pair {
	f.t.Helper()
	now := time.Now().UTC()
	slot = slot.UTC().Truncate(time.Millisecond)
	p := models.Pair{
		ID:                  primitive.NewObjectID(),
		EventID:             eventID,
		Round:               1,
		InterviewerID:       interviewer,
		IntervieweeID:       interviewee,
		DefaultTimeSlot:     slot,
		CurrentProposedTime: slot,
		Status:              models.PairPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	f.insert(ctx, "pairs", p)
	return p
}

// CreateScheduledPair creates a pair already confirmed at at.
func (f *Fixtures) CreateScheduledPair(ctx context.Context, eventID, interviewer, interviewee primitive.ObjectID, at time.Time) models.Pair {
	f.t.Helper()
	now := time.Now().UTC()
	at = at.UTC().Truncate(time.Millisecond)
	p := models.Pair{
		ID:                  primitive.NewObjectID(),
		EventID:             eventID,
		Round:               1,
		InterviewerID:       interviewer,
		IntervieweeID:       interviewee,
		DefaultTimeSlot:     at,
		CurrentProposedTime: at,
		ScheduledAt:         &at,
		Status:              models.PairScheduled,
		ConfirmedByID:       &interviewer,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	f.insert(ctx, "pairs", p)
	return p
}

// Curriculum is a one-branch curriculum tree.
type Curriculum struct {
	Semester models.Semester
	Subject  models.Subject
	Chapter  models.Chapter
	Topics   []models.Topic
}

// CreateCurriculum creates one semester, subject and chapter holding one
// topic per duration (seconds).
func (f *Fixtures) CreateCurriculum(ctx context.Context, subjectName string, durations ...int) Curriculum {
	f.t.Helper()
	now := time.Now().UTC()
	c := Curriculum{
		Semester: models.Semester{ID: primitive.NewObjectID(), Name: "Semester 1", Order: 1, CreatedAt: now, UpdatedAt: now},
	}
	c.Subject = models.Subject{ID: primitive.NewObjectID(), SemesterID: c.Semester.ID, Name: subjectName, Order: 1, CreatedAt: now, UpdatedAt: now}
	c.Chapter = models.Chapter{ID: primitive.NewObjectID(), SubjectID: c.Subject.ID, Name: "Chapter 1", Order: 1, CreatedAt: now, UpdatedAt: now}
	f.insert(ctx, "semesters", c.Semester)
	f.insert(ctx, "subjects", c.Subject)
	f.insert(ctx, "chapters", c.Chapter)
	for i, d := range durations {
		tp := models.Topic{
			ID:              primitive.NewObjectID(),
			ChapterID:       c.Chapter.ID,
			SubjectID:       c.Subject.ID,
			Title:           subjectName + " topic",
			VideoURL:        "https://videos.example/t",
			DurationSeconds: d,
			Order:           i + 1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		f.insert(ctx, "topics", tp)
		c.Topics = append(c.Topics, tp)
	}
	return c
}
