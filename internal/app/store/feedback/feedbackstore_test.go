package feedbackstore_test

import (
	"errors"
	"testing"

	feedbackstore "github.com/dalemusser/pairup/internal/app/store/feedback"
	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/dalemusser/pairup/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateOncePerAuthor(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := feedbackstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pairID := primitive.NewObjectID()
	x, y := primitive.NewObjectID(), primitive.NewObjectID()

	fb, err := store.Create(ctx, models.Feedback{PairID: pairID, FromID: x, ToID: y, FromSide: models.SideInterviewer, Rating: 4})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if fb.ID.IsZero() || fb.CreatedAt.IsZero() {
		t.Error("expected ID and CreatedAt to be set")
	}

	_, err = store.Create(ctx, models.Feedback{PairID: pairID, FromID: x, ToID: y, Rating: 2})
	if !errors.Is(err, feedbackstore.ErrAlreadySubmitted) {
		t.Errorf("expected ErrAlreadySubmitted, got %v", err)
	}

	// The other side can still submit.
	if _, err := store.Create(ctx, models.Feedback{PairID: pairID, FromID: y, ToID: x, Rating: 5}); err != nil {
		t.Errorf("counterpart Create failed: %v", err)
	}
}

func TestStore_ListAndSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := feedbackstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ev := primitive.NewObjectID()
	x, y, z := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	p1, p2 := primitive.NewObjectID(), primitive.NewObjectID()
	for _, fb := range []models.Feedback{
		{PairID: p1, EventID: ev, FromID: x, ToID: y, Rating: 4},
		{PairID: p1, EventID: ev, FromID: y, ToID: x, Rating: 3},
		{PairID: p2, EventID: primitive.NewObjectID(), FromID: z, ToID: y, Rating: 5},
	} {
		if _, err := store.Create(ctx, fb); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	mine := bson.M{"$or": []bson.M{{"from_id": x}, {"to_id": x}}}
	tests := []struct {
		name  string
		scope bson.M
		f     feedbackstore.ListFilter
		want  int
	}{
		{"all", nil, feedbackstore.ListFilter{}, 3},
		{"scoped to x", mine, feedbackstore.ListFilter{}, 2},
		{"by pair", nil, feedbackstore.ListFilter{PairID: &p2}, 1},
		{"by event", nil, feedbackstore.ListFilter{EventID: &ev}, 2},
		{"received by y", nil, feedbackstore.ListFilter{ToID: &y}, 2},
		{"scope and pair", mine, feedbackstore.ListFilter{PairID: &p2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.scope, tt.f)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d, want %d", len(got), tt.want)
			}
		})
	}

	sum, err := store.SummaryFor(ctx, y)
	if err != nil {
		t.Fatalf("SummaryFor failed: %v", err)
	}
	if sum.Count != 2 || sum.Average != 4.5 {
		t.Errorf("SummaryFor = %+v, want count 2 avg 4.5", sum)
	}
	empty, err := store.SummaryFor(ctx, primitive.NewObjectID())
	if err != nil || empty.Count != 0 {
		t.Errorf("SummaryFor(unknown) = (%+v, %v)", empty, err)
	}
}
