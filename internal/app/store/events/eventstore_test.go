package eventstore_test

import (
	"strings"
	"testing"

	eventstore "github.com/dalemusser/pairup/internal/app/store/events"
	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/dalemusser/pairup/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_Slug(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.Create(ctx, models.Event{Name: "Spring Mock Interviews!"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.Slug != "spring-mock-interviews" {
		t.Errorf("Slug = %q", first.Slug)
	}
	if first.ParticipantIDs == nil || first.CoordinatorIDs == nil {
		t.Error("id lists must be stored as empty arrays, not null")
	}

	second, err := store.Create(ctx, models.Event{Name: "spring mock interviews"})
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if second.Slug == first.Slug || !strings.HasPrefix(second.Slug, "spring-mock-interviews-") {
		t.Errorf("expected suffixed slug, got %q", second.Slug)
	}

	got, err := store.GetBySlug(ctx, second.Slug)
	if err != nil || got.ID != second.ID {
		t.Errorf("GetBySlug = (%v, %v)", got, err)
	}

	if _, err := store.Create(ctx, models.Event{Name: "   "}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestStore_ListAndCoordinated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coord := primitive.NewObjectID()
	student := primitive.NewObjectID()
	e1 := fixtures.CreateEvent(ctx, "One", []primitive.ObjectID{student}, []primitive.ObjectID{coord})
	e2 := fixtures.CreateEvent(ctx, "Two", nil, []primitive.ObjectID{coord})
	fixtures.CreateEvent(ctx, "Three", nil, nil)

	ids, err := store.CoordinatedEventIDs(ctx, coord)
	if err != nil {
		t.Fatalf("CoordinatedEventIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d ids, want 2", len(ids))
	}
	seen := map[primitive.ObjectID]bool{ids[0]: true, ids[1]: true}
	if !seen[e1.ID] || !seen[e2.ID] {
		t.Errorf("unexpected ids %v", ids)
	}

	none, err := store.CoordinatedEventIDs(ctx, primitive.NewObjectID())
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %v (%v)", none, err)
	}

	all, err := store.List(ctx, nil, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d events, want 3", len(all))
	}

	mine, err := store.List(ctx, bson.M{"participant_ids": student}, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != e1.ID {
		t.Errorf("participant filter returned %v", mine)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := fixtures.CreateEvent(ctx, "Fall", nil, nil)
	roster := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}
	desc := "updated"

	got, err := store.Update(ctx, e.ID, eventstore.Update{Description: &desc, ParticipantIDs: roster})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Description != desc || len(got.ParticipantIDs) != 2 || got.ParticipantIDs[0] != roster[0] {
		t.Errorf("unexpected event after update: %+v", got)
	}
	if got.Slug != e.Slug {
		t.Error("slug must not change on update")
	}

	if _, err := store.Update(ctx, primitive.NewObjectID(), eventstore.Update{Description: &desc}); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_SetPairingNote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := eventstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := fixtures.CreateEvent(ctx, "Notes", nil, nil)
	if err := store.SetPairingNote(ctx, e.ID, "pairing failed: boom"); err != nil {
		t.Fatalf("SetPairingNote failed: %v", err)
	}
	got, _ := store.GetByID(ctx, e.ID)
	if got.PairingNote != "pairing failed: boom" {
		t.Errorf("PairingNote = %q", got.PairingNote)
	}
	if err := store.SetPairingNote(ctx, e.ID, ""); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	got, _ = store.GetByID(ctx, e.ID)
	if got.PairingNote != "" {
		t.Errorf("PairingNote = %q, want cleared", got.PairingNote)
	}
}
