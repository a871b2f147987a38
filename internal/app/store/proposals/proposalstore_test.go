package proposalstore_test

import (
	"testing"
	"time"

	proposalstore "github.com/dalemusser/pairup/internal/app/store/proposals"
	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/dalemusser/pairup/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_UpsertReplaces(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	store := proposalstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pairID, eventID, user := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	t1 := time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(24 * time.Hour)

	first, err := store.Upsert(ctx, models.SlotProposal{PairID: pairID, EventID: eventID, ParticipantID: user, Candidates: []time.Time{t1, t2}})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	second, err := store.Upsert(ctx, models.SlotProposal{PairID: pairID, EventID: eventID, ParticipantID: user, Candidates: []time.Time{t3}})
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	if second.ID != first.ID {
		t.Error("upsert must keep a single document per participant")
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("created_at must survive a replace")
	}
	if len(second.Candidates) != 1 || !second.Candidates[0].Equal(t3) {
		t.Errorf("Candidates = %v, want [%v]", second.Candidates, t3)
	}

	got, err := store.Get(ctx, pairID, user)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Candidates) != 1 {
		t.Errorf("stored candidates = %v", got.Candidates)
	}
}

func TestStore_GetAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := proposalstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pairID := primitive.NewObjectID()
	x, y := primitive.NewObjectID(), primitive.NewObjectID()
	at := []time.Time{time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)}

	if _, err := store.Get(ctx, pairID, x); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
	for _, id := range []primitive.ObjectID{x, y} {
		if _, err := store.Upsert(ctx, models.SlotProposal{PairID: pairID, ParticipantID: id, Candidates: at}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}
	if _, err := store.Upsert(ctx, models.SlotProposal{PairID: primitive.NewObjectID(), ParticipantID: x, Candidates: at}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	list, err := store.ListForPair(ctx, pairID)
	if err != nil {
		t.Fatalf("ListForPair failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("got %d proposals, want 2", len(list))
	}
}
