package activity_test

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/pairup/internal/app/features/activity"
	activitystore "github.com/dalemusser/pairup/internal/app/store/activity"
	"github.com/dalemusser/pairup/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*activity.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return activity.NewHandler(db, zap.NewNop()), testutil.NewFixtures(t, db)
}

type summaryBody struct {
	Days   int                      `json:"days"`
	Counts []activitystore.DayCount `json:"counts"`
	Totals map[string]int64         `json:"totals"`
}

func TestServeSummary_Scoped(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coord := fx.CreateCoordinator(ctx, "Coord", "c@example.com")
	a := fx.CreateStudent(ctx, "A", "a@example.com")
	mine := fx.CreateEvent(ctx, "Mine", []primitive.ObjectID{a.ID}, []primitive.ObjectID{coord.ID})
	other := fx.CreateEvent(ctx, "Other", nil, nil)

	for _, ev := range []primitive.ObjectID{mine.ID, mine.ID, other.ID} {
		if err := h.Activity.RecordPairAction(ctx, a.ID, activitystore.EventPropose, ev, primitive.NewObjectID()); err != nil {
			t.Fatalf("RecordPairAction: %v", err)
		}
	}
	if err := h.Activity.Create(ctx, activitystore.Event{UserID: a.ID, EventType: activitystore.EventLogin}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Outside the default window.
	if err := h.Activity.Create(ctx, activitystore.Event{UserID: a.ID, EventType: activitystore.EventPropose, EventID: &mine.ID, Timestamp: time.Now().AddDate(0, 0, -30)}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		name        string
		user        testutil.TestUser
		wantPropose int64
		wantLogin   int64
	}{
		{"admin sees all", testutil.AdminUser(), 3, 1},
		{"coordinator sees own events", testutil.AsTestUser(coord), 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeSummary(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/summary", tt.user))
			rec.AssertStatus(t, http.StatusOK)
			var body summaryBody
			rec.DecodeJSON(t, &body)
			if body.Days != 7 {
				t.Errorf("days: got %d, want 7", body.Days)
			}
			if body.Totals[activitystore.EventPropose] != tt.wantPropose || body.Totals[activitystore.EventLogin] != tt.wantLogin {
				t.Errorf("totals: got %v", body.Totals)
			}
		})
	}

	rec := testutil.NewRecorder()
	h.ServeSummary(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/summary", testutil.AsTestUser(a)))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeSummary_CoordinatorWithoutEvents(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateStudent(ctx, "A", "a@example.com")
	e := fx.CreateEvent(ctx, "E", nil, nil)
	if err := h.Activity.RecordPairAction(ctx, a.ID, activitystore.EventConfirm, e.ID, primitive.NewObjectID()); err != nil {
		t.Fatalf("RecordPairAction: %v", err)
	}

	rec := testutil.NewRecorder()
	h.ServeSummary(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/summary?days=30", testutil.CoordinatorUser()))
	rec.AssertStatus(t, http.StatusOK)
	var body summaryBody
	rec.DecodeJSON(t, &body)
	if len(body.Counts) != 0 {
		t.Errorf("coordinator without events should see nothing, got %v", body.Counts)
	}
}

func TestServeSummaryCSV(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := fx.CreateStudent(ctx, "A", "a@example.com")
	if err := h.Activity.Create(ctx, activitystore.Event{UserID: a.ID, EventType: activitystore.EventLogin}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := testutil.NewRecorder()
	h.ServeSummaryCSV(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/summary.csv", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type: got %q", ct)
	}
	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "day" || rows[1][1] != activitystore.EventLogin || rows[1][2] != "1" {
		t.Errorf("unexpected csv: %v", rows)
	}
}

func TestServeUser(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := fx.CreateStudent(ctx, "A", "a@example.com")
	for i := 0; i < 3; i++ {
		if err := h.Activity.Create(ctx, activitystore.Event{UserID: a.ID, EventType: activitystore.EventLogin}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(http.MethodGet, "/users/x?limit=2", testutil.AdminUser()), "id", a.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeUser(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Events []activitystore.Event `json:"events"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Events) != 2 {
		t.Errorf("got %d events, want 2", len(body.Events))
	}
}
