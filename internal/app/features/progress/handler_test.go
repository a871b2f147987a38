package progress_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/dalemusser/pairup/internal/app/features/progress"
	progressstore "github.com/dalemusser/pairup/internal/app/store/progress"
	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/dalemusser/pairup/internal/testutil"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu   sync.Mutex
	seen []models.TopicProgress
}

func (p *recordingPublisher) TopicProgress(_ context.Context, tp models.TopicProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, tp)
}

type watchResult struct {
	Progress     models.TopicProgress `json:"progress"`
	CompletedNow bool                 `json:"completed_now"`
}

func watch(t *testing.T, h *progress.Handler, u models.User, topicID string, secs int) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]int{"watched_seconds": secs})
	req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.AsTestUser(u)), "id", topicID)
	rec := testutil.NewRecorder()
	h.HandleWatch(rec, req)
	return rec
}

func TestHandleWatch(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	pub := &recordingPublisher{}
	h := progress.NewHandler(db, pub, zap.NewNop())
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := fx.CreateStudent(ctx, "S", "s@example.com")
	c := fx.CreateCurriculum(ctx, "Arrays", 100, 200)
	topic := c.Topics[0].ID.Hex()

	steps := []struct {
		secs          int
		wantWatched   int
		wantCompleted bool
		wantNow       bool
	}{
		{50, 50, false, false},
		{30, 50, false, false}, // never lowered
		{95, 95, true, true},
		{100, 100, true, false},
	}
	for i, st := range steps {
		rec := watch(t, h, s, topic, st.secs)
		rec.AssertStatus(t, http.StatusOK)
		var got watchResult
		rec.DecodeJSON(t, &got)
		if got.Progress.WatchedSeconds != st.wantWatched || got.Progress.Completed != st.wantCompleted || got.CompletedNow != st.wantNow {
			t.Errorf("step %d: got watched=%d completed=%v now=%v", i, got.Progress.WatchedSeconds, got.Progress.Completed, got.CompletedNow)
		}
	}
	if len(pub.seen) != len(steps) {
		t.Errorf("published %d updates, want %d", len(pub.seen), len(steps))
	}

	watch(t, h, s, "64b7f0a1c2d3e4f5a6b7c8d9", 10).AssertStatus(t, http.StatusNotFound)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.AsTestUser(s))
	rec := testutil.NewRecorder()
	h.ServeSummary(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Subjects []progressstore.SubjectProgress `json:"subjects"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Subjects) != 1 || body.Subjects[0].Total != 2 || body.Subjects[0].Completed != 1 {
		t.Errorf("summary: got %+v", body.Subjects)
	}
}

func TestServeSummary_OtherUser(t *testing.T) {
	db := testutil.SetupIndexedDB(t)
	h := progress.NewHandler(db, nil, zap.NewNop())
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := fx.CreateStudent(ctx, "S", "s@example.com")
	other := fx.CreateStudent(ctx, "O", "o@example.com")

	tests := []struct {
		name   string
		user   testutil.TestUser
		status int
	}{
		{"student", testutil.AsTestUser(other), http.StatusForbidden},
		{"coordinator", testutil.CoordinatorUser(), http.StatusOK},
		{"admin", testutil.AdminUser(), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeTopics(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/topics?user_id="+s.ID.Hex(), tt.user))
			rec.AssertStatus(t, tt.status)
		})
	}
}
