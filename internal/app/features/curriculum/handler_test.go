package curriculum_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/pairup/internal/app/features/curriculum"
	curriculumstore "github.com/dalemusser/pairup/internal/app/store/curriculum"
	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/dalemusser/pairup/internal/testutil"
	"go.uber.org/zap"
)

func create(t *testing.T, h *curriculum.Handler, level string, body map[string]any) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/"+level, body), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "level", level)
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, req)
	return rec
}

func TestCreateAndTree(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := curriculum.NewHandler(db, zap.NewNop())

	rec := create(t, h, "semesters", map[string]any{"name": "Semester 1", "order": 1})
	rec.AssertStatus(t, http.StatusCreated)
	var sem models.Semester
	rec.DecodeJSON(t, &sem)

	rec = create(t, h, "subjects", map[string]any{"name": "Data Structures", "parent_id": sem.ID.Hex()})
	rec.AssertStatus(t, http.StatusCreated)
	var sub models.Subject
	rec.DecodeJSON(t, &sub)

	rec = create(t, h, "chapters", map[string]any{"name": "Trees", "parent_id": sub.ID.Hex()})
	rec.AssertStatus(t, http.StatusCreated)
	var ch models.Chapter
	rec.DecodeJSON(t, &ch)

	rec = create(t, h, "topics", map[string]any{
		"name": "Binary search trees", "parent_id": ch.ID.Hex(),
		"video_url": "https://videos.example/bst", "duration_seconds": 600,
	})
	rec.AssertStatus(t, http.StatusCreated)
	var topic models.Topic
	rec.DecodeJSON(t, &topic)
	if topic.SubjectID != sub.ID {
		t.Errorf("topic subject: got %s, want %s", topic.SubjectID.Hex(), sub.ID.Hex())
	}

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/", testutil.StudentUser())
	rec = testutil.NewRecorder()
	h.ServeTree(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Semesters []curriculumstore.TreeSemester `json:"semesters"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Semesters) != 1 || len(body.Semesters[0].Subjects) != 1 ||
		len(body.Semesters[0].Subjects[0].Chapters) != 1 ||
		len(body.Semesters[0].Subjects[0].Chapters[0].Topics) != 1 {
		t.Fatalf("unexpected tree shape: %+v", body.Semesters)
	}

	// The semester still has children.
	req = testutil.NewAuthenticatedRequest(http.MethodDelete, "/", testutil.AdminUser())
	req = testutil.WithChiURLParam(testutil.WithChiURLParam(req, "level", "semesters"), "id", sem.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleDelete(rec, req)
	rec.AssertStatus(t, http.StatusConflict)
}

func TestHandleCreate_Errors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := curriculum.NewHandler(db, zap.NewNop())

	tests := []struct {
		name   string
		level  string
		body   map[string]any
		status int
	}{
		{"unknown level", "lessons", map[string]any{"name": "x"}, http.StatusNotFound},
		{"missing parent", "subjects", map[string]any{"name": "x"}, http.StatusBadRequest},
		{"parent does not exist", "chapters", map[string]any{"name": "x", "parent_id": "64b7f0a1c2d3e4f5a6b7c8d9"}, http.StatusBadRequest},
		{"blank name", "semesters", map[string]any{"name": "   "}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			create(t, h, tt.level, tt.body).AssertStatus(t, tt.status)
		})
	}
}

func TestHandleEdit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := curriculum.NewHandler(db, zap.NewNop())
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	c := fx.CreateCurriculum(ctx, "Graphs", 300)

	req := testutil.NewJSONRequest(t, http.MethodPatch, "/", map[string]any{"duration_seconds": 900})
	req = testutil.WithChiURLParam(testutil.WithChiURLParam(testutil.WithUser(req, testutil.AdminUser()), "level", "topics"), "id", c.Topics[0].ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleEdit(rec, req)
	rec.AssertStatus(t, http.StatusNoContent)

	got, err := h.Store.GetTopic(ctx, c.Topics[0].ID)
	if err != nil {
		t.Fatalf("GetTopic: %v", err)
	}
	if got.DurationSeconds != 900 {
		t.Errorf("duration: got %d, want 900", got.DurationSeconds)
	}
}
