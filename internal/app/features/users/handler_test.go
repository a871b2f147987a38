package users_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/pairup/internal/app/features/users"
	"github.com/dalemusser/pairup/internal/app/system/auth"
	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/dalemusser/pairup/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*users.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupIndexedDB(t)
	return users.NewHandler(db, zap.NewNop()), testutil.NewFixtures(t, db)
}

func TestHandleCreate(t *testing.T) {
	h, _ := newTestHandler(t)
	admin := testutil.AdminUser()

	body := map[string]string{
		"full_name": "Grace Hopper",
		"email":     "Grace@Example.com",
		"role":      models.RoleStudent,
		"password":  "a-long-password",
		"time_zone": "America/Chicago",
	}
	req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/", body), admin)
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var got models.User
	rec.DecodeJSON(t, &got)
	if got.Email != "grace@example.com" {
		t.Errorf("email should be folded: got %q", got.Email)
	}
	if got.Status != models.UserActive {
		t.Errorf("status: got %q", got.Status)
	}
	if rec.Body.String() == "" || strings.Contains(rec.Body.String(), "password") {
		t.Error("password hash must not be serialized")
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	stored, err := h.Users.GetByEmail(ctx, "grace@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if !auth.CheckPassword(stored.PasswordHash, "a-long-password") {
		t.Error("stored hash does not match password")
	}

	// Same email again.
	req = testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/", body), admin)
	rec = testutil.NewRecorder()
	h.HandleCreate(rec, req)
	rec.AssertStatus(t, http.StatusConflict)
	if code := rec.ErrorCode(t); code != "conflict" {
		t.Errorf("error code: got %q", code)
	}
}

func TestHandleCreate_Validation(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"bad role", map[string]string{"full_name": "X", "email": "x@example.com", "role": "owner", "password": "long-enough"}},
		{"short password", map[string]string{"full_name": "X", "email": "x@example.com", "role": "student", "password": "short"}},
		{"bad email", map[string]string{"full_name": "X", "email": "nope", "role": "student", "password": "long-enough"}},
		{"bad zone", map[string]string{"full_name": "X", "email": "x@example.com", "role": "student", "password": "long-enough", "time_zone": "Mars/Olympus"}},
		{"unknown field", map[string]string{"full_name": "X", "email": "x@example.com", "role": "student", "password": "long-enough", "nickname": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithUser(testutil.NewJSONRequest(t, http.MethodPost, "/", tt.body), testutil.AdminUser())
			rec := testutil.NewRecorder()
			h.HandleCreate(rec, req)
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestServeList_FiltersByRole(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateStudent(ctx, "Student One", "s1@example.com")
	fx.CreateStudent(ctx, "Student Two", "s2@example.com")
	fx.CreateCoordinator(ctx, "Coord", "c@example.com")

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/?role=student", testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Users []models.User `json:"users"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Users) != 2 {
		t.Fatalf("got %d users, want 2", len(body.Users))
	}
	for _, u := range body.Users {
		if u.Role != models.RoleStudent {
			t.Errorf("unexpected role %q", u.Role)
		}
	}
}

func TestServeView(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := fx.CreateStudent(ctx, "Student", "s@example.com")

	tests := []struct {
		name   string
		id     string
		status int
	}{
		{"found", s.ID.Hex(), http.StatusOK},
		{"missing", "64b7f0a1c2d3e4f5a6b7c8d9", http.StatusNotFound},
		{"malformed", "zzz", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewAuthenticatedRequest(http.MethodGet, "/"+tt.id, testutil.AdminUser())
			req = testutil.WithChiURLParam(req, "id", tt.id)
			rec := testutil.NewRecorder()
			h.ServeView(rec, req)
			rec.AssertStatus(t, tt.status)
		})
	}
}

func TestHandleEdit(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := fx.CreateStudent(ctx, "Student", "s@example.com")

	req := testutil.NewJSONRequest(t, http.MethodPatch, "/", map[string]string{"headline": "Backend engineer", "role": models.RoleCoordinator})
	req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.AdminUser()), "id", s.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleEdit(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var got models.User
	rec.DecodeJSON(t, &got)
	if got.Headline != "Backend engineer" || got.Role != models.RoleCoordinator {
		t.Errorf("update not applied: %+v", got)
	}
	if got.FullName != "Student" {
		t.Errorf("absent field changed: full_name=%q", got.FullName)
	}
}

func TestHandleEdit_SelfDemotionRejected(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := fx.CreateAdmin(ctx, "Admin", "a@example.com")

	req := testutil.NewJSONRequest(t, http.MethodPatch, "/", map[string]string{"role": models.RoleStudent})
	req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.AsTestUser(a)), "id", a.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleEdit(rec, req)
	rec.AssertStatus(t, http.StatusConflict)
}

func TestHandleDisable(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := fx.CreateStudent(ctx, "Student", "s@example.com")

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/", testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", s.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleDisable(rec, req)
	rec.AssertStatus(t, http.StatusNoContent)

	got, err := h.Users.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != models.UserDisabled {
		t.Errorf("status: got %q, want disabled", got.Status)
	}
}

