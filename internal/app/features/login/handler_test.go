package login_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/pairup/internal/app/features/login"
	"github.com/dalemusser/pairup/internal/app/store/activity"
	"github.com/dalemusser/pairup/internal/app/system/ratelimit"
	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/dalemusser/pairup/internal/testutil"
	"go.uber.org/zap"
)

const password = "correct-horse-battery"

func newTestHandler(t *testing.T) (*login.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	am := testutil.NewAuthManager(t, db)
	limiter := ratelimit.NewLoginLimiter(ratelimit.Config{IPLimit: 100, EmailLimit: 3, EmailWindow: time.Hour})
	return login.NewHandler(db, am, limiter, zap.NewNop()), testutil.NewFixtures(t, db)
}

func post(t *testing.T, h *login.Handler, email, pw string) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/login", map[string]string{"email": email, "password": pw})
	rec := testutil.NewRecorder()
	h.HandleLogin(rec, req)
	return rec
}

func TestHandleLogin_Success(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fx.CreateUser(ctx, "Ada Lovelace", "ada@example.com", models.RoleStudent, testutil.HashPassword(t, password))

	rec := post(t, h, "ADA@example.com", password)
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	rec.DecodeJSON(t, &body)
	if body.User.ID != u.ID {
		t.Errorf("user id: got %s, want %s", body.User.ID.Hex(), u.ID.Hex())
	}
	if body.Token == "" {
		t.Error("expected a token in the body")
	}

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "pairup_test" && c.Value == body.Token && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Error("expected HttpOnly session cookie carrying the token")
	}

	claims, err := h.Auth.Tokens.Parse(body.Token)
	if err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.UserID != u.ID.Hex() {
		t.Errorf("claims uid: got %s", claims.UserID)
	}

	stored, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.LastLoginAt == nil {
		t.Error("expected last_login_at to be recorded")
	}
	n, err := h.Activity.CountByUserInTimeRange(ctx, u.ID, activity.EventLogin, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("CountByUserInTimeRange: %v", err)
	}
	if n != 1 {
		t.Errorf("login activity count: got %d, want 1", n)
	}
}

func TestHandleLogin_Rejects(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateUser(ctx, "Ada", "ada@example.com", models.RoleStudent, testutil.HashPassword(t, password))
	disabled := fx.CreateUser(ctx, "Off", "off@example.com", models.RoleStudent, testutil.HashPassword(t, password))
	if _, err := fx.DB().Collection("users").UpdateByID(ctx, disabled.ID, map[string]any{"$set": map[string]any{"status": models.UserDisabled}}); err != nil {
		t.Fatalf("disable: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		status   int
		code     string
	}{
		{"wrong password", "ada@example.com", "nope-nope-nope", http.StatusUnauthorized, "unauthenticated"},
		{"unknown email", "ghost@example.com", password, http.StatusUnauthorized, "unauthenticated"},
		{"disabled", "off@example.com", password, http.StatusUnauthorized, "unauthenticated"},
		{"bad email", "not-an-email", password, http.StatusBadRequest, "validation_error"},
		{"missing password", "ada@example.com", "", http.StatusBadRequest, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, tt.email, tt.password)
			rec.AssertStatus(t, tt.status)
			if got := rec.ErrorCode(t); got != tt.code {
				t.Errorf("error code: got %q, want %q", got, tt.code)
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Error("no cookie expected on failure")
			}
		})
	}
}

func TestHandleLogin_RateLimitedPerEmail(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "Ada", "ada@example.com", models.RoleStudent, testutil.HashPassword(t, password))

	for i := 0; i < 3; i++ {
		post(t, h, "ada@example.com", "wrong-password").AssertStatus(t, http.StatusUnauthorized)
	}
	rec := post(t, h, "ada@example.com", password)
	rec.AssertStatus(t, http.StatusTooManyRequests)
	if got := rec.ErrorCode(t); got != "rate_limited" {
		t.Errorf("error code: got %q", got)
	}
}

func TestHandleLogout_ClearsCookie(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := testutil.NewRecorder()
	h.HandleLogout(rec, testutil.NewRequest(http.MethodPost, "/logout"))
	rec.AssertStatus(t, http.StatusNoContent)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Errorf("expected an expired empty cookie, got %+v", cookies)
	}
}

func TestServeMe(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fx.CreateStudent(ctx, "Grace Hopper", "grace@example.com")

	rec := testutil.NewRecorder()
	h.ServeMe(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/me", testutil.AsTestUser(u)))
	rec.AssertStatus(t, http.StatusOK)

	var got models.User
	rec.DecodeJSON(t, &got)
	if got.Email != "grace@example.com" {
		t.Errorf("email: got %q", got.Email)
	}

	rec = testutil.NewRecorder()
	h.ServeMe(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/me", testutil.StudentUser()))
	rec.AssertStatus(t, http.StatusUnauthorized)
}
