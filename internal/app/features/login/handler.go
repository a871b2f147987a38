// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/pairup/internal/app/store/activity"
	userstore "github.com/dalemusser/pairup/internal/app/store/users"
	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/auth"
	"github.com/dalemusser/pairup/internal/app/system/authz"
	"github.com/dalemusser/pairup/internal/app/system/metrics"
	"github.com/dalemusser/pairup/internal/app/system/ratelimit"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves sign-in, sign-out and the current-user endpoint.
type Handler struct {
	Users    *userstore.Store
	Activity *activity.Store
	Auth     *auth.Manager
	Limiter  *ratelimit.LoginLimiter
	Log      *zap.Logger
}

// NewHandler constructs a login Handler.
func NewHandler(db *mongo.Database, am *auth.Manager, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	if limiter == nil {
		limiter = ratelimit.NewLoginLimiter(ratelimit.Config{})
	}
	return &Handler{
		Users:    userstore.New(db),
		Activity: activity.New(db),
		Auth:     am,
		Limiter:  limiter,
		Log:      logger,
	}
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User      models.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

var errBadCredentials = &apperr.Error{Kind: apperr.KindUnauthenticated, Message: "invalid email or password"}

// HandleLogin handles POST /api/auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	if ok, reason := h.Limiter.Check(r, in.Email); !ok {
		metrics.LoginAttempts.WithLabelValues("limited").Inc()
		h.Log.Warn("login rate limited", zap.String("ip", ratelimit.ClientIP(r)))
		respond.Error(w, h.Log, &apperr.Error{Kind: apperr.KindRateLimited, Message: reason})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, in.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Burn the same time as a real comparison so timing does not reveal
		// which emails exist.
		auth.CheckPassword(dummyHash, in.Password)
		h.fail(w, "unknown email")
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		h.fail(w, "wrong password")
		return
	}
	if u.Status != models.UserActive {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		respond.Error(w, h.Log, &apperr.Error{Kind: apperr.KindUnauthenticated, Message: "account disabled"})
		return
	}

	token, expiresAt, err := h.Auth.Tokens.Issue(u.ID.Hex(), u.Role)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Auth.SetCookie(w, token, expiresAt)
	h.Limiter.ResetEmail(in.Email)
	metrics.LoginAttempts.WithLabelValues("success").Inc()

	now := time.Now().UTC()
	if err := h.Users.TouchLogin(ctx, u.ID, now); err != nil {
		h.Log.Warn("failed to record last login", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
	if err := h.Activity.Create(ctx, activity.Event{UserID: u.ID, EventType: activity.EventLogin, Timestamp: now}); err != nil {
		h.Log.Warn("failed to record login activity", zap.Error(err))
	}
	u.LastLoginAt = &now

	h.Log.Info("user signed in", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))
	respond.OK(w, loginResponse{User: *u, Token: token, ExpiresAt: expiresAt})
}

func (h *Handler) fail(w http.ResponseWriter, why string) {
	metrics.LoginAttempts.WithLabelValues("failure").Inc()
	h.Log.Debug("login failed", zap.String("reason", why))
	respond.Error(w, h.Log, errBadCredentials)
}

// HandleLogout handles POST /api/auth/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Auth.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// ServeMe handles GET /api/auth/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		respond.Error(w, h.Log, apperr.ErrUnauthenticated.WithMessage("sign in required"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, h.Log, apperr.ErrUnauthenticated.WithMessage("unknown user"))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, u)
}

// dummyHash is a bcrypt hash of a random string.
const dummyHash = "$2a$10$CwTycUXWue0Thq9StjUM0uJ8.Ft6w2Qn0Tu0m2bS7zK2P3yvH8f1e"
