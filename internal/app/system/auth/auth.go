// Package auth issues JWT session cookies and resolves the signed-in user for
// each request.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultCookieName is used when Manager.CookieName is empty.
const DefaultCookieName = "pairup_token"

// SessionUser is what LoadUser injects into r.Context().
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// ObjectID parses ID. ok is false if it is malformed.
func (u *SessionUser) ObjectID() (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	return oid, err == nil
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithUser returns ctx carrying u. Used by the realtime upgrade and tests.
func WithUser(ctx context.Context, u *SessionUser) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// WithTestUser injects u into r, bypassing token resolution.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(WithUser(r.Context(), u))
}

// UserLoader fetches the current state of a user record.
type UserLoader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Manager ties the token service to cookies and the user store.
type Manager struct {
	Tokens       *TokenService
	Users        UserLoader
	CookieName   string
	CookieDomain string
	Secure       bool
	Log          *zap.Logger
}

func (m *Manager) cookieName() string {
	if m.CookieName == "" {
		return DefaultCookieName
	}
	return m.CookieName
}

// tokenFromRequest prefers the Authorization header, then the cookie.
func (m *Manager) tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(m.cookieName()); err == nil {
		return c.Value
	}
	return ""
}

// Resolve turns a raw token into a SessionUser, re-reading the user so role
// and status changes apply immediately. Disabled users do not resolve.
func (m *Manager) Resolve(ctx context.Context, token string) (*SessionUser, error) {
	claims, err := m.Tokens.Parse(token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, err, "invalid or expired token")
	}
	oid, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, err, "invalid token subject")
	}
	u, err := m.Users.GetByID(ctx, oid)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, err, "unknown user")
	}
	if u.Status != models.UserActive {
		return nil, &apperr.Error{Kind: apperr.KindUnauthenticated, Message: "account disabled"}
	}
	return &SessionUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email, Role: u.Role}, nil
}

// LoadUser injects the signed-in user into the request context when a valid
// token is present. Requests without one pass through unchanged.
func (m *Manager) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := m.tokenFromRequest(r)
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		u, err := m.Resolve(ctx, tok)
		cancel()
		if err != nil {
			if m.Log != nil {
				m.Log.Debug("token rejected", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, WithTestUser(r, u))
	})
}

// SetCookie writes the HttpOnly session cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, m.cookie(token, expiresAt, int(time.Until(expiresAt).Seconds())))
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("", time.Unix(0, 0), -1))
}

func (m *Manager) cookie(value string, expires time.Time, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     m.cookieName(),
		Value:    value,
		Path:     "/",
		Domain:   m.CookieDomain,
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if m.Secure {
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

// RequireSignedIn answers 401 unless LoadUser resolved a user.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			respond.Error(w, nil, apperr.ErrUnauthenticated.WithMessage("sign in required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 without a user and 403 when the user's role is not
// in allowed.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				respond.Error(w, nil, apperr.ErrUnauthenticated.WithMessage("sign in required"))
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				respond.Error(w, nil, apperr.NotAuthorized("insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
