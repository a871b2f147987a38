// Package shared holds request helpers used by every API feature.
package shared

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/pairup/internal/app/scheduling"
	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/authz"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PathID parses the chi URL parameter key as an ObjectID.
func PathID(r *http.Request, key string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, key)
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid " + key)
	}
	return oid, nil
}

// QueryID parses an optional ObjectID query parameter.
func QueryID(r *http.Request, key string) (*primitive.ObjectID, error) {
	raw := query.Get(r, key)
	if raw == "" {
		return nil, nil
	}
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, apperr.Validation("invalid " + key)
	}
	return &oid, nil
}

// QueryInt reads an integer query parameter clamped to [lo, hi], falling back
// to def when absent or malformed.
func QueryInt(r *http.Request, key string, def, lo, hi int) int {
	raw := query.Get(r, key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Actor identifies the signed-in user for the scheduling services.
func Actor(r *http.Request) (scheduling.Actor, error) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return scheduling.Actor{}, apperr.ErrUnauthenticated.WithMessage("sign in required")
	}
	return scheduling.Actor{ID: uid, Role: role}, nil
}

// ParseIDs converts hex ids, rejecting any malformed one.
func ParseIDs(field string, hexes []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(h))
		if err != nil {
			return nil, apperr.Validation("invalid id in " + field + ": " + h)
		}
		out = append(out, oid)
	}
	return out, nil
}

// NotFound maps mongo.ErrNoDocuments to a NotFound error named after what.
func NotFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(what + " not found")
	}
	return err
}

// ParseTime accepts RFC 3339 with or without fractional seconds.
func ParseTime(field, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.Validation(field + " must be an RFC 3339 timestamp")
	}
	return t, nil
}
