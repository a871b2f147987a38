package shared

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestPathID(t *testing.T) {
	id := primitive.NewObjectID()
	r := withParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", id.Hex())
	got, err := PathID(r, "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	r = withParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", "nope")
	_, err = PathID(r, "id")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestQueryID(t *testing.T) {
	id := primitive.NewObjectID()
	got, err := QueryID(httptest.NewRequest(http.MethodGet, "/?event_id="+id.Hex(), nil), "event_id")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, *got)

	got, err = QueryID(httptest.NewRequest(http.MethodGet, "/", nil), "event_id")
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, err = QueryID(httptest.NewRequest(http.MethodGet, "/?event_id=zzz", nil), "event_id")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestQueryInt(t *testing.T) {
	cases := []struct {
		url  string
		want int
	}{
		{"/", 7},
		{"/?days=14", 14},
		{"/?days=0", 1},
		{"/?days=1000", 90},
		{"/?days=abc", 7},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, tc.url, nil)
		assert.Equal(t, tc.want, QueryInt(r, "days", 7, 1, 90), tc.url)
	}
}

func TestActor(t *testing.T) {
	_, err := Actor(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	id := primitive.NewObjectID()
	r := auth.WithTestUser(httptest.NewRequest(http.MethodGet, "/", nil), &auth.SessionUser{ID: id.Hex(), Role: "Admin"})
	a, err := Actor(r)
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)
	assert.Equal(t, "admin", a.Role)
}

func TestParseIDs(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	got, err := ParseIDs("participant_ids", []string{a.Hex(), " " + b.Hex()})
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{a, b}, got)

	_, err = ParseIDs("participant_ids", []string{a.Hex(), "bad"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, NotFound(mongo.ErrNoDocuments, "pair"), apperr.ErrNotFound)
	other := errors.New("boom")
	assert.Equal(t, other, NotFound(other, "pair"))
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("at", "2025-04-01T10:00:00-04:00")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 4, 1, 14, 0, 0, 0, time.UTC)))

	_, err = ParseTime("at", "tomorrow")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
