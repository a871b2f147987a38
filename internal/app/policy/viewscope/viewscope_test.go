package viewscope

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/pairup/internal/app/system/auth"
	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeIndex map[primitive.ObjectID][]primitive.ObjectID

func (f fakeIndex) CoordinatedEventIDs(_ context.Context, uid primitive.ObjectID) ([]primitive.ObjectID, error) {
	return f[uid], nil
}

type failingIndex struct{}

func (failingIndex) CoordinatedEventIDs(context.Context, primitive.ObjectID) ([]primitive.ObjectID, error) {
	return nil, errors.New("db down")
}

func TestResolve(t *testing.T) {
	coord := primitive.NewObjectID()
	ev := primitive.NewObjectID()
	idx := fakeIndex{coord: {ev}}

	tests := []struct {
		name    string
		user    *auth.SessionUser
		canView bool
		all     bool
		events  int
	}{
		{"anonymous", nil, false, false, 0},
		{"admin", &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "admin"}, true, true, 0},
		{"coordinator", &auth.SessionUser{ID: coord.Hex(), Role: "coordinator"}, true, false, 1},
		{"student", &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "student"}, true, false, 0},
		{"unknown role", &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "guest"}, false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/pairs", nil)
			if tt.user != nil {
				r = auth.WithTestUser(r, tt.user)
			}
			s, err := Resolve(context.Background(), r, idx)
			require.NoError(t, err)
			assert.Equal(t, tt.canView, s.CanView)
			assert.Equal(t, tt.all, s.All)
			assert.Len(t, s.EventIDs, tt.events)
		})
	}
}

func TestResolve_PropagatesIndexError(t *testing.T) {
	r := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: "coordinator"})
	_, err := Resolve(context.Background(), r, failingIndex{})
	assert.Error(t, err)
}

func TestCanSeePair(t *testing.T) {
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	ev, otherEv := primitive.NewObjectID(), primitive.NewObjectID()
	p := models.Pair{EventID: ev, InterviewerID: a, IntervieweeID: b}

	tests := []struct {
		name  string
		scope ViewScope
		want  bool
	}{
		{"none", ViewScope{}, false},
		{"admin", ViewScope{CanView: true, All: true}, true},
		{"coordinator of event", ViewScope{CanView: true, Role: "coordinator", EventIDs: []primitive.ObjectID{ev}}, true},
		{"coordinator elsewhere", ViewScope{CanView: true, Role: "coordinator", EventIDs: []primitive.ObjectID{otherEv}}, false},
		{"interviewer", ViewScope{CanView: true, Role: "student", UserID: a}, true},
		{"interviewee", ViewScope{CanView: true, Role: "student", UserID: b}, true},
		{"bystander", ViewScope{CanView: true, Role: "student", UserID: c}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scope.CanSeePair(p))
		})
	}
}

func TestFilters(t *testing.T) {
	uid := primitive.NewObjectID()

	student := ViewScope{CanView: true, Role: "student", UserID: uid}
	assert.Equal(t, bson.M{"participant_ids": uid}, student.EventFilter())
	assert.Contains(t, student.PairFilter(), "$or")

	coord := ViewScope{CanView: true, Role: "coordinator", UserID: uid}
	in := coord.PairFilter()["event_id"].(bson.M)["$in"].([]primitive.ObjectID)
	assert.NotNil(t, in, "empty coordinator scope must encode as [] not null")
	assert.Empty(t, in)

	admin := ViewScope{CanView: true, All: true}
	assert.Empty(t, admin.FeedbackFilter())
	assert.Equal(t, nothing, ViewScope{}.PairFilter())
}

func TestCanManageEvent(t *testing.T) {
	coord := primitive.NewObjectID()
	e := models.Event{CoordinatorIDs: []primitive.ObjectID{coord}, ParticipantIDs: []primitive.ObjectID{primitive.NewObjectID()}}

	assert.True(t, ViewScope{All: true}.CanManageEvent(e))
	assert.True(t, ViewScope{Role: "coordinator", UserID: coord}.CanManageEvent(e))
	assert.False(t, ViewScope{Role: "coordinator", UserID: primitive.NewObjectID()}.CanManageEvent(e))
	assert.False(t, ViewScope{Role: "student", UserID: e.ParticipantIDs[0]}.CanManageEvent(e))
}
