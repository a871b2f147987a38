// Package viewscope resolves, once per request, which pairs, events and
// feedback the current user may see.
//
// Rules:
//   - Admins see everything
//   - Coordinators see the events they coordinate and everything inside them
//   - Students see the events they are on and their own pairs and feedback
//   - Anyone else sees nothing
package viewscope

import (
	"context"
	"net/http"

	"github.com/dalemusser/pairup/internal/app/system/authz"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventIndex lists the events a coordinator coordinates.
type EventIndex interface {
	CoordinatedEventIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// ViewScope is the effective filter for one request.
type ViewScope struct {
	CanView bool
	Role    string
	UserID  primitive.ObjectID
	// All is true for admins.
	All bool
	// EventIDs holds the coordinated events (coordinators only).
	EventIDs []primitive.ObjectID
}

// Resolve builds the scope for r's user.
func Resolve(ctx context.Context, r *http.Request, events EventIndex) (ViewScope, error) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return ViewScope{}, nil
	}
	return ForUser(ctx, role, uid, events)
}

// ForUser builds the scope for a known role and user id.
func ForUser(ctx context.Context, role string, userID primitive.ObjectID, events EventIndex) (ViewScope, error) {
	s := ViewScope{Role: role, UserID: userID}
	switch role {
	case models.RoleAdmin:
		s.CanView, s.All = true, true
	case models.RoleCoordinator:
		ids, err := events.CoordinatedEventIDs(ctx, userID)
		if err != nil {
			return ViewScope{}, err
		}
		s.CanView, s.EventIDs = true, ids
	case models.RoleStudent:
		s.CanView = true
	}
	return s, nil
}

// nothing matches no document.
var nothing = bson.M{"_id": bson.M{"$exists": false}}

// PairFilter restricts a pairs query.
func (s ViewScope) PairFilter() bson.M {
	switch {
	case !s.CanView:
		return nothing
	case s.All:
		return bson.M{}
	case s.Role == models.RoleCoordinator:
		return bson.M{"event_id": bson.M{"$in": nonNil(s.EventIDs)}}
	default:
		return bson.M{"$or": bson.A{
			bson.M{"interviewer_id": s.UserID},
			bson.M{"interviewee_id": s.UserID},
		}}
	}
}

// EventFilter restricts an events query.
func (s ViewScope) EventFilter() bson.M {
	switch {
	case !s.CanView:
		return nothing
	case s.All:
		return bson.M{}
	case s.Role == models.RoleCoordinator:
		return bson.M{"coordinator_ids": s.UserID}
	default:
		return bson.M{"participant_ids": s.UserID}
	}
}

// FeedbackFilter restricts a feedback query.
func (s ViewScope) FeedbackFilter() bson.M {
	switch {
	case !s.CanView:
		return nothing
	case s.All:
		return bson.M{}
	case s.Role == models.RoleCoordinator:
		return bson.M{"event_id": bson.M{"$in": nonNil(s.EventIDs)}}
	default:
		return bson.M{"$or": bson.A{
			bson.M{"from_id": s.UserID},
			bson.M{"to_id": s.UserID},
		}}
	}
}

// CanSeePair applies PairFilter's rule to one loaded pair.
func (s ViewScope) CanSeePair(p models.Pair) bool {
	switch {
	case !s.CanView:
		return false
	case s.All:
		return true
	case s.Role == models.RoleCoordinator:
		return containsID(s.EventIDs, p.EventID)
	default:
		return p.SideOf(s.UserID) != models.SideNone
	}
}

// CanSeeEvent applies EventFilter's rule to one loaded event.
func (s ViewScope) CanSeeEvent(e models.Event) bool {
	switch {
	case !s.CanView:
		return false
	case s.All:
		return true
	case s.Role == models.RoleCoordinator:
		return e.HasCoordinator(s.UserID)
	default:
		return e.HasParticipant(s.UserID)
	}
}

// CanManageEvent reports whether the user may change e's roster or
// regenerate its pairs.
func (s ViewScope) CanManageEvent(e models.Event) bool {
	if s.All {
		return true
	}
	return s.Role == models.RoleCoordinator && e.HasCoordinator(s.UserID)
}

// CanSeeAnalytics reports whether activity summaries are visible.
func (s ViewScope) CanSeeAnalytics() bool {
	return s.All || s.Role == models.RoleCoordinator
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// $in with a nil slice encodes as null, which Mongo rejects.
func nonNil(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return []primitive.ObjectID{}
	}
	return ids
}
