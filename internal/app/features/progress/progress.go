// internal/app/features/progress/progress.go
package progress

import (
	"net/http"
	"time"

	"github.com/dalemusser/pairup/internal/app/features/shared"
	"github.com/dalemusser/pairup/internal/app/policy/viewscope"
	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type watchInput struct {
	WatchedSeconds int `json:"watched_seconds" validate:"min=0,max=86400"`
}

// HandleWatch handles POST /api/progress/topics/{id}. Watched seconds only
// ever grow; the response reports whether this call completed the topic.
func (h *Handler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.Actor(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	topicID, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in watchInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "record progress")
	defer cancel()

	topic, err := h.Curriculum.GetTopic(ctx, topicID)
	if err != nil {
		respond.Error(w, h.Log, shared.NotFound(err, "topic"))
		return
	}
	p, completedNow, err := h.Progress.RecordWatch(ctx, actor.ID, *topic, in.WatchedSeconds, time.Now().UTC())
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	if err := h.Activity.RecordTopicProgress(ctx, actor.ID, topic.ID, p.WatchedSeconds, p.Completed); err != nil {
		h.Log.Warn("record activity", zap.Error(err))
	}
	if h.Publisher != nil {
		h.Publisher.TopicProgress(ctx, p)
	}
	if completedNow {
		h.Log.Info("topic completed",
			zap.String("user_id", actor.ID.Hex()),
			zap.String("topic_id", topic.ID.Hex()))
	}
	respond.OK(w, map[string]any{"progress": p, "completed_now": completedNow})
}

// target is the user a read is about: the caller, or ?user_id= for admins
// and coordinators.
func (h *Handler) target(r *http.Request) (primitive.ObjectID, error) {
	actor, err := shared.Actor(r)
	if err != nil {
		return primitive.NilObjectID, err
	}
	other, err := shared.QueryID(r, "user_id")
	if err != nil || other == nil || *other == actor.ID {
		return actor.ID, err
	}
	scope, err := viewscope.Resolve(r.Context(), r, h.Events)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if !scope.CanSeeAnalytics() {
		return primitive.NilObjectID, apperr.NotAuthorized("you can only see your own progress")
	}
	return *other, nil
}

// ServeSummary handles GET /api/progress: per-subject completion.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	uid, err := h.target(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "progress summary")
	defer cancel()

	rows, err := h.Progress.Summary(ctx, uid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"user_id": uid, "subjects": rows})
}

// ServeTopics handles GET /api/progress/topics: every progress record.
func (h *Handler) ServeTopics(w http.ResponseWriter, r *http.Request) {
	uid, err := h.target(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "progress topics")
	defer cancel()

	rows, err := h.Progress.ForUser(ctx, uid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"user_id": uid, "topics": rows})
}
