// internal/app/features/feedback/feedback.go
package feedback

import (
	"errors"
	"net/http"

	"github.com/dalemusser/pairup/internal/app/features/shared"
	"github.com/dalemusser/pairup/internal/app/policy/viewscope"
	"github.com/dalemusser/pairup/internal/app/store/activity"
	feedbackstore "github.com/dalemusser/pairup/internal/app/store/feedback"
	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/htmlsanitize"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createInput struct {
	PairID       string `json:"pair_id" validate:"required,objectid"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	Strengths    string `json:"strengths" validate:"max=4000"`
	Improvements string `json:"improvements" validate:"max=4000"`
	Comments     string `json:"comments" validate:"max=4000"`
}

// HandleCreate handles POST /api/feedback. Each side of a scheduled or
// completed pair may rate the other once.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.Actor(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in createInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	pairID, _ := primitive.ObjectIDFromHex(in.PairID)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create feedback")
	defer cancel()

	p, err := h.Pairs.GetByID(ctx, pairID)
	if err != nil {
		respond.Error(w, h.Log, shared.NotFound(err, "pair"))
		return
	}
	side := p.SideOf(actor.ID)
	if side == models.SideNone {
		respond.Error(w, h.Log, apperr.NotAuthorized("only the interviewer or interviewee of this pair can leave feedback"))
		return
	}
	if p.Status != models.PairScheduled && p.Status != models.PairCompleted {
		respond.Error(w, h.Log, apperr.InvalidState("feedback opens once the interview is scheduled"))
		return
	}
	to, _ := p.Counterpart(actor.ID)

	fb, err := h.Feedback.Create(ctx, models.Feedback{
		PairID:       p.ID,
		EventID:      p.EventID,
		FromID:       actor.ID,
		ToID:         to,
		FromSide:     side,
		Rating:       in.Rating,
		Strengths:    htmlsanitize.Sanitize(in.Strengths),
		Improvements: htmlsanitize.Sanitize(in.Improvements),
		Comments:     htmlsanitize.Sanitize(in.Comments),
	})
	if errors.Is(err, feedbackstore.ErrAlreadySubmitted) {
		respond.Error(w, h.Log, apperr.Wrap(apperr.KindConflict, err, err.Error()))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	if err := h.Activity.RecordPairAction(ctx, actor.ID, activity.EventFeedback, p.EventID, p.ID); err != nil {
		h.Log.Warn("record activity", zap.Error(err))
	}
	respond.Created(w, fb)
}

// ServeList handles GET /api/feedback?pair_id=&event_id=&to_id=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	var f feedbackstore.ListFilter
	var err error
	if f.PairID, err = shared.QueryID(r, "pair_id"); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if f.EventID, err = shared.QueryID(r, "event_id"); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if f.ToID, err = shared.QueryID(r, "to_id"); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	f.Limit = int64(shared.QueryInt(r, "limit", 100, 1, 500))

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list feedback")
	defer cancel()

	scope, err := viewscope.Resolve(ctx, r, h.Events)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	rows, err := h.Feedback.List(ctx, scope.FeedbackFilter(), f)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"feedback": rows})
}

// ServeSummary handles GET /api/feedback/summary?user_id=. Without user_id
// it summarizes the caller. Only admins and coordinators may ask about
// someone else.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.Actor(r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	target, err := shared.QueryID(r, "user_id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "feedback summary")
	defer cancel()

	who := actor.ID
	if target != nil && *target != actor.ID {
		scope, err := viewscope.Resolve(ctx, r, h.Events)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		if !scope.CanSeeAnalytics() {
			respond.Error(w, h.Log, apperr.NotAuthorized("you can only see your own ratings"))
			return
		}
		who = *target
	}

	sum, err := h.Feedback.SummaryFor(ctx, who)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"user_id": who, "summary": sum})
}
