// internal/app/features/activity/summary.go
package activity

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/pairup/internal/app/features/shared"
	"github.com/dalemusser/pairup/internal/app/policy/viewscope"
	"github.com/dalemusser/pairup/internal/app/store/activity"
	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultDays = 7
	maxDays     = 90
)

type summaryResponse struct {
	Since  time.Time           `json:"since"`
	Days   int                 `json:"days"`
	Counts []activity.DayCount `json:"counts"`
	Totals map[string]int64    `json:"totals"`
}

// summary aggregates the last ?days= days of activity in the caller's scope.
func (h *Handler) summary(ctx context.Context, r *http.Request) (summaryResponse, error) {
	scope, err := viewscope.Resolve(ctx, r, h.Events)
	if err != nil {
		return summaryResponse{}, err
	}
	if !scope.CanSeeAnalytics() {
		return summaryResponse{}, apperr.NotAuthorized("activity summaries are for coordinators and admins")
	}

	// nil means every event; coordinators are limited to theirs.
	var eventIDs []primitive.ObjectID
	if !scope.All {
		eventIDs = append([]primitive.ObjectID{}, scope.EventIDs...)
	}

	days := shared.QueryInt(r, "days", defaultDays, 1, maxDays)
	now := time.Now().UTC()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))

	counts, err := h.Activity.DailySummary(ctx, since, eventIDs)
	if err != nil {
		return summaryResponse{}, err
	}
	totals := map[string]int64{}
	for _, c := range counts {
		totals[c.EventType] += c.Count
	}
	return summaryResponse{Since: since, Days: days, Counts: counts, Totals: totals}, nil
}

// ServeSummary handles GET /api/activity/summary?days=N.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "activity summary")
	defer cancel()

	resp, err := h.summary(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, resp)
}

// ServeUser handles GET /api/activity/users/{id}?limit=N.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user activity")
	defer cancel()

	rows, err := h.Activity.GetByUser(ctx, id, int64(shared.QueryInt(r, "limit", 50, 1, 500)))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if rows == nil {
		rows = []activity.Event{}
	}
	respond.OK(w, map[string]any{"events": rows})
}
