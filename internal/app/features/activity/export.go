// internal/app/features/activity/export.go
package activity

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeSummaryCSV handles GET /api/activity/summary.csv?days=N: the same
// rows as ServeSummary, one line per day and event type.
func (h *Handler) ServeSummaryCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "activity summary csv")
	defer cancel()

	resp, err := h.summary(ctx, r)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	filename := fmt.Sprintf("activity_%s_%dd.csv", resp.Since.Format("2006-01-02"), resp.Days)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"day", "event_type", "count"})
	for _, c := range resp.Counts {
		_ = cw.Write([]string{c.Day, c.EventType, strconv.FormatInt(c.Count, 10)})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Log.Warn("write activity csv", zap.Error(err))
	}
}
