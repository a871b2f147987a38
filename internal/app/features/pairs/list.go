// internal/app/features/pairs/list.go
package pairs

import (
	"net/http"
	"time"

	"github.com/dalemusser/pairup/internal/app/features/shared"
	"github.com/dalemusser/pairup/internal/app/policy/viewscope"
	"github.com/dalemusser/pairup/internal/app/scheduling"
	pairstore "github.com/dalemusser/pairup/internal/app/store/pairs"
	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"github.com/dalemusser/pairup/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxPairs = 500

var knownStatuses = map[string]bool{
	models.PairPending:   true,
	models.PairScheduled: true,
	models.PairRejected:  true,
	models.PairCompleted: true,
}

// ServeList handles GET /api/pairs?event_id=&status=&limit=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	eventID, err := shared.QueryID(r, "event_id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	status := query.Get(r, "status")
	if status != "" && !knownStatuses[status] {
		respond.Error(w, h.Log, apperr.Validation("unknown status "+status))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list pairs")
	defer cancel()

	scope, err := viewscope.Resolve(ctx, r, h.Events)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	rows, err := h.Pairs.List(ctx, scope.PairFilter(), pairstore.ListFilter{
		EventID: eventID,
		Status:  status,
		Limit:   int64(shared.QueryInt(r, "limit", 100, 1, maxPairs)),
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"pairs": rows})
}

// ServeSummary handles GET /api/pairs/summary: pair counts by status
// within the caller's scope.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "pair summary")
	defer cancel()

	scope, err := viewscope.Resolve(ctx, r, h.Events)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	counts, err := h.Pairs.StatusCounts(ctx, scope.PairFilter())
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, map[string]any{"counts": counts})
}

// ServeView handles GET /api/pairs/{id}: the pair, both sides' latest
// proposals and the earliest slot they share.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "view pair")
	defer cancel()

	scope, err := viewscope.Resolve(ctx, r, h.Events)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	p, err := h.Pairs.GetByID(ctx, id)
	if err != nil {
		respond.Error(w, h.Log, shared.NotFound(err, "pair"))
		return
	}
	if !scope.CanSeePair(*p) {
		respond.Error(w, h.Log, apperr.NotFound("pair not found"))
		return
	}

	proposals, err := h.Proposals.ListForPair(ctx, p.ID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	people, err := h.Users.ContactsByID(ctx, p.Parties())
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	resp := viewResponse{
		Pair:        *p,
		Interviewer: card(p.InterviewerID, people),
		Interviewee: card(p.IntervieweeID, people),
		Proposals:   proposals,
		Common:      commonSlot(*p, proposals),
		Side:        string(p.SideOf(scope.UserID)),
	}
	respond.OK(w, resp)
}

func card(id primitive.ObjectID, people map[primitive.ObjectID]models.User) person {
	u, ok := people[id]
	if !ok {
		return person{ID: id}
	}
	return person{ID: id, FullName: u.FullName, Email: u.Email}
}

// commonSlot intersects the interviewer's and interviewee's proposals.
func commonSlot(p models.Pair, proposals []models.SlotProposal) *time.Time {
	var mine, theirs []time.Time
	for _, sp := range proposals {
		switch sp.ParticipantID {
		case p.InterviewerID:
			mine = sp.Candidates
		case p.IntervieweeID:
			theirs = sp.Candidates
		}
	}
	if t, ok := scheduling.EarliestCommon(mine, theirs); ok {
		return &t
	}
	return nil
}
