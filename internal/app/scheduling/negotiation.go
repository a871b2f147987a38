package scheduling

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"time"

	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MeetingLinkLead is how long before the start an admin may attach a link.
const MeetingLinkLead = time.Hour

// MaxCandidates caps a single proposal.
const MaxCandidates = 50

// Actor is whoever performs a negotiation step.
type Actor struct {
	ID   primitive.ObjectID
	Role string
}

// PairStore is the pair persistence the negotiation needs. Lookups return
// mongo.ErrNoDocuments for unknown ids.
type PairStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Pair, error)
	RecordProposal(ctx context.Context, id primitive.ObjectID, side models.Side, proposed time.Time) (*models.Pair, error)
	Confirm(ctx context.Context, id primitive.ObjectID, by primitive.ObjectID, at time.Time, link string) (*models.Pair, error)
	SetMeetingLink(ctx context.Context, id primitive.ObjectID, link string) (*models.Pair, error)
}

// ProposalStore keeps one proposal per (pair, participant).
type ProposalStore interface {
	Upsert(ctx context.Context, p models.SlotProposal) (*models.SlotProposal, error)
	Get(ctx context.Context, pairID, participantID primitive.ObjectID) (*models.SlotProposal, error)
}

// Negotiator runs the slot negotiation state machine:
// pending -> scheduled (Confirm) -> completed (reminder sweep).
type Negotiator struct {
	Pairs     PairStore
	Proposals ProposalStore
	Notifier  Notifier
	Now       func() time.Time
}

// ProposeResult is what Propose reports back to the caller.
type ProposeResult struct {
	Pair     models.Pair         `json:"pair"`
	Proposal models.SlotProposal `json:"proposal"`
	// Common is the earliest instant present in both sides' latest
	// proposals. Advisory only: the pair is not confirmed.
	Common *time.Time `json:"common,omitempty"`
}

func (n *Negotiator) loadPair(ctx context.Context, id primitive.ObjectID) (*models.Pair, error) {
	p, err := n.Pairs.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("pair not found")
	}
	return p, err
}

func partyOf(p *models.Pair, actor Actor) (models.Side, error) {
	side := p.SideOf(actor.ID)
	if side == models.SideNone {
		return side, apperr.NotAuthorized("only the interviewer or interviewee of this pair can do that")
	}
	return side, nil
}

// Propose replaces actor's candidate set for the pair and reports the
// earliest slot both sides now share.
func (n *Negotiator) Propose(ctx context.Context, pairID primitive.ObjectID, actor Actor, candidates []time.Time) (*ProposeResult, error) {
	pair, err := n.loadPair(ctx, pairID)
	if err != nil {
		return nil, err
	}
	side, err := partyOf(pair, actor)
	if err != nil {
		return nil, err
	}
	cands, err := NormalizeCandidates(candidates)
	if err != nil {
		return nil, err
	}

	now := n.Now().UTC()
	saved, err := n.Proposals.Upsert(ctx, models.SlotProposal{
		PairID:        pair.ID,
		EventID:       pair.EventID,
		ParticipantID: actor.ID,
		Candidates:    cands,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, err
	}

	other, _ := pair.Counterpart(actor.ID)
	var common *time.Time
	theirs, err := n.Proposals.Get(ctx, pair.ID, other)
	switch {
	case err == nil:
		if t, ok := EarliestCommon(cands, theirs.Candidates); ok {
			common = &t
		}
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, err
	}

	updated, err := n.Pairs.RecordProposal(ctx, pair.ID, side, cands[0])
	if err != nil {
		return nil, err
	}

	if n.Notifier != nil {
		n.Notifier.ProposalCreated(ctx, *updated, actor.ID, cands, common)
	}
	return &ProposeResult{Pair: *updated, Proposal: *saved, Common: common}, nil
}

// Confirm schedules the pair at the given time. The time is authoritative:
// it is not checked against either side's proposals.
func (n *Negotiator) Confirm(ctx context.Context, pairID primitive.ObjectID, actor Actor, at time.Time, link string) (*models.Pair, error) {
	pair, err := n.loadPair(ctx, pairID)
	if err != nil {
		return nil, err
	}
	if _, err := partyOf(pair, actor); err != nil {
		return nil, err
	}
	if at.IsZero() {
		return nil, apperr.Validation("scheduled time is required")
	}
	if link != "" {
		if err := ValidateMeetingLink(link); err != nil {
			return nil, err
		}
	}

	updated, err := n.Pairs.Confirm(ctx, pair.ID, actor.ID, normalizeTime(at), link)
	if err != nil {
		return nil, err
	}
	if n.Notifier != nil {
		n.Notifier.PairConfirmed(ctx, *updated, actor.ID)
	}
	return updated, nil
}

// SetMeetingLink attaches a link to a scheduled pair. Admin only, and only
// from MeetingLinkLead before the start onward. There is no upper bound, so a
// pair the completion sweep has already closed still accepts a link.
func (n *Negotiator) SetMeetingLink(ctx context.Context, pairID primitive.ObjectID, actor Actor, link string) (*models.Pair, error) {
	if actor.Role != models.RoleAdmin {
		return nil, apperr.NotAuthorized("only administrators can set meeting links")
	}
	pair, err := n.loadPair(ctx, pairID)
	if err != nil {
		return nil, err
	}
	if !hasConfirmedTime(pair) {
		return nil, apperr.InvalidState("pair is not scheduled")
	}
	opens := pair.ScheduledAt.Add(-MeetingLinkLead)
	if n.Now().Before(opens) {
		return nil, apperr.InvalidState("meeting link can be set from " + opens.UTC().Format(time.RFC3339))
	}
	if err := ValidateMeetingLink(link); err != nil {
		return nil, err
	}

	updated, err := n.Pairs.SetMeetingLink(ctx, pair.ID, link)
	if err != nil {
		return nil, err
	}
	if n.Notifier != nil {
		n.Notifier.MeetingLinkSet(ctx, *updated)
	}
	return updated, nil
}

// NormalizeCandidates converts to UTC at millisecond precision (what the
// store keeps), drops duplicates and sorts ascending.
func NormalizeCandidates(in []time.Time) ([]time.Time, error) {
	if len(in) == 0 {
		return nil, apperr.Validation("at least one candidate time is required")
	}
	if len(in) > MaxCandidates {
		return nil, apperr.Validation("too many candidate times")
	}
	seen := make(map[time.Time]struct{}, len(in))
	out := make([]time.Time, 0, len(in))
	for _, t := range in {
		if t.IsZero() {
			return nil, apperr.Validation("candidate times must be valid timestamps")
		}
		t = normalizeTime(t)
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// EarliestCommon returns the earliest instant present in both ascending lists.
func EarliestCommon(a, b []time.Time) (time.Time, bool) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Equal(b[j]):
			return a[i], true
		case a[i].Before(b[j]):
			i++
		default:
			j++
		}
	}
	return time.Time{}, false
}

// ValidateMeetingLink accepts absolute http(s) URLs.
func ValidateMeetingLink(link string) error {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return apperr.Validation("meeting link must be an absolute http(s) URL")
	}
	return nil
}

func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func hasConfirmedTime(p *models.Pair) bool {
	if p.ScheduledAt == nil {
		return false
	}
	return p.Status == models.PairScheduled || p.Status == models.PairCompleted
}
