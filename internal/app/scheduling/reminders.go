package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ReminderStore is the pair persistence the periodic sweeps need.
type ReminderStore interface {
	// UpcomingScheduled returns scheduled pairs starting in [from, to] that
	// still lack a reminder or a meeting link.
	UpcomingScheduled(ctx context.Context, from, to time.Time) ([]models.Pair, error)
	// SetMeetingLinkIfEmpty sets link only when the pair has none.
	SetMeetingLinkIfEmpty(ctx context.Context, id primitive.ObjectID, link string) (bool, error)
	// MarkReminded records the reminder only if none was recorded before.
	MarkReminded(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
	// CompleteStartedBefore moves scheduled pairs that started before cutoff
	// to completed and returns how many changed.
	CompleteStartedBefore(ctx context.Context, cutoff, at time.Time) (int64, error)
}

// Reminders drives the pre-interview sweep and the completion sweep.
type Reminders struct {
	Store             ReminderStore
	Notifier          Notifier
	Lookahead         time.Duration
	InterviewDuration time.Duration
	NewLink           func() (string, error)
	Now               func() time.Time
	Log               *zap.Logger
}

// SweepStats summarizes one reminder sweep.
type SweepStats struct {
	Scanned       int
	LinksCreated  int
	RemindersSent int
}

// SendDue attaches meeting links to pairs inside the pre-start window and
// sends each upcoming pair one reminder. A link generated after the reminder
// is announced on its own. A failure on one pair does not stop
// the others; all failures are returned together.
func (r *Reminders) SendDue(ctx context.Context) (SweepStats, error) {
	now := r.Now().UTC()
	pairs, err := r.Store.UpcomingScheduled(ctx, now, now.Add(r.Lookahead))
	if err != nil {
		return SweepStats{}, err
	}

	stats := SweepStats{Scanned: len(pairs)}
	var errs error
	for _, p := range pairs {
		if p.ScheduledAt == nil {
			continue
		}
		if p.MeetingLink == "" && !now.Before(p.ScheduledAt.Add(-MeetingLinkLead)) {
			link, err := r.NewLink()
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("pair %s: new link: %w", p.ID.Hex(), err))
				continue
			}
			set, err := r.Store.SetMeetingLinkIfEmpty(ctx, p.ID, link)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("pair %s: set link: %w", p.ID.Hex(), err))
				continue
			}
			if set {
				p.MeetingLink = link
				stats.LinksCreated++
				r.log().Info("meeting link generated", zap.String("pair_id", p.ID.Hex()))
				// The reminder went out before the link existed.
				if p.ReminderSentAt != nil && r.Notifier != nil {
					r.Notifier.MeetingLinkSet(ctx, p)
				}
			}
		}

		if p.ReminderSentAt != nil {
			continue
		}
		marked, err := r.Store.MarkReminded(ctx, p.ID, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("pair %s: mark reminded: %w", p.ID.Hex(), err))
			continue
		}
		if !marked {
			continue // another sweep won the race
		}
		p.ReminderSentAt = &now
		if r.Notifier != nil {
			r.Notifier.Reminder(ctx, p)
		}
		stats.RemindersSent++
	}
	return stats, errs
}

// CompleteElapsed marks scheduled pairs whose interview has ended as completed.
func (r *Reminders) CompleteElapsed(ctx context.Context) (int64, error) {
	now := r.Now().UTC()
	return r.Store.CompleteStartedBefore(ctx, now.Add(-r.InterviewDuration), now)
}

func (r *Reminders) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
