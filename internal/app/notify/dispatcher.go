// Package notify turns scheduling transitions into email and realtime
// messages. Delivery is best effort: failures are logged and counted, never
// returned to the caller.
package notify

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/pairup/internal/app/scheduling"
	"github.com/dalemusser/pairup/internal/app/system/mailer"
	"github.com/dalemusser/pairup/internal/app/system/metrics"
	"github.com/dalemusser/pairup/internal/app/system/realtime"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Realtime event names.
const (
	EventPairsGenerated = "pairs.generated"
	EventPairProposed   = "pair.proposed"
	EventPairConfirmed  = "pair.confirmed"
	EventMeetingLink    = "pair.meeting_link"
	EventPairReminder   = "pair.reminder"
	EventTopicProgress  = "topic.progress"
)

// Contacts resolves users for addressing.
type Contacts interface {
	ContactsByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
}

// Events resolves the event a pair belongs to.
type Events interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
}

// Queue accepts email for asynchronous delivery.
type Queue interface {
	Enqueue(e mailer.Email) bool
}

// Config holds presentation settings for outbound messages.
type Config struct {
	SiteName          string
	BaseURL           string
	FromName          string
	FromEmail         string
	InterviewDuration time.Duration
}

// Dispatcher implements scheduling.Notifier.
type Dispatcher struct {
	cfg      Config
	contacts Contacts
	events   Events
	mail     Queue
	bus      realtime.Publisher
	log      *zap.Logger
}

var _ scheduling.Notifier = (*Dispatcher)(nil)

// New builds a Dispatcher. mail and bus may be nil to disable that channel.
func New(cfg Config, contacts Contacts, events Events, mail Queue, bus realtime.Publisher, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "PairUp"
	}
	if cfg.InterviewDuration <= 0 {
		cfg.InterviewDuration = time.Hour
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Dispatcher{cfg: cfg, contacts: contacts, events: events, mail: mail, bus: bus, log: log}
}

// PairPayload is the realtime body for pair events.
type PairPayload struct {
	Pair       models.Pair `json:"pair"`
	By         string      `json:"by,omitempty"`
	Candidates []time.Time `json:"candidates,omitempty"`
	Common     *time.Time  `json:"common,omitempty"`
}

// RosterPayload is the realtime body for pairs.generated.
type RosterPayload struct {
	EventID string `json:"event_id"`
	Round   int    `json:"round"`
	Pairs   int    `json:"pairs"`
}

func (d *Dispatcher) PairsGenerated(ctx context.Context, event models.Event, pairs []models.Pair) {
	audience := append(hexIDs(event.ParticipantIDs), hexIDs(event.CoordinatorIDs)...)
	d.publish(realtime.StreamEvents, audience, EventPairsGenerated, RosterPayload{
		EventID: event.ID.Hex(),
		Round:   event.Round,
		Pairs:   len(pairs),
	})

	if d.mail == nil || len(pairs) == 0 {
		return
	}
	users := d.lookup(ctx, event.ParticipantIDs)

	byUser := make(map[primitive.ObjectID][]mailer.Assignment)
	for _, p := range pairs {
		byUser[p.InterviewerID] = append(byUser[p.InterviewerID], mailer.Assignment{
			Role:        string(models.SideInterviewer),
			Counterpart: users[p.IntervieweeID].FullName,
			DefaultSlot: p.DefaultTimeSlot,
		})
		byUser[p.IntervieweeID] = append(byUser[p.IntervieweeID], mailer.Assignment{
			Role:        string(models.SideInterviewee),
			Counterpart: users[p.InterviewerID].FullName,
			DefaultSlot: p.DefaultTimeSlot,
		})
	}
	for _, id := range event.ParticipantIDs {
		u, ok := users[id]
		if !ok || len(byUser[id]) == 0 {
			continue
		}
		e := mailer.BuildPairsGeneratedEmail(mailer.PairsGeneratedData{
			SiteName:    d.cfg.SiteName,
			Recipient:   participant(u),
			EventName:   event.Name,
			Round:       event.Round,
			Assignments: byUser[id],
			EventURL:    d.url("events", event.Slug),
		})
		d.send(u, e)
	}
}

func (d *Dispatcher) ProposalCreated(ctx context.Context, pair models.Pair, from primitive.ObjectID, candidates []time.Time, common *time.Time) {
	d.publish(realtime.StreamPairs, hexIDs(pair.Parties()), EventPairProposed, PairPayload{
		Pair:       pair,
		By:         from.Hex(),
		Candidates: candidates,
		Common:     common,
	})

	to, ok := pair.Counterpart(from)
	if !ok || d.mail == nil {
		return
	}
	users := d.lookup(ctx, pair.Parties())
	rcpt, ok := users[to]
	if !ok {
		return
	}
	data := d.interviewData(ctx, pair, rcpt, users[from])
	d.send(rcpt, mailer.BuildProposalEmail(mailer.ProposalData{
		InterviewData: data,
		Candidates:    candidates,
		Common:        common,
	}))
}

func (d *Dispatcher) PairConfirmed(ctx context.Context, pair models.Pair, by primitive.ObjectID) {
	d.publish(realtime.StreamPairs, hexIDs(pair.Parties()), EventPairConfirmed, PairPayload{Pair: pair, By: by.Hex()})
	d.mailBoth(ctx, pair, mailer.BuildConfirmationEmail)
}

func (d *Dispatcher) MeetingLinkSet(ctx context.Context, pair models.Pair) {
	d.publish(realtime.StreamPairs, hexIDs(pair.Parties()), EventMeetingLink, PairPayload{Pair: pair})
	d.mailBoth(ctx, pair, mailer.BuildMeetingLinkEmail)
}

func (d *Dispatcher) Reminder(ctx context.Context, pair models.Pair) {
	d.publish(realtime.StreamPairs, hexIDs(pair.Parties()), EventPairReminder, PairPayload{Pair: pair})
	d.mailBoth(ctx, pair, mailer.BuildReminderEmail)
}

// TopicProgress tells the learner's open sessions about a progress change.
func (d *Dispatcher) TopicProgress(_ context.Context, p models.TopicProgress) {
	d.publish(realtime.StreamLearning, []string{p.UserID.Hex()}, EventTopicProgress, p)
}

// mailBoth sends each party a calendar-bearing email built by build.
func (d *Dispatcher) mailBoth(ctx context.Context, pair models.Pair, build func(mailer.InterviewData) mailer.Email) {
	if d.mail == nil || pair.ScheduledAt == nil {
		return
	}
	users := d.lookup(ctx, pair.Parties())
	for _, id := range pair.Parties() {
		rcpt, ok := users[id]
		if !ok {
			continue
		}
		other, _ := pair.Counterpart(id)
		data := d.interviewData(ctx, pair, rcpt, users[other])
		e := build(data)
		e.Attachments = append(e.Attachments, d.invite(pair, data, users))
		d.send(rcpt, e)
	}
}

func (d *Dispatcher) interviewData(ctx context.Context, pair models.Pair, rcpt, other models.User) mailer.InterviewData {
	data := mailer.InterviewData{
		SiteName:    d.cfg.SiteName,
		Recipient:   participant(rcpt),
		Counterpart: participant(other),
		Role:        string(pair.SideOf(rcpt.ID)),
		EventName:   d.eventName(ctx, pair.EventID),
		When:        pair.CurrentProposedTime,
		MeetingLink: pair.MeetingLink,
		PairURL:     d.url("pairs", pair.ID.Hex()),
	}
	if pair.ScheduledAt != nil {
		data.When = *pair.ScheduledAt
	}
	return data
}

func (d *Dispatcher) invite(pair models.Pair, data mailer.InterviewData, users map[primitive.ObjectID]models.User) mailer.Attachment {
	attendees := make([]mailer.Contact, 0, 2)
	for _, id := range pair.Parties() {
		if u, ok := users[id]; ok {
			attendees = append(attendees, mailer.Contact{Name: u.FullName, Email: u.Email})
		}
	}
	summary := "Mock interview"
	if data.EventName != "" {
		summary += ": " + data.EventName
	}
	seq := int(pair.UpdatedAt.Sub(pair.CreatedAt) / time.Second)
	if seq < 0 {
		seq = 0
	}
	return mailer.InviteAttachment(mailer.Invite{
		UID:         pair.ID.Hex() + "@pairup",
		Summary:     summary,
		Description: data.PairURL,
		Start:       data.When,
		Duration:    d.cfg.InterviewDuration,
		URL:         pair.MeetingLink,
		Organizer:   mailer.Contact{Name: d.cfg.FromName, Email: d.cfg.FromEmail},
		Attendees:   attendees,
		Stamp:       pair.UpdatedAt,
		Sequence:    seq,
	})
}

func (d *Dispatcher) eventName(ctx context.Context, id primitive.ObjectID) string {
	if d.events == nil {
		return ""
	}
	ev, err := d.events.GetByID(ctx, id)
	if err != nil {
		d.log.Warn("notify: event lookup failed", zap.String("event_id", id.Hex()), zap.Error(err))
		return ""
	}
	return ev.Name
}

func (d *Dispatcher) lookup(ctx context.Context, ids []primitive.ObjectID) map[primitive.ObjectID]models.User {
	if d.contacts == nil {
		return nil
	}
	users, err := d.contacts.ContactsByID(ctx, ids)
	if err != nil {
		d.log.Warn("notify: contact lookup failed", zap.Int("ids", len(ids)), zap.Error(err))
		return nil
	}
	return users
}

func (d *Dispatcher) send(u models.User, e mailer.Email) {
	if u.Email == "" || u.Status == models.UserDisabled {
		return
	}
	e.To = u.Email
	e.ToName = u.FullName
	d.mail.Enqueue(e)
}

func (d *Dispatcher) publish(stream string, userIDs []string, event string, data any) {
	if d.bus == nil || len(userIDs) == 0 {
		return
	}
	d.bus.Publish(stream, userIDs, realtime.Message{Event: event, Data: data})
	metrics.Notifications.WithLabelValues("realtime", "sent").Inc()
}

func (d *Dispatcher) url(parts ...string) string {
	if d.cfg.BaseURL == "" {
		return ""
	}
	return d.cfg.BaseURL + "/" + strings.Join(parts, "/")
}

func participant(u models.User) mailer.Participant {
	return mailer.Participant{Name: u.FullName, Email: u.Email, Location: location(u.TimeZone)}
}

func location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}
