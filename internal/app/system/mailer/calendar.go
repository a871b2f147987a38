package mailer

import (
	"time"

	ics "github.com/arran4/golang-ical"
)

// Invite describes a calendar entry for a scheduled interview.
type Invite struct {
	UID         string // stable per pair so updates replace the earlier entry
	Summary     string
	Description string
	Start       time.Time
	Duration    time.Duration
	URL         string
	Organizer   Contact
	Attendees   []Contact
	Stamp       time.Time
	Sequence    int // bump when the interview moves
}

// Contact is a named address.
type Contact struct {
	Name  string
	Email string
}

// InviteAttachment renders inv as a METHOD:REQUEST iCalendar file.
func InviteAttachment(inv Invite) Attachment {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodRequest)
	cal.SetProductId("-//pairup//interviews//EN")

	ev := cal.AddEvent(inv.UID)
	stamp := inv.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}
	ev.SetDtStampTime(stamp.UTC())
	ev.SetStartAt(inv.Start.UTC())
	ev.SetEndAt(inv.Start.Add(inv.Duration).UTC())
	ev.SetSummary(inv.Summary)
	if inv.Sequence > 0 {
		ev.SetSequence(inv.Sequence)
	}
	if inv.Description != "" {
		ev.SetDescription(inv.Description)
	}
	if inv.URL != "" {
		ev.SetURL(inv.URL)
		ev.SetLocation(inv.URL)
	}
	if inv.Organizer.Email != "" {
		ev.SetOrganizer("mailto:"+inv.Organizer.Email, ics.WithCN(inv.Organizer.Name))
	}
	for _, a := range inv.Attendees {
		if a.Email == "" {
			continue
		}
		ev.AddAttendee("mailto:"+a.Email,
			ics.WithCN(a.Name),
			ics.CalendarUserTypeIndividual,
			ics.ParticipationStatusNeedsAction,
			ics.ParticipationRoleReqParticipant,
			ics.WithRSVP(true))
	}

	return Attachment{
		Filename:    "interview.ics",
		ContentType: "text/calendar; method=REQUEST; charset=UTF-8",
		Content:     []byte(cal.Serialize()),
	}
}
