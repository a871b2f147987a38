// internal/domain/models/pair.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pair statuses.
//
// PairRejected is part of the stored vocabulary but no operation moves a
// pair into it.
const (
	PairPending   = "pending"
	PairScheduled = "scheduled"
	PairRejected  = "rejected"
	PairCompleted = "completed"
)

// Pair is one interviewer/interviewee assignment inside an event round.
// InterviewerID != IntervieweeID always holds.
type Pair struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	EventID       primitive.ObjectID `bson:"event_id" json:"event_id"`
	Round         int                `bson:"round" json:"round"`
	InterviewerID primitive.ObjectID `bson:"interviewer_id" json:"interviewer_id"`
	IntervieweeID primitive.ObjectID `bson:"interviewee_id" json:"interviewee_id"`

	DefaultTimeSlot     time.Time  `bson:"default_time_slot" json:"default_time_slot"`
	CurrentProposedTime time.Time  `bson:"current_proposed_time" json:"current_proposed_time"`
	ScheduledAt         *time.Time `bson:"scheduled_at,omitempty" json:"scheduled_at,omitempty"`
	MeetingLink         string     `bson:"meeting_link,omitempty" json:"meeting_link,omitempty"`
	Status              string     `bson:"status" json:"status"`

	InterviewerProposals  int `bson:"interviewer_proposals" json:"interviewer_proposals"`
	IntervieweeProposals  int `bson:"interviewee_proposals" json:"interviewee_proposals"`
	InterviewerRejections int `bson:"interviewer_rejections" json:"interviewer_rejections"`
	IntervieweeRejections int `bson:"interviewee_rejections" json:"interviewee_rejections"`

	ConfirmedByID  *primitive.ObjectID `bson:"confirmed_by_id,omitempty" json:"confirmed_by_id,omitempty"`
	ReminderSentAt *time.Time          `bson:"reminder_sent_at,omitempty" json:"reminder_sent_at,omitempty"`
	CompletedAt    *time.Time          `bson:"completed_at,omitempty" json:"completed_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Side identifies which half of a pair a participant is on.
type Side string

const (
	SideNone        Side = ""
	SideInterviewer Side = "interviewer"
	SideInterviewee Side = "interviewee"
)

// SideOf returns the side userID occupies, or SideNone if userID is not a party.
func (p Pair) SideOf(userID primitive.ObjectID) Side {
	switch userID {
	case p.InterviewerID:
		return SideInterviewer
	case p.IntervieweeID:
		return SideInterviewee
	}
	return SideNone
}

// Counterpart returns the other party's id. ok is false if userID is not a party.
func (p Pair) Counterpart(userID primitive.ObjectID) (primitive.ObjectID, bool) {
	switch userID {
	case p.InterviewerID:
		return p.IntervieweeID, true
	case p.IntervieweeID:
		return p.InterviewerID, true
	}
	return primitive.NilObjectID, false
}

// Parties returns both participant ids, interviewer first.
func (p Pair) Parties() []primitive.ObjectID {
	return []primitive.ObjectID{p.InterviewerID, p.IntervieweeID}
}
