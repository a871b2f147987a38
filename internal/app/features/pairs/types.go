// internal/app/features/pairs/types.go
package pairs

import (
	"time"

	"github.com/dalemusser/pairup/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type proposeInput struct {
	Candidates []string `json:"candidates" validate:"required,min=1,max=50"`
}

type confirmInput struct {
	ScheduledAt string `json:"scheduled_at" validate:"required"`
	MeetingLink string `json:"meeting_link" validate:"omitempty,url"`
}

type meetingLinkInput struct {
	MeetingLink string `json:"meeting_link" validate:"required,url"`
}

// person is the public card of a pair participant.
type person struct {
	ID       primitive.ObjectID `json:"id"`
	FullName string             `json:"full_name"`
	Email    string             `json:"email,omitempty"`
}

type viewResponse struct {
	Pair        models.Pair           `json:"pair"`
	Interviewer person                `json:"interviewer"`
	Interviewee person                `json:"interviewee"`
	Proposals   []models.SlotProposal `json:"proposals"`
	// Common is the earliest slot both latest proposals share.
	Common *time.Time `json:"common,omitempty"`
	Side   string     `json:"side,omitempty"`
}
