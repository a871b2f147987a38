// internal/app/features/events/types.go
package events

import "github.com/dalemusser/pairup/internal/domain/models"

type createInput struct {
	Name           string   `json:"name" validate:"required,max=200"`
	Description    string   `json:"description" validate:"max=4000"`
	StartsOn       string   `json:"starts_on"`
	ParticipantIDs []string `json:"participant_ids" validate:"max=1000"`
	CoordinatorIDs []string `json:"coordinator_ids" validate:"max=50"`
}

// editInput fields left out of the body are unchanged. An explicit empty
// participant list clears the roster.
type editInput struct {
	Name           *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description    *string  `json:"description" validate:"omitempty,max=4000"`
	StartsOn       *string  `json:"starts_on"`
	ParticipantIDs []string `json:"participant_ids" validate:"max=1000"`
	CoordinatorIDs []string `json:"coordinator_ids" validate:"max=50"`
}

type viewResponse struct {
	Event     models.Event  `json:"event"`
	Pairs     []models.Pair `json:"pairs"`
	CanManage bool          `json:"can_manage"`
}

type regenerateResponse struct {
	Event models.Event  `json:"event"`
	Pairs []models.Pair `json:"pairs"`
}
