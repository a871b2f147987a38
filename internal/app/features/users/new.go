// internal/app/features/users/new.go
package users

import (
	"errors"
	"net/http"

	userstore "github.com/dalemusser/pairup/internal/app/store/users"
	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/auth"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.uber.org/zap"
)

// HandleCreate handles POST /api/users.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		respond.Error(w, h.Log, apperr.Wrap(apperr.KindValidation, err, err.Error()))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create user")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		FullName:     in.FullName,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: hash,
		Headline:     in.Headline,
		Batch:        in.Batch,
		TimeZone:     in.TimeZone,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		respond.Error(w, h.Log, apperr.Conflict(err.Error()))
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.Log.Info("user created", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))
	respond.Created(w, u)
}
