// internal/app/features/users/edit.go
package users

import (
	"errors"
	"net/http"

	"github.com/dalemusser/pairup/internal/app/features/shared"
	userstore "github.com/dalemusser/pairup/internal/app/store/users"
	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/auth"
	"github.com/dalemusser/pairup/internal/app/system/authz"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"github.com/dalemusser/pairup/internal/domain/models"
	"go.uber.org/zap"
)

// HandleEdit handles PATCH /api/users/{id}. Absent fields are unchanged.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	var in editInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	// An admin cannot lock themselves out.
	if _, _, self, _ := authz.UserCtx(r); self == id {
		if (in.Role != nil && *in.Role != models.RoleAdmin) || (in.Status != nil && *in.Status != models.UserActive) {
			respond.Error(w, h.Log, apperr.InvalidState("you cannot demote or disable your own account"))
			return
		}
	}

	upd := userstore.Update{
		FullName: in.FullName,
		Email:    in.Email,
		Role:     in.Role,
		Status:   in.Status,
		Headline: in.Headline,
		Batch:    in.Batch,
		TimeZone: in.TimeZone,
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			respond.Error(w, h.Log, apperr.Wrap(apperr.KindValidation, err, err.Error()))
			return
		}
		upd.PasswordHash = &hash
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update user")
	defer cancel()

	u, err := h.Users.Update(ctx, id, upd)
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		respond.Error(w, h.Log, apperr.Conflict(err.Error()))
		return
	case err != nil:
		respond.Error(w, h.Log, shared.NotFound(err, "user"))
		return
	}
	h.Log.Info("user updated", zap.String("user_id", id.Hex()))
	respond.OK(w, u)
}

// HandleDisable handles DELETE /api/users/{id}. Users are disabled, never
// removed, so pairs and feedback keep their references.
func (h *Handler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	id, err := shared.PathID(r, "id")
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if _, _, self, _ := authz.UserCtx(r); self == id {
		respond.Error(w, h.Log, apperr.InvalidState("you cannot disable your own account"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "disable user")
	defer cancel()

	if err := h.Users.Disable(ctx, id); err != nil {
		respond.Error(w, h.Log, shared.NotFound(err, "user"))
		return
	}
	h.Log.Info("user disabled", zap.String("user_id", id.Hex()))
	w.WriteHeader(http.StatusNoContent)
}
