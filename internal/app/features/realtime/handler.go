// Package realtime exposes the websocket endpoint of the realtime hub.
package realtime

import (
	"net/http"
	"strings"

	"github.com/dalemusser/pairup/internal/app/system/auth"
	"github.com/dalemusser/pairup/internal/app/system/realtime"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Hub *realtime.Hub
	Log *zap.Logger
}

func NewHandler(hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{Hub: hub, Log: logger}
}

// Routes mounts the websocket under "/api/realtime".
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.With(auth.RequireSignedIn).Get("/", h.Serve)
	return r
}

// Serve upgrades GET /api/realtime?streams=pairs,learning for the signed-in
// user. Without streams the connection follows every stream.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Error(w, "sign in required", http.StatusUnauthorized)
		return
	}
	var streams []string
	for _, s := range strings.Split(query.Get(r, "streams"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			streams = append(streams, s)
		}
	}
	h.Log.Debug("realtime connect", zap.String("user_id", u.ID), zap.Strings("streams", streams))
	h.Hub.Serve(u.ID, streams, w, r)
}
