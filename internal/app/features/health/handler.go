package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/pairup/internal/app/system/realtime"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Subscribers reports how many realtime clients follow a stream.
type Subscribers interface {
	Subscribers(stream string) int
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client   *mongo.Client
	Realtime Subscribers
	Started  time.Time
	Log      *zap.Logger
}

// NewHandler constructs a health Handler. rt may be nil.
func NewHandler(client *mongo.Client, rt Subscribers, logger *zap.Logger) *Handler {
	return &Handler{
		Client:   client,
		Realtime: rt,
		Started:  time.Now(),
		Log:      logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string         `json:"status"`
	Database string         `json:"database"`
	Uptime   string         `json:"uptime"`
	Realtime map[string]int `json:"realtime,omitempty"`
	Message  string         `json:"message,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "uptime":"1h2m3s", "realtime":{"pairs":3} }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Uptime:   time.Since(h.Started).Round(time.Second).String(),
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		respond.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	if h.Realtime != nil {
		resp.Realtime = map[string]int{}
		for _, s := range realtime.AllStreams {
			resp.Realtime[s] = h.Realtime.Subscribers(s)
		}
	}
	respond.OK(w, resp)
}
