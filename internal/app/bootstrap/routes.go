// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	activityfeature "github.com/dalemusser/pairup/internal/app/features/activity"
	curriculumfeature "github.com/dalemusser/pairup/internal/app/features/curriculum"
	eventsfeature "github.com/dalemusser/pairup/internal/app/features/events"
	feedbackfeature "github.com/dalemusser/pairup/internal/app/features/feedback"
	healthfeature "github.com/dalemusser/pairup/internal/app/features/health"
	loginfeature "github.com/dalemusser/pairup/internal/app/features/login"
	pairsfeature "github.com/dalemusser/pairup/internal/app/features/pairs"
	progressfeature "github.com/dalemusser/pairup/internal/app/features/progress"
	realtimefeature "github.com/dalemusser/pairup/internal/app/features/realtime"
	usersfeature "github.com/dalemusser/pairup/internal/app/features/users"
	"github.com/dalemusser/pairup/internal/app/system/apperr"
	"github.com/dalemusser/pairup/internal/app/system/metrics"
	"github.com/dalemusser/pairup/internal/app/system/respond"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after Startup, so deps.Services holds the auth manager,
// the realtime hub and the scheduling services. Every API feature is mounted
// under /api; health and metrics stay at the root for probes and scrapers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := deps.Services
	if svc == nil || svc.Auth == nil {
		return nil, errors.New("build handler: services not started")
	}
	db := deps.MongoDatabase

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// Global auth middleware: loads the SessionUser into context when a valid
	// token is present. auth.CurrentUser(r) reads it back in handlers.
	r.Use(svc.Auth.LoadUser)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, logger, apperr.NotFound("no such endpoint"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusMethodNotAllowed, respond.ErrorBody{
			Error:   "method_not_allowed",
			Message: "method not allowed",
		})
	})

	// Probes
	healthHandler := healthfeature.NewHandler(deps.MongoClient, svc.Hub, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	eventsHandler := eventsfeature.NewHandler(db, svc.Generator, logger)
	svc.events = eventsHandler

	r.Route("/api", func(api chi.Router) {
		// Authentication
		loginHandler := loginfeature.NewHandler(db, svc.Auth, svc.Limiter, logger)
		api.Mount("/auth", loginfeature.Routes(loginHandler))

		// Accounts (admin)
		api.Mount("/users", usersfeature.Routes(usersfeature.NewHandler(db, logger)))

		// Events, pairing and negotiation
		api.Mount("/events", eventsfeature.Routes(eventsHandler))
		api.Mount("/pairs", pairsfeature.Routes(pairsfeature.NewHandler(db, svc.Negotiator, logger)))
		api.Mount("/feedback", feedbackfeature.Routes(feedbackfeature.NewHandler(db, logger)))

		// Learning
		api.Mount("/curriculum", curriculumfeature.Routes(curriculumfeature.NewHandler(db, logger)))
		api.Mount("/progress", progressfeature.Routes(progressfeature.NewHandler(db, svc.Dispatcher, logger)))

		// Analytics
		api.Mount("/activity", activityfeature.Routes(activityfeature.NewHandler(db, logger)))

		// Websocket bus
		api.Mount("/realtime", realtimefeature.Routes(realtimefeature.NewHandler(svc.Hub, logger)))
	})

	return r, nil
}
