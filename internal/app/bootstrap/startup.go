// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	eventsfeature "github.com/dalemusser/pairup/internal/app/features/events"
	"github.com/dalemusser/pairup/internal/app/notify"
	"github.com/dalemusser/pairup/internal/app/scheduling"
	eventstore "github.com/dalemusser/pairup/internal/app/store/events"
	pairstore "github.com/dalemusser/pairup/internal/app/store/pairs"
	proposalstore "github.com/dalemusser/pairup/internal/app/store/proposals"
	rosterstore "github.com/dalemusser/pairup/internal/app/store/roster"
	userstore "github.com/dalemusser/pairup/internal/app/store/users"
	"github.com/dalemusser/pairup/internal/app/system/auth"
	"github.com/dalemusser/pairup/internal/app/system/mailer"
	"github.com/dalemusser/pairup/internal/app/system/metrics"
	"github.com/dalemusser/pairup/internal/app/system/ratelimit"
	"github.com/dalemusser/pairup/internal/app/system/realtime"
	"github.com/dalemusser/pairup/internal/app/system/tasks"
	"github.com/dalemusser/pairup/internal/app/system/timeouts"
	"github.com/dalemusser/pairup/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const tokenIssuer = "pairup"

// Services are the long-lived components shared by the HTTP handlers and the
// background workers.
type Services struct {
	Auth       *auth.Manager
	Limiter    *ratelimit.LoginLimiter
	Hub        *realtime.Hub
	Dispatcher *notify.Dispatcher
	Generator  *scheduling.Generator
	Negotiator *scheduling.Negotiator
	Reminders  *scheduling.Reminders
	Mail       *workers.MailQueue
	Scheduler  *tasks.Scheduler

	// events is set by BuildHandler so Shutdown can wait for background pairing.
	events *eventsfeature.Handler
	stop   context.CancelFunc
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: the
// bootstrap admin, the mail queue, the realtime hub, the scheduling services
// and the cron jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Services == nil {
		return errors.New("startup: services not allocated")
	}
	db := deps.MongoDatabase

	if appCfg.AdminEmail != "" {
		actx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), logger, "ensure admin")
		err := ensureAdmin(actx, db, appCfg.AdminEmail, appCfg.AdminPassword, logger)
		cancel()
		if err != nil {
			return err
		}
	}

	svc, err := buildServices(coreCfg, appCfg, deps.MongoClient, db, logger)
	if err != nil {
		return err
	}
	*deps.Services = *svc

	bg, stop := context.WithCancel(context.Background())
	deps.Services.stop = stop
	deps.Services.Mail.Start()
	go deps.Services.Limiter.Run(bg)
	deps.Services.Scheduler.Start()

	return nil
}

// buildServices wires the stores into the domain services. Nothing is started.
func buildServices(coreCfg *config.CoreConfig, appCfg AppConfig, client *mongo.Client, db *mongo.Database, logger *zap.Logger) (*Services, error) {
	users := userstore.New(db)
	events := eventstore.New(db)
	pairs := pairstore.New(db)
	proposals := proposalstore.New(db)

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: appCfg.JWTSecret,
		Issuer: tokenIssuer,
		TTL:    appCfg.JWTTTL,
	})
	if err != nil {
		return nil, err
	}
	am := &auth.Manager{
		Tokens:       tokens,
		Users:        users,
		CookieName:   appCfg.CookieName,
		CookieDomain: appCfg.CookieDomain,
		Secure:       coreCfg != nil && coreCfg.Env == "prod",
		Log:          logger,
	}

	m, err := mailer.New(mailer.Config{
		Backend:  appCfg.MailBackend,
		APIKey:   appCfg.SendGridAPIKey,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger.Named("mailer"))
	if err != nil {
		return nil, err
	}
	queue := workers.NewMailQueue(m, logger.Named("mailqueue"), appCfg.MailQueueSize, appCfg.MailWorkers)

	hub := realtime.NewHub(logger.Named("realtime"), appCfg.RealtimeOrigins...)
	hub.OnConnect = metrics.RealtimeConnections.Inc
	hub.OnDisconnect = metrics.RealtimeConnections.Dec

	dispatcher := notify.New(notify.Config{
		BaseURL:           appCfg.BaseURL,
		FromName:          appCfg.MailFromName,
		FromEmail:         appCfg.MailFrom,
		InterviewDuration: appCfg.InterviewDuration,
	}, users, events, queue, hub, logger.Named("notify"))

	window, err := slotWindow(appCfg)
	if err != nil {
		return nil, err
	}
	rng := scheduling.SharedRand{}
	gen := &scheduling.Generator{
		Roster:   rosterstore.New(client, db, logger),
		Slots:    &scheduling.SlotPicker{Window: window, Rand: rng, Now: time.Now},
		Rand:     rng,
		Notifier: dispatcher,
		Now:      time.Now,
	}
	neg := &scheduling.Negotiator{
		Pairs:     pairs,
		Proposals: proposals,
		Notifier:  dispatcher,
		Now:       time.Now,
	}

	newLink, err := scheduling.LinkGenerator(appCfg.MeetingBaseURL)
	if err != nil {
		return nil, err
	}
	rem := &scheduling.Reminders{
		Store:             pairs,
		Notifier:          dispatcher,
		Lookahead:         appCfg.ReminderLookahead,
		InterviewDuration: appCfg.InterviewDuration,
		NewLink:           newLink,
		Now:               time.Now,
		Log:               logger.Named("reminders"),
	}

	sched := tasks.NewScheduler(logger.Named("tasks"), tasks.WithJobTimeout(timeouts.Batch()))
	jobs := []tasks.Job{
		tasks.ReminderJob(rem, logger, appCfg.ReminderSchedule),
		tasks.CompletionJob(rem, logger, appCfg.CompletionSchedule),
	}
	for _, j := range jobs {
		if err := sched.Add(j); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", j.Name, err)
		}
	}

	limiter := ratelimit.NewLoginLimiter(ratelimit.Config{
		IPLimit:     appCfg.LoginIPLimit,
		IPWindow:    appCfg.LoginIPWindow,
		EmailLimit:  appCfg.LoginEmailLimit,
		EmailWindow: appCfg.LoginEmailWindow,
	})

	return &Services{
		Auth:       am,
		Limiter:    limiter,
		Hub:        hub,
		Dispatcher: dispatcher,
		Generator:  gen,
		Negotiator: neg,
		Reminders:  rem,
		Mail:       queue,
		Scheduler:  sched,
	}, nil
}

// ensureAdmin creates the configured admin or promotes an existing account
// with that email. An existing account keeps its password.
func ensureAdmin(ctx context.Context, db *mongo.Database, email, password string, logger *zap.Logger) error {
	if password == "" {
		return errors.New("admin_password is required with admin_email")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	created, err := userstore.New(db).EnsureAdmin(ctx, "Administrator", email, hash)
	if err != nil {
		logger.Error("ensure admin failed", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		logger.Info("created bootstrap admin", zap.String("email", email))
	} else {
		logger.Info("bootstrap admin present", zap.String("email", email))
	}
	return nil
}

// stopServices halts the background workers. It waits for in-flight pairing
// runs, scheduled jobs and queued mail, in that order, so jobs that enqueue
// mail finish before the queue drains.
func stopServices(ctx context.Context, svc *Services, logger *zap.Logger) error {
	if svc == nil {
		return nil
	}
	var errs error
	if svc.stop != nil {
		svc.stop()
	}
	if svc.events != nil {
		errs = multierr.Append(errs, waitOrTimeout(ctx, "background pairing", svc.events.Wait))
	}
	if svc.Scheduler != nil {
		select {
		case <-svc.Scheduler.Stop().Done():
		case <-ctx.Done():
			errs = multierr.Append(errs, fmt.Errorf("scheduled jobs: %w", ctx.Err()))
		}
	}
	if svc.Mail != nil {
		errs = multierr.Append(errs, waitOrTimeout(ctx, "mail queue", svc.Mail.Stop))
	}
	if errs != nil {
		logger.Warn("service shutdown incomplete", zap.Error(errs))
	}
	return errs
}

func waitOrTimeout(ctx context.Context, what string, wait func()) error {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", what, ctx.Err())
	}
}
