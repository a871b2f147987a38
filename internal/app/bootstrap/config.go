// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/pairup/internal/app/scheduling"
	"github.com/dalemusser/pairup/internal/app/system/mailer"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const minJWTSecretLen = 32

// appConfigKeys defines the configuration keys for PairUp.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: PAIRUP_MONGO_URI, PAIRUP_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "pairup", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// Auth
	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "HS256 signing secret (at least 32 bytes)"},
	{Name: "jwt_ttl", Default: "24h", Desc: "Lifetime of issued tokens"},
	{Name: "cookie_name", Default: "pairup_token", Desc: "Auth cookie name"},
	{Name: "cookie_domain", Default: "", Desc: "Auth cookie domain (blank means current host)"},

	// Slot window
	{Name: "slot_window_start_hour", Default: 9, Desc: "First hour (local) a default slot may start"},
	{Name: "slot_window_end_hour", Default: 17, Desc: "Hour (local) default slots must start before"},
	{Name: "slot_lookahead_days", Default: 7, Desc: "Days ahead a default slot may fall on"},
	{Name: "slot_time_zone", Default: "UTC", Desc: "IANA time zone of the slot window"},

	// Interviews and reminders
	{Name: "interview_duration", Default: "1h", Desc: "Interview length; scheduled pairs complete this long after start"},
	{Name: "meeting_base_url", Default: "https://meet.jit.si/pairup", Desc: "Prefix for generated meeting links"},
	{Name: "reminder_schedule", Default: "@every 5m", Desc: "Cron spec for the reminder sweep"},
	{Name: "completion_schedule", Default: "@every 15m", Desc: "Cron spec for the completion sweep"},
	{Name: "reminder_lookahead", Default: "24h", Desc: "How far ahead the reminder sweep looks"},

	// Email
	{Name: "mail_backend", Default: "log", Desc: "Email backend: 'log' or 'sendgrid'"},
	{Name: "sendgrid_api_key", Default: "", Desc: "SendGrid API key"},
	{Name: "mail_from", Default: "noreply@pairup.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "PairUp", Desc: "From display name"},
	{Name: "mail_queue_size", Default: 256, Desc: "Buffered outbound email"},
	{Name: "mail_workers", Default: 2, Desc: "Concurrent email deliveries"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for links in email and invites"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the admin ensured on startup"},
	{Name: "admin_password", Default: "", Desc: "Password for a newly created bootstrap admin"},

	// Login throttling
	{Name: "login_ip_limit", Default: 10, Desc: "Login attempts per IP per window"},
	{Name: "login_ip_window", Default: "1m", Desc: "Per-IP login window"},
	{Name: "login_email_limit", Default: 5, Desc: "Login attempts per email per window"},
	{Name: "login_email_window", Default: "5m", Desc: "Per-email login window"},

	{Name: "realtime_origins", Default: "", Desc: "Comma-separated extra websocket origins"},

	// Timeouts
	{Name: "timeout_ping", Default: "2s", Desc: "Health ping timeout"},
	{Name: "timeout_short", Default: "5s", Desc: "Single-document operation timeout"},
	{Name: "timeout_medium", Default: "10s", Desc: "List and aggregation timeout"},
	{Name: "timeout_long", Default: "30s", Desc: "Pairing generation timeout"},
	{Name: "timeout_batch", Default: "2m", Desc: "Index reconciliation and sweep timeout"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// Precedence is flags > env (PAIRUP_*) > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "PAIRUP", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:    appValues.String("jwt_secret"),
		JWTTTL:       appValues.Duration("jwt_ttl", 24*time.Hour),
		CookieName:   appValues.String("cookie_name"),
		CookieDomain: appValues.String("cookie_domain"),

		SlotStartHour:     appValues.Int("slot_window_start_hour"),
		SlotEndHour:       appValues.Int("slot_window_end_hour"),
		SlotLookaheadDays: appValues.Int("slot_lookahead_days"),
		SlotTimeZone:      appValues.String("slot_time_zone"),

		InterviewDuration:  appValues.Duration("interview_duration", time.Hour),
		MeetingBaseURL:     appValues.String("meeting_base_url"),
		ReminderSchedule:   appValues.String("reminder_schedule"),
		CompletionSchedule: appValues.String("completion_schedule"),
		ReminderLookahead:  appValues.Duration("reminder_lookahead", 24*time.Hour),

		MailBackend:    appValues.String("mail_backend"),
		SendGridAPIKey: appValues.String("sendgrid_api_key"),
		MailFrom:       appValues.String("mail_from"),
		MailFromName:   appValues.String("mail_from_name"),
		MailQueueSize:  appValues.Int("mail_queue_size"),
		MailWorkers:    appValues.Int("mail_workers"),

		BaseURL: appValues.String("base_url"),

		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),

		LoginIPLimit:     appValues.Int("login_ip_limit"),
		LoginIPWindow:    appValues.Duration("login_ip_window", time.Minute),
		LoginEmailLimit:  appValues.Int("login_email_limit"),
		LoginEmailWindow: appValues.Duration("login_email_window", 5*time.Minute),

		RealtimeOrigins: splitList(appValues.String("realtime_origins")),

		TimeoutPing:   appValues.Duration("timeout_ping", 2*time.Second),
		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
		TimeoutBatch:  appValues.Duration("timeout_batch", 2*time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation. Every problem is
// reported at once so a misconfigured deployment fails with the full list.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	var errs error

	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		errs = multierr.Append(errs, fmt.Errorf("invalid MongoDB URI: %w", err))
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		errs = multierr.Append(errs, errors.New("mongo_database must be set"))
	}

	if len(appCfg.JWTSecret) < minJWTSecretLen {
		errs = multierr.Append(errs, fmt.Errorf("jwt_secret must be at least %d bytes", minJWTSecretLen))
	}
	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.JWTSecret, "dev-only") {
		errs = multierr.Append(errs, errors.New("jwt_secret must be changed from the development default in prod"))
	}

	if _, err := slotWindow(appCfg); err != nil {
		errs = multierr.Append(errs, err)
	}
	if appCfg.InterviewDuration <= 0 {
		errs = multierr.Append(errs, errors.New("interview_duration must be positive"))
	}
	if _, err := scheduling.LinkGenerator(appCfg.MeetingBaseURL); err != nil {
		errs = multierr.Append(errs, err)
	}

	switch strings.ToLower(appCfg.MailBackend) {
	case "", mailer.BackendLog:
	case mailer.BackendSendGrid:
		if appCfg.SendGridAPIKey == "" {
			errs = multierr.Append(errs, errors.New("mail_backend sendgrid requires sendgrid_api_key"))
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown mail_backend %q", appCfg.MailBackend))
	}

	if (appCfg.AdminEmail == "") != (appCfg.AdminPassword == "") {
		errs = multierr.Append(errs, errors.New("admin_email and admin_password must be set together"))
	}

	return errs
}

// slotWindow builds the default-slot window from config.
func slotWindow(appCfg AppConfig) (scheduling.SlotWindow, error) {
	tz := appCfg.SlotTimeZone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return scheduling.SlotWindow{}, fmt.Errorf("slot_time_zone %q: %w", tz, err)
	}
	w := scheduling.SlotWindow{
		StartHour:     appCfg.SlotStartHour,
		EndHour:       appCfg.SlotEndHour,
		LookaheadDays: appCfg.SlotLookaheadDays,
		Location:      loc,
	}
	if err := w.Validate(); err != nil {
		return scheduling.SlotWindow{}, err
	}
	return w, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
