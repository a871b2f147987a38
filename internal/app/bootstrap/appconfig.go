// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (PAIRUP_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers the framework-level settings: ports, TLS, logging, CORS and body
// limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Auth tokens
	JWTSecret    string
	JWTTTL       time.Duration
	CookieName   string
	CookieDomain string

	// Default slot window for generated pairs
	SlotStartHour     int
	SlotEndHour       int
	SlotLookaheadDays int
	SlotTimeZone      string

	// Interviews and reminders
	InterviewDuration  time.Duration
	MeetingBaseURL     string
	ReminderSchedule   string
	CompletionSchedule string
	ReminderLookahead  time.Duration

	// Email
	MailBackend    string // "log" or "sendgrid"
	SendGridAPIKey string
	MailFrom       string
	MailFromName   string
	MailQueueSize  int
	MailWorkers    int

	// Base URL for links in email and calendar invites
	BaseURL string

	// Bootstrap admin; both must be set for the account to be ensured.
	AdminEmail    string
	AdminPassword string

	// Login throttling
	LoginIPLimit     int
	LoginIPWindow    time.Duration
	LoginEmailLimit  int
	LoginEmailWindow time.Duration

	// Extra websocket origins besides the request host
	RealtimeOrigins []string

	// DB operation timeouts
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
	TimeoutBatch  time.Duration
}
