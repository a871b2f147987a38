// Package mailer sends transactional email through SendGrid, or to the log
// when no provider is configured.
package mailer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Backends.
const (
	BackendLog      = "log"
	BackendSendGrid = "sendgrid"
)

const (
	defaultHost  = "https://api.sendgrid.com"
	sendEndpoint = "/v3/mail/send"
)

// Email is one outbound message.
type Email struct {
	To          string
	ToName      string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Attachment is a file sent along with an Email. Content is raw bytes.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Config selects and configures the delivery backend.
type Config struct {
	Backend  string
	APIKey   string
	From     string
	FromName string
	Host     string // SendGrid API host; empty means the public API
}

// Mailer delivers Email values.
type Mailer struct {
	cfg  Config
	log  *zap.Logger
	send func(ctx context.Context, e Email) error
}

// New builds a Mailer for cfg.Backend.
func New(cfg Config, log *zap.Logger) (*Mailer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Mailer{cfg: cfg, log: log}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendLog:
		m.send = m.sendLog
	case BackendSendGrid:
		if cfg.APIKey == "" {
			return nil, errors.New("mailer: sendgrid backend requires an API key")
		}
		if cfg.From == "" {
			return nil, errors.New("mailer: sendgrid backend requires a from address")
		}
		if m.cfg.Host == "" {
			m.cfg.Host = defaultHost
		}
		m.send = m.sendGrid
	default:
		return nil, fmt.Errorf("mailer: unknown backend %q", cfg.Backend)
	}
	return m, nil
}

// Send delivers e. It returns an error if e has no recipient or the provider
// rejects it.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if strings.TrimSpace(e.To) == "" {
		return errors.New("mailer: missing recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.send(ctx, e)
}

func (m *Mailer) sendLog(_ context.Context, e Email) error {
	names := make([]string, 0, len(e.Attachments))
	for _, a := range e.Attachments {
		names = append(names, a.Filename)
	}
	m.log.Info("email (log backend)",
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.Strings("attachments", names),
		zap.String("body", e.TextBody))
	return nil
}

func (m *Mailer) sendGrid(_ context.Context, e Email) error {
	req := sendgrid.GetRequest(m.cfg.APIKey, sendEndpoint, m.cfg.Host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.buildV3(e))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("mailer: sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("mailer: sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func (m *Mailer) buildV3(e Email) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(e.ToName, e.To))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(sgmail.NewEmail(m.cfg.FromName, m.cfg.From))
	v3.Subject = e.Subject
	v3.AddPersonalizations(p)

	// SendGrid requires text/plain before text/html.
	if e.TextBody != "" {
		v3.AddContent(sgmail.NewContent("text/plain", e.TextBody))
	}
	if e.HTMLBody != "" {
		v3.AddContent(sgmail.NewContent("text/html", e.HTMLBody))
	}
	for _, a := range e.Attachments {
		v3.AddAttachment(&sgmail.Attachment{
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			Type:        a.ContentType,
			Filename:    a.Filename,
			Disposition: "attachment",
		})
	}
	return v3
}
