package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/spec-kit/tourism-service/internal/config"
)

// Mailer delivers a rendered message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends through an SMTP relay.
type SMTPMailer struct {
	mu      sync.Mutex
	client  *mail.Client
	from    string
	timeout time.Duration
}

// NewSMTPMailer builds a mailer from notification settings. Port 465 uses
// implicit TLS, any other port upgrades with STARTTLS when offered.
func NewSMTPMailer(cfg config.NotificationConfig) (*SMTPMailer, error) {
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTimeout(timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPPort == 465 {
		opts = append(opts, mail.WithSSL())
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.EmailFrom, timeout: timeout}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	mm := mail.NewMsg()
	if err := mm.From(m.from); err != nil {
		return fmt.Errorf("sender %q: %w", m.from, err)
	}
	if err := mm.To(msg.To); err != nil {
		return fmt.Errorf("recipient %q: %w", msg.To, err)
	}
	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextHTML, msg.HTML)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.client.DialAndSendWithContext(ctx, mm); err != nil {
		return fmt.Errorf("send %s to %s: %w", msg.Template, msg.To, err)
	}
	return nil
}

// LogMailer only logs. It is used when no SMTP host is configured.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email not sent, smtp disabled",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("template", msg.Template))
	return nil
}

// NewMailer picks the SMTP mailer when a host is configured.
func NewMailer(cfg config.NotificationConfig, logger *zap.Logger) (Mailer, error) {
	if cfg.SMTPHost == "" {
		return NewLogMailer(logger), nil
	}
	return NewSMTPMailer(cfg)
}
