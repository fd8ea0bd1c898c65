package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds connection parameters for the email sink.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	To         []string
	Encryption string // "none", "starttls", "ssl_tls"
}

// SMTPSink delivers alerts by email using the go-mail library.
type SMTPSink struct {
	config SMTPConfig
}

// NewSMTPSink creates a new SMTPSink with the given configuration.
func NewSMTPSink(config SMTPConfig) *SMTPSink {
	return &SMTPSink{config: config}
}

// Name returns the sink identifier.
func (s *SMTPSink) Name() string { return "smtp" }

// Ready is always true; email needs no user gesture.
func (s *SMTPSink) Ready() bool { return true }

// Send emails the alert to every configured recipient.
func (s *SMTPSink) Send(ctx context.Context, alert Alert) error {
	m, err := s.buildMessage(alert)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(s.config.Port),
		mail.WithTLSPolicy(tlsPolicyFromEncryption(s.config.Encryption)),
	}
	if s.config.Encryption == "ssl_tls" {
		opts = append(opts, mail.WithSSL())
	}
	if s.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.config.Username),
			mail.WithPassword(s.config.Password),
		)
	}

	c, err := mail.NewClient(s.config.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("sending alert email: %w", err)
	}
	return nil
}

func (s *SMTPSink) buildMessage(alert Alert) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.config.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}

	added := 0
	for _, r := range s.config.To {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if err := m.AddTo(r); err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", r, err)
		}
		added++
	}
	if added == 0 {
		return nil, fmt.Errorf("no recipients configured")
	}

	subject := buildSubject(alert.Subject())
	body := buildBody(alert)
	m.Subject(subject)

	// Plain-text fallback for clients that don't render HTML.
	m.SetBodyString(mail.TypeTextPlain, body)
	if html, err := buildEmailHTML(subject, alert); err == nil {
		m.AddAlternativeString(mail.TypeTextHTML, html)
	}
	return m, nil
}

// tlsPolicyFromEncryption converts the encryption string to a go-mail TLSPolicy.
func tlsPolicyFromEncryption(enc string) mail.TLSPolicy {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory
	case "starttls":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}
