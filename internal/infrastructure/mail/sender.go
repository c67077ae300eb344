package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"time"

	"github.com/rs/zerolog"

	"github.com/mora-creators/onboarding/internal/core/ports"
)

const verificationSubject = "Confirm your email"

var verificationTemplate = template.Must(template.New("verify").Parse(`<p>Hi {{.Username}},</p>
<p>Welcome aboard. Confirm your email address to continue setting up your creator profile:</p>
<p><a href="{{.Link}}">Verify my email</a></p>
<p>If you did not sign up, you can ignore this message.</p>
`))

// RenderVerification builds the headers and HTML body of a verification email.
func RenderVerification(from string, msg ports.VerificationEmail) ([]byte, error) {
	var body bytes.Buffer
	if err := verificationTemplate.Execute(&body, msg); err != nil {
		return nil, fmt.Errorf("render verification email: %w", err)
	}
	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", from)
	fmt.Fprintf(&out, "To: %s\r\n", msg.To)
	fmt.Fprintf(&out, "Subject: %s\r\n", verificationSubject)
	out.WriteString("MIME-Version: 1.0\r\n")
	out.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

// SMTPConfig configures an implicit-TLS SMTP relay (port 465).
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPSender sends mail over implicit TLS with PLAIN auth.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, msg ports.VerificationEmail) error {
	raw, err := RenderVerification(s.cfg.From, msg)
	if err != nil {
		return err
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: 10 * time.Second},
		Config:    &tls.Config{ServerName: s.cfg.Host},
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(s.cfg.Host, s.cfg.Port))
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Quit()

	if s.cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	return w.Close()
}

// LogSender writes the link to the log instead of sending mail. It is used
// when no SMTP host is configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg ports.VerificationEmail) error {
	s.log.Info().Str("to", msg.To).Str("link", msg.Link).Msg("verification email (not sent, smtp disabled)")
	return nil
}
