package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer delivers login codes over plain SMTP. Auth is skipped when no
// username is configured, which is what local catch-all relays expect.
type Mailer struct {
	cfg  Config
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg Config) *Mailer {
	return &Mailer{
		cfg:  cfg,
		send: smtp.SendMail,
	}
}

func (m *Mailer) SendLoginCode(ctx context.Context, email, code string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return fmt.Errorf("email and code are required")
	}
	if m.cfg.Host == "" || m.cfg.Port <= 0 {
		return fmt.Errorf("smtp is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := buildMessage(m.cfg.From, email, code)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, envelopeFrom(m.cfg.From), []string{email}, msg); err != nil {
		return fmt.Errorf("send login code mail: %w", err)
	}

	return nil
}

func buildMessage(from, to, code string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Your Raydius Login Code\r\n")
	b.WriteString("\r\n")
	b.WriteString("Your one-time login code is: " + code + ". It will expire in 10 minutes.\r\n")
	return []byte(b.String())
}

func envelopeFrom(from string) string {
	// "Name <addr>" display form is fine for headers but not for the
	// SMTP envelope.
	if start := strings.LastIndex(from, "<"); start >= 0 {
		if end := strings.LastIndex(from, ">"); end > start {
			return from[start+1 : end]
		}
	}
	return from
}
