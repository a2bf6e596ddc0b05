// Package email is the outbound-notification collaborator of the auth
// core. The flows depend only on the Mailer interface; delivery
// failures are surfaced so callers can roll back issued secrets.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/trailbook/trailbook-be/internal/models"
)

// Mailer delivers the transactional messages the auth flows send.
type Mailer interface {
	SendWelcome(ctx context.Context, to models.User, accountURL string) error
	SendLoginCode(ctx context.Context, to models.User, code string) error
	SendPasswordReset(ctx context.Context, to models.User, resetURL string) error
}

// SMTPConfig holds connection settings for the SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendWelcome(_ context.Context, to models.User, accountURL string) error {
	body := fmt.Sprintf("Hi %s,\r\n\r\nWelcome to Trailbook! Manage your account at %s.\r\n", to.Name, accountURL)
	return m.send(to.Email, "Welcome to Trailbook!", body)
}

func (m *SMTPMailer) SendLoginCode(_ context.Context, to models.User, code string) error {
	body := fmt.Sprintf("Hi %s,\r\n\r\nYour login code is %s. It is valid for 10 minutes.\r\n", to.Name, code)
	return m.send(to.Email, "Your Trailbook login code", body)
}

func (m *SMTPMailer) SendPasswordReset(_ context.Context, to models.User, resetURL string) error {
	body := fmt.Sprintf("Hi %s,\r\n\r\nReset your password at %s. The link is valid for 10 minutes.\r\n"+
		"If you didn't request a reset, ignore this email.\r\n", to.Name, resetURL)
	return m.send(to.Email, "Your password reset token (valid for 10 minutes)", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.cfg.From, to, subject, body)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used
// in development when no SMTP relay is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendWelcome(_ context.Context, to models.User, accountURL string) error {
	m.logger.Info("mail: welcome", "to", to.Email, "url", accountURL)
	return nil
}

func (m *LogMailer) SendLoginCode(_ context.Context, to models.User, code string) error {
	m.logger.Info("mail: login code", "to", to.Email, "code", code)
	return nil
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to models.User, resetURL string) error {
	m.logger.Info("mail: password reset", "to", to.Email, "url", resetURL)
	return nil
}
