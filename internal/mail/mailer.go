// Package mail delivers outbound notification email. Delivery is
// fire-and-forget: registration must never fail because SMTP is down.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/ShazeRx/pigeon-app/pkg/config"
	"github.com/ShazeRx/pigeon-app/pkg/logging"
)

// Sender delivers a single email
type Sender interface {
	Send(to, subject, body string) error
}

// ActivationMail builds the email-verification message for a freshly
// registered user.
func ActivationMail(baseURL, username, token string) (subject, body string) {
	link := fmt.Sprintf("%s/api/auth/email-verify/?token=%s", strings.TrimRight(baseURL, "/"), token)
	subject = "Verify your email"
	body = fmt.Sprintf("Hi %s. Use link below to verify your email.\n\n%s", username, link)
	return subject, body
}

// SMTPSender sends mail through a plain SMTP relay
type SMTPSender struct {
	cfg    *config.MailConfig
	logger *zap.Logger
}

// NewSender returns an SMTP-backed sender, or a logging no-op sender when
// mail is disabled in configuration.
func NewSender(cfg *config.MailConfig) Sender {
	logger := logging.GetLogger().With(zap.String("component", "mail"))
	if !cfg.Enabled {
		logger.Info("Outbound mail disabled")
		return &noopSender{logger: logger}
	}
	return &SMTPSender{cfg: cfg, logger: logger}
}

// Send delivers the message to a single recipient
func (s *SMTPSender) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("mail: sending to %s: %w", to, err)
	}

	s.logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// noopSender logs instead of sending. Used when mail is disabled and in
// tests.
type noopSender struct {
	logger *zap.Logger
}

func (s *noopSender) Send(to, subject, body string) error {
	s.logger.Info("Email suppressed (mail disabled)",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
