package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/skillsync/skillsync-server/internal/config"
)

// SMTPMailer delivers mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	cfg     config.MailConfig
	appName string
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg config.MailConfig, appName string) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, appName: appName}
}

func (m *SMTPMailer) SendWelcomeEmail(ctx context.Context, to, firstName string) error {
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nWelcome to %s! Your account has been created.\r\n\r\nThe %s Team\r\n",
		firstName, m.appName, m.appName,
	)
	return m.send(ctx, to, "Welcome to "+m.appName, body)
}

func (m *SMTPMailer) SendLoginEmail(ctx context.Context, to, ipAddress, userAgent string, at time.Time) error {
	body := fmt.Sprintf(
		"A new login to your %s account was detected.\r\n\r\nTime: %s\r\nIP address: %s\r\nDevice: %s\r\n\r\nIf this was not you, reset your password immediately.\r\n",
		m.appName, at.UTC().Format(time.RFC1123), ipAddress, userAgent,
	)
	return m.send(ctx, to, "New login to your account", body)
}

func (m *SMTPMailer) SendOtpEmail(ctx context.Context, to, otp string) error {
	body := fmt.Sprintf(
		"Your %s password reset code is: %s\r\n\r\nThe code expires shortly. If you did not request a reset, ignore this email.\r\n",
		m.appName, otp,
	)
	return m.send(ctx, to, "Password reset code", body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prefix := m.cfg.GetMailSubjectPrefix()
	if prefix != "" && !strings.HasPrefix(subject, prefix) {
		subject = prefix + " " + subject
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.GetMailSender(),
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	addr := m.cfg.GetSmtpHost() + ":" + m.cfg.GetSmtpPort()
	auth := smtp.PlainAuth("", m.cfg.GetSmtpAccount(), m.cfg.GetSmtpPassword(), m.cfg.GetSmtpHost())
	if err := smtp.SendMail(addr, auth, m.cfg.GetMailSender(), []string{to}, []byte(msg)); err != nil {
		return errors.Wrapf(err, "[SMTPMailer.send] to %s", to)
	}
	return nil
}
