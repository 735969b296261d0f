package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/frahmantamala/hospital-management/internal"
	"github.com/frahmantamala/hospital-management/pkg/logger"
)

var subjects = map[string]string{
	"email_verification": "Verify your hospital account",
	"password_reset":     "Your password reset code",
	"login_verification": "Your login verification code",
	"account_unlock":     "Your account unlock code",
}

// SMTPMailer delivers one-time codes over plain SMTP. Sends are bounded by
// the configured timeout so a wedged relay cannot stall auth flows.
type SMTPMailer struct {
	cfg internal.EmailConfig
}

func NewSMTPMailer(cfg internal.EmailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendOTP(ctx context.Context, recipient, code, purpose string) error {
	subject, ok := subjects[purpose]
	if !ok {
		subject = "Your verification code"
	}

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n"+
		"Your one-time code is: %s\r\n\r\n"+
		"If you did not request this code, contact the hospital IT desk.\r\n",
		m.cfg.FromAddress, recipient, subject, code)

	timeout := m.cfg.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
		var auth smtp.Auth
		if m.cfg.Username != "" {
			auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		}
		done <- smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{recipient}, []byte(body))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

// LogMailer writes codes to the log instead of sending mail. Used in
// development environments without an SMTP relay.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) SendOTP(_ context.Context, recipient, code, purpose string) error {
	logger.LoggerWrapper().Info("otp issued (log mailer)",
		"recipient", recipient, "purpose", purpose, "code", code)
	return nil
}
