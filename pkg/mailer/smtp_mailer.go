package mailer

import (
	"context"
	"fmt"
	"net/smtp"
)

// SMTPMailer sends email over plain SMTP. Useful for self-hosted deployments
// and local testing against a catch-all relay.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	var auth smtp.Auth
	if m.username != "" && m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.from, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			htmlBody,
	)

	// net/smtp has no context support; run the send in a goroutine so a hung
	// relay cannot outlive the request deadline.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.from, []string{to}, msg)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mailer.SMTPMailer.Send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mailer.SMTPMailer.Send: %w", ctx.Err())
	}
}
