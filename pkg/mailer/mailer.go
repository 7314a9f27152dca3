package mailer

import "context"

// MailerInterface defines the contract for sending a single HTML email.
// Implementations must not retry; the caller decides what a failed send means.
type MailerInterface interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
