package donation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"donate-and-notify/internal/models"
	"donate-and-notify/internal/modules/content"
	"donate-and-notify/pkg/copygen"
	"donate-and-notify/pkg/mailer"
	"donate-and-notify/pkg/payment"
)

// Outbound call budgets. A timeout takes the same failure branch as any
// other error from that collaborator; nothing here retries.
const (
	generateTimeout = 30 * time.Second
	sendTimeout     = 15 * time.Second
	impactTimeout   = 10 * time.Second
)

// minAmount is one whole currency unit in minor units. Enforced here as well
// as in handler validation so no caller path reaches the provider with a
// sub-threshold charge.
const minAmount = 100

// ServiceInterface defines the contract for the donation service.
type ServiceInterface interface {
	CreateCheckoutSession(ctx context.Context, req models.CreateCheckoutSessionRequest) (*models.CheckoutSessionResponse, error)
	GetSessionStatus(ctx context.Context, sessionID string) (*models.SessionStatusResponse, error)
	FinalizeCheckout(ctx context.Context, payload []byte, sigHeader string) error
	ListDonations(ctx context.Context) ([]*models.Donation, error)
	ResendEmail(ctx context.Context, id int64) (*models.Donation, error)
}

// Service implements the donation flow: session creation before payment,
// webhook-driven finalization after it, and the admin operations.
type Service struct {
	repo            RepositoryInterface
	gateway         payment.GatewayInterface
	generator       copygen.GeneratorInterface
	mailer          mailer.MailerInterface
	contentService  content.ServiceInterface
	defaultCurrency string
	logger          *slog.Logger
}

// NewService creates a new donation service.
func NewService(
	repo RepositoryInterface,
	gateway payment.GatewayInterface,
	generator copygen.GeneratorInterface,
	m mailer.MailerInterface,
	contentService content.ServiceInterface,
	defaultCurrency string,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:            repo,
		gateway:         gateway,
		generator:       generator,
		mailer:          m,
		contentService:  contentService,
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

// CreateCheckoutSession opens a hosted checkout for a validated donation
// request. No local state is written; the session belongs to the provider.
func (s *Service) CreateCheckoutSession(ctx context.Context, req models.CreateCheckoutSessionRequest) (*models.CheckoutSessionResponse, error) {
	if req.Amount < minAmount {
		return nil, models.ErrAmountTooSmall
	}
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}

	sess, err := s.gateway.CreateSession(ctx, payment.CreateSessionInput{
		Amount:   req.Amount,
		Currency: currency,
		Email:    req.Email,
		Name:     req.Name,
		Message:  req.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("service.CreateCheckoutSession: %w", err)
	}

	return &models.CheckoutSessionResponse{ID: sess.ID, URL: sess.URL}, nil
}

// GetSessionStatus returns display-safe session fields for the thank-you
// page. Read-only; nothing here is trusted for finalization.
func (s *Service) GetSessionStatus(ctx context.Context, sessionID string) (*models.SessionStatusResponse, error) {
	sess, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("service.GetSessionStatus: %w", err)
	}
	return &models.SessionStatusResponse{
		ID:       sess.ID,
		Amount:   sess.Amount,
		Currency: sess.Currency,
		Email:    sess.Email,
		Name:     sess.Name,
		Message:  sess.Message,
		Status:   sess.Status,
	}, nil
}

// FinalizeCheckout ensures a completed checkout is recorded and the donor
// notified, exactly once per payment intent. Webhook delivery is
// at-least-once, so every step tolerates a replay:
//
//   - bad signature → error, no side effects
//   - event type we don't handle → ack and ignore
//   - already recorded (lookup hit or insert conflict) → ack and ignore
//   - copy generation failure → deterministic fallback, continue
//   - persistence failure → error, provider retries the delivery
//   - send failure → record stays with emailed=false, still ack
//   - impact write failure → ignored
func (s *Service) FinalizeCheckout(ctx context.Context, payload []byte, sigHeader string) error {
	ev, err := s.gateway.VerifyAndParseWebhook(payload, sigHeader)
	if err != nil {
		return err
	}
	if ev == nil {
		return nil
	}

	if _, err := s.repo.FindByPaymentIntentID(ctx, ev.PaymentIntentID); err == nil {
		s.logger.Info("duplicate webhook delivery, skipping", "payment_intent_id", ev.PaymentIntentID)
		return nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("service.FinalizeCheckout: idempotency lookup: %w", err)
	}

	c := s.generateCopy(ctx, ev)

	created, err := s.repo.Create(ctx, &models.Donation{
		PaymentIntentID: ev.PaymentIntentID,
		SessionID:       ev.SessionID,
		Email:           ev.Email,
		Amount:          ev.Amount,
		Currency:        ev.Currency,
		Name:            ev.Name,
		Message:         ev.Message,
		Impact:          c.Impact,
		EmailSubject:    c.Subject,
		EmailBody:       c.Body,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Lost a race against a concurrent delivery of the same event.
			// The winner owns the record and the email.
			s.logger.Info("concurrent duplicate delivery, skipping", "payment_intent_id", ev.PaymentIntentID)
			return nil
		}
		return fmt.Errorf("service.FinalizeCheckout: persist: %w", err)
	}

	s.sendAndMark(ctx, created)

	impactCtx, cancel := context.WithTimeout(ctx, impactTimeout)
	defer cancel()
	if err := s.contentService.WriteImpact(impactCtx, created.Amount, created.Currency, created.Impact); err != nil {
		s.logger.Warn("impact write failed", "payment_intent_id", created.PaymentIntentID, "error", err)
	}

	return nil
}

// generateCopy runs the LLM draft and falls back to the deterministic
// template on any failure. Generation must never abort finalization.
func (s *Service) generateCopy(ctx context.Context, ev *payment.CheckoutEvent) copygen.Copy {
	facts := copygen.Facts{
		Email:    ev.Email,
		Amount:   ev.Amount,
		Currency: ev.Currency,
		Name:     ev.Name,
		Message:  ev.Message,
	}

	// CMS impact copy enriches the prompt and the fallback alike. Losing it
	// is harmless.
	if page, err := s.contentService.FetchContent(ctx); err == nil && page != nil {
		facts.ImpactCopy = page.ImpactCopy
	}

	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()
	res := s.generator.Generate(genCtx, facts)
	if res.OK {
		return res.Copy
	}
	s.logger.Warn("copy generation failed, using fallback", "reason", res.Reason)
	return s.generator.Fallback(facts)
}

// sendAndMark emails the donor and records success. A send failure leaves
// the persisted record with emailed=false; the webhook is still acknowledged
// so the provider stops retrying, and an operator can resend manually.
func (s *Service) sendAndMark(ctx context.Context, d *models.Donation) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := s.mailer.Send(sendCtx, d.Email, d.EmailSubject, d.EmailBody); err != nil {
		s.logger.Error("thank-you email send failed", "donation_id", d.ID, "payment_intent_id", d.PaymentIntentID, "error", err)
		return
	}
	if err := s.repo.MarkEmailed(ctx, d.ID); err != nil {
		s.logger.Error("failed to mark donation emailed", "donation_id", d.ID, "error", err)
		return
	}
	d.Emailed = true
}

// ListDonations returns all records, newest first.
func (s *Service) ListDonations(ctx context.Context) ([]*models.Donation, error) {
	donations, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ListDonations: %w", err)
	}
	return donations, nil
}

// ResendEmail re-sends the stored subject/body exactly as persisted. Copy is
// never regenerated and no new record is created.
func (s *Service) ResendEmail(ctx context.Context, id int64) (*models.Donation, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("service.ResendEmail: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := s.mailer.Send(sendCtx, d.Email, d.EmailSubject, d.EmailBody); err != nil {
		return nil, fmt.Errorf("service.ResendEmail: send: %w", err)
	}

	if !d.Emailed {
		if err := s.repo.MarkEmailed(ctx, d.ID); err != nil {
			s.logger.Error("failed to mark donation emailed after resend", "donation_id", d.ID, "error", err)
		} else {
			d.Emailed = true
		}
	}
	return d, nil
}
