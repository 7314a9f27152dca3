package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"donate-and-notify/internal/models"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

// Metadata keys attached to the checkout session so donor facts survive the
// round trip through the provider and come back on the webhook.
const (
	metaDonorName    = "donor_name"
	metaDonorMessage = "donor_message"
)

// CreateSessionInput holds the validated donation form fields.
type CreateSessionInput struct {
	Amount   int64 // minor currency units
	Currency string
	Email    string
	Name     string
	Message  string
}

// Session is the provider-agnostic view of a checkout session. Only
// display-safe fields are exposed.
type Session struct {
	ID              string
	URL             string
	PaymentIntentID string
	Amount          int64
	Currency        string
	Email           string
	Name            string
	Message         string
	Status          string
}

// CheckoutEvent is a completed-checkout webhook event normalized into
// donation facts. A nil event means the delivery was valid but of a type we
// acknowledge and ignore.
type CheckoutEvent struct {
	SessionID       string
	PaymentIntentID string
	Email           string
	Amount          int64
	Currency        string
	Name            string
	Message         string
}

// GatewayInterface defines the contract for a payment provider so an
// alternate provider can be substituted without touching the finalizer.
type GatewayInterface interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
	VerifyAndParseWebhook(payload []byte, sigHeader string) (*CheckoutEvent, error)
}

// StripeGateway implements GatewayInterface on Stripe Checkout.
type StripeGateway struct {
	client        *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
	productName   string
}

// NewStripeGateway builds a gateway with its own client instance rather than
// the SDK's global key, so configuration stays explicit.
func NewStripeGateway(apiKey, webhookSecret, clientOrigin string) *StripeGateway {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &StripeGateway{
		client:        sc,
		webhookSecret: webhookSecret,
		successURL:    clientOrigin + "/thank-you?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:     clientOrigin + "/",
		productName:   "Donation",
	}
}

// CreateSession opens a hosted checkout session for a one-time donation.
// No local state is written; the session lifecycle belongs to Stripe.
func (g *StripeGateway) CreateSession(ctx context.Context, in CreateSessionInput) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SubmitType:    stripe.String("donate"),
		CustomerEmail: stripe.String(in.Email),
		SuccessURL:    stripe.String(g.successURL),
		CancelURL:     stripe.String(g.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(in.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(g.productName),
					},
					UnitAmount: stripe.Int64(in.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata(metaDonorName, in.Name)
	params.AddMetadata(metaDonorMessage, in.Message)

	s, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("payment.CreateSession: %w", mapStripeError(err))
	}
	return toSession(s), nil
}

// RetrieveSession fetches a session for the thank-you page. Read-only.
func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.client.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("payment.RetrieveSession: %w", mapStripeError(err))
	}
	return toSession(s), nil
}

// VerifyAndParseWebhook checks the provider signature over the raw payload
// and normalizes a completed checkout into donation facts. Event types other
// than checkout.session.completed return (nil, nil).
func (g *StripeGateway) VerifyAndParseWebhook(payload []byte, sigHeader string) (*CheckoutEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadSignature, err)
	}

	if event.Type != "checkout.session.completed" {
		return nil, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("payment.VerifyAndParseWebhook: decode session: %w", err)
	}

	sess := toSession(&s)
	return &CheckoutEvent{
		SessionID:       sess.ID,
		PaymentIntentID: sess.PaymentIntentID,
		Email:           sess.Email,
		Amount:          sess.Amount,
		Currency:        sess.Currency,
		Name:            sess.Name,
		Message:         sess.Message,
	}, nil
}

func toSession(s *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:       s.ID,
		URL:      s.URL,
		Amount:   s.AmountTotal,
		Currency: string(s.Currency),
		Email:    s.CustomerEmail,
		Status:   string(s.Status),
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	// The checkout form may collect a different email than the one we passed.
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		out.Email = s.CustomerDetails.Email
	}
	if s.Metadata != nil {
		out.Name = s.Metadata[metaDonorName]
		out.Message = s.Metadata[metaDonorMessage]
	}
	return out
}

// mapStripeError converts SDK errors into domain errors so stripe-go does not
// leak into the service layer.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return models.ErrNotFound
		}
	}
	return err
}
