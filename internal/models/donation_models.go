package models

import (
	"time"
)

// Donation is the single persistent entity in the system, keyed by the
// payment provider's payment-intent identifier. A record is immutable once
// written except for the Emailed flag, which flips false→true exactly once
// after a successful send.
type Donation struct {
	ID              int64     `json:"id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	SessionID       string    `json:"session_id"`
	Email           string    `json:"email"`
	Amount          int64     `json:"amount"` // minor currency units (cents)
	Currency        string    `json:"currency"`
	Name            string    `json:"name,omitempty"`
	Message         string    `json:"message,omitempty"`
	Impact          string    `json:"impact"`
	EmailSubject    string    `json:"email_subject"`
	EmailBody       string    `json:"email_body"`
	Emailed         bool      `json:"emailed"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateCheckoutSessionRequest is the form payload for starting a checkout.
// Amount is in minor currency units; the minimum is one whole currency unit.
type CreateCheckoutSessionRequest struct {
	Amount   int64  `json:"amount" validate:"required,min=100"`
	Currency string `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name,omitempty" validate:"omitempty,max=100"`
	Message  string `json:"message,omitempty" validate:"omitempty,max=500"`
}

// CheckoutSessionResponse is returned to the client, which redirects to URL.
type CheckoutSessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SessionStatusResponse carries the display-safe session fields shown on the
// thank-you page. Nothing here is trusted for finalization; that happens only
// through the signed webhook.
type SessionStatusResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Message  string `json:"message,omitempty"`
	Status   string `json:"status"`
}

// AdminLoginRequest authenticates an operator against the configured
// password hash.
type AdminLoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// AdminLoginResponse carries the bearer token for the /admin group.
type AdminLoginResponse struct {
	Token string `json:"token"`
}

// ErrorResponse is the uniform JSON error body for the API.
type ErrorResponse struct {
	Message string `json:"message"`
}
