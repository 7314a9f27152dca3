package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// PageContent is the static copy for the donation page, owned by the CMS.
type PageContent struct {
	Headline    string `json:"headline"`
	Description string `json:"description"`
	ImpactCopy  string `json:"impact_copy"`
}

// ImpactRecord is the best-effort write-back after a finalized donation.
type ImpactRecord struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Impact    string    `json:"impact"`
	CreatedAt time.Time `json:"created_at"`
}

// ServiceInterface defines the CMS capability contract so an alternate
// provider can be substituted without touching the finalizer.
type ServiceInterface interface {
	FetchContent(ctx context.Context) (*PageContent, error)
	WriteImpact(ctx context.Context, amount int64, currency, impact string) error
}

// service talks to a JSON CMS API authenticated with a static bearer token.
type service struct {
	baseURL    string
	httpClient *http.Client
}

// NewService builds the CMS client. The oauth2 transport injects the
// Authorization header on every request.
func NewService(baseURL, apiToken string) ServiceInterface {
	httpClient := oauth2.NewClient(
		context.Background(),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiToken}),
	)
	httpClient.Timeout = 10 * time.Second
	return &service{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// FetchContent retrieves the donation page copy.
func (s *service) FetchContent(ctx context.Context) (*PageContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/content", nil)
	if err != nil {
		return nil, fmt.Errorf("content.FetchContent: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content.FetchContent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content.FetchContent: CMS returned %d", resp.StatusCode)
	}

	var out PageContent
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("content.FetchContent: decode: %w", err)
	}
	return &out, nil
}

// WriteImpact posts an impact record. Callers treat any error as ignorable;
// this write is decorative, not part of the donation contract.
func (s *service) WriteImpact(ctx context.Context, amount int64, currency, impact string) error {
	record := ImpactRecord{
		ID:        uuid.NewString(),
		Amount:    amount,
		Currency:  currency,
		Impact:    impact,
		CreatedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("content.WriteImpact: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/impacts", strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("content.WriteImpact: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("content.WriteImpact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("content.WriteImpact: CMS returned %d", resp.StatusCode)
	}
	return nil
}
