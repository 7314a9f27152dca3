package copygen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1/messages"
	anthropicModel   = "claude-sonnet-4-20250514"
	anthropicVersion = "2023-06-01"
)

// Facts are the donation details the generated copy is built from.
type Facts struct {
	Email      string
	Amount     int64 // minor currency units
	Currency   string
	Name       string
	Message    string
	ImpactCopy string // optional CMS-provided impact framing
}

// Copy is a drafted thank-you email plus a one-line impact summary.
type Copy struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Impact  string `json:"impact"`
}

// Result is the explicit outcome of a generation attempt. Generation is the
// only probabilistic component in the system; its output is never required,
// so failures carry a reason instead of an error and the caller takes the
// single fallback branch.
type Result struct {
	OK     bool
	Copy   Copy
	Reason string
}

// GeneratorInterface defines the contract for thank-you copy generation.
type GeneratorInterface interface {
	Generate(ctx context.Context, facts Facts) Result
	Fallback(facts Facts) Copy
}

// AnthropicGenerator drafts copy via the Anthropic Messages API.
type AnthropicGenerator struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func NewAnthropicGenerator(apiKey string) *AnthropicGenerator {
	return &AnthropicGenerator{
		apiKey:  apiKey,
		baseURL: anthropicBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

const systemPrompt = `You draft short, warm thank-you emails for a donation page.
Respond with ONLY a JSON object of the form
{"subject": "...", "body": "<p>...</p>", "impact": "..."}.
The body is a short HTML fragment. The impact field is a single sentence
translating the donation amount into a concrete effect. No markdown fences.`

// Generate asks the model for subject/body/impact. Any failure — network,
// non-200, unparseable output, missing fields — yields OK=false with a
// reason; the caller substitutes Fallback output. No retries: a lost draft
// costs nothing, and the webhook sender handles redelivery of real failures.
func (g *AnthropicGenerator) Generate(ctx context.Context, facts Facts) Result {
	if g.apiKey == "" {
		return Result{Reason: "no API key configured"}
	}

	req := anthropicRequest{
		Model:     anthropicModel,
		MaxTokens: 1024,
		System:    systemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: buildPrompt(facts)},
		},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Result{Reason: fmt.Sprintf("marshal request: %v", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(body))
	if err != nil {
		return Result{Reason: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("x-api-key", g.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Result{Reason: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Reason: fmt.Sprintf("read response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{Reason: fmt.Sprintf("API error (%d)", resp.StatusCode)}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return Result{Reason: fmt.Sprintf("decode response: %v", err)}
	}
	if len(apiResp.Content) == 0 {
		return Result{Reason: "empty response content"}
	}

	raw, ok := extractJSONObject(apiResp.Content[0].Text)
	if !ok {
		return Result{Reason: "no JSON object in model output"}
	}

	var c Copy
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Result{Reason: fmt.Sprintf("parse copy JSON: %v", err)}
	}
	if strings.TrimSpace(c.Subject) == "" || strings.TrimSpace(c.Body) == "" || strings.TrimSpace(c.Impact) == "" {
		return Result{Reason: "model output missing required fields"}
	}

	return Result{OK: true, Copy: c}
}

func buildPrompt(facts Facts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A donor just gave %s.\n", FormatAmount(facts.Amount, facts.Currency))
	if facts.Name != "" {
		fmt.Fprintf(&b, "Donor name: %s\n", facts.Name)
	}
	if facts.Message != "" {
		fmt.Fprintf(&b, "They left this message: %q\n", facts.Message)
	}
	if facts.ImpactCopy != "" {
		fmt.Fprintf(&b, "Use this framing for what donations achieve: %s\n", facts.ImpactCopy)
	}
	b.WriteString("Draft the thank-you email JSON now.")
	return b.String()
}

// extractJSONObject returns the first balanced JSON object in text, tolerating
// surrounding prose and markdown fences. String contents are skipped so braces
// inside values do not confuse the scan.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// FormatAmount renders minor currency units for display, e.g. "20.00 USD".
func FormatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", amount/100, amount%100, strings.ToUpper(currency))
}
