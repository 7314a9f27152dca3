package copygen

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// newTestGenerator stubs the Anthropic API with a canned message body.
func newTestGenerator(modelText string, status int) *AnthropicGenerator {
	g := NewAnthropicGenerator("test-key")
	g.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			body := fmt.Sprintf(`{"content":[{"type":"text","text":%q}]}`, modelText)
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(strings.NewReader(body)),
				Header:     http.Header{},
			}, nil
		}),
	}
	return g
}

func testFacts() Facts {
	return Facts{
		Email:    "a@example.com",
		Amount:   2000,
		Currency: "usd",
		Name:     "Ada",
	}
}

func TestGenerateParsesWellFormedOutput(t *testing.T) {
	g := newTestGenerator(`{"subject":"Thanks!","body":"<p>Hi</p>","impact":"Feeds 4 people."}`, http.StatusOK)
	res := g.Generate(context.Background(), testFacts())
	if !res.OK {
		t.Fatalf("Generate OK = false (%s); want true", res.Reason)
	}
	if res.Copy.Subject != "Thanks!" || res.Copy.Impact != "Feeds 4 people." {
		t.Errorf("unexpected copy: %+v", res.Copy)
	}
}

func TestGenerateToleratesSurroundingProse(t *testing.T) {
	text := "Sure! Here is the email:\n```json\n{\"subject\":\"Thank you\",\"body\":\"<p>{literal} brace</p>\",\"impact\":\"Plants a tree.\"}\n```\nLet me know if you need changes."
	g := newTestGenerator(text, http.StatusOK)
	res := g.Generate(context.Background(), testFacts())
	if !res.OK {
		t.Fatalf("Generate OK = false (%s); want true", res.Reason)
	}
	if res.Copy.Impact != "Plants a tree." {
		t.Errorf("Impact = %q; want %q", res.Copy.Impact, "Plants a tree.")
	}
}

func TestGenerateFailsOnMalformedOutput(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"no json", "I am sorry, I cannot help with that."},
		{"unbalanced", `{"subject":"oops"`},
		{"missing fields", `{"subject":"only a subject"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGenerator(tc.text, http.StatusOK)
			res := g.Generate(context.Background(), testFacts())
			if res.OK {
				t.Fatalf("Generate OK = true; want false")
			}
			if res.Reason == "" {
				t.Error("Reason is empty; want a diagnostic")
			}
		})
	}
}

func TestGenerateFailsOnAPIError(t *testing.T) {
	g := newTestGenerator("overloaded", http.StatusTooManyRequests)
	res := g.Generate(context.Background(), testFacts())
	if res.OK {
		t.Fatal("Generate OK = true on 429; want false")
	}
}

func TestExtractJSONObject(t *testing.T) {
	got, ok := extractJSONObject(`prefix {"a":"b {not a brace}","c":{"d":1}} suffix {"x":2}`)
	if !ok {
		t.Fatal("extractJSONObject ok = false; want true")
	}
	want := `{"a":"b {not a brace}","c":{"d":1}}`
	if got != want {
		t.Errorf("extractJSONObject = %q; want %q", got, want)
	}
}

func TestFallbackAlwaysPopulated(t *testing.T) {
	g := NewAnthropicGenerator("")
	for _, facts := range []Facts{
		testFacts(),
		{Amount: 100, Currency: "eur"}, // anonymous, no CMS copy
		{Amount: 2000, Currency: "usd", ImpactCopy: "Every dollar funds a meal."},
	} {
		c := g.Fallback(facts)
		if c.Subject == "" || c.Body == "" || c.Impact == "" {
			t.Errorf("Fallback(%+v) produced empty fields: %+v", facts, c)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(2000, "usd"); got != "20.00 USD" {
		t.Errorf("FormatAmount(2000) = %q; want 20.00 USD", got)
	}
	if got := FormatAmount(105, "eur"); got != "1.05 EUR" {
		t.Errorf("FormatAmount(105) = %q; want 1.05 EUR", got)
	}
}
