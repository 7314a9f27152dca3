package content

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestService(fn roundTripFunc) *service {
	svc := NewService("https://cms.example.com/", "cms-token").(*service)
	svc.httpClient = &http.Client{Transport: fn}
	return svc
}

func TestFetchContent(t *testing.T) {
	var gotURL string
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		body := `{"headline":"Support us","description":"Every gift counts.","impact_copy":"Ten dollars feeds a family."}`
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     http.Header{},
		}, nil
	})

	page, err := svc.FetchContent(context.Background())
	if err != nil {
		t.Fatalf("FetchContent error: %v", err)
	}
	if gotURL != "https://cms.example.com/content" {
		t.Errorf("request URL = %s; want https://cms.example.com/content", gotURL)
	}
	if page.Headline != "Support us" || page.ImpactCopy == "" {
		t.Errorf("unexpected page content: %+v", page)
	}
}

func TestFetchContentUpstreamError(t *testing.T) {
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Body:       io.NopCloser(strings.NewReader("down")),
			Header:     http.Header{},
		}, nil
	})
	if _, err := svc.FetchContent(context.Background()); err == nil {
		t.Fatal("FetchContent error = nil; want upstream failure")
	}
}

func TestWriteImpact(t *testing.T) {
	var gotRecord ImpactRecord
	var gotMethod, gotPath string
	svc := newTestService(func(req *http.Request) (*http.Response, error) {
		gotMethod = req.Method
		gotPath = req.URL.Path
		if err := json.NewDecoder(req.Body).Decode(&gotRecord); err != nil {
			t.Fatalf("decode posted record: %v", err)
		}
		return &http.Response{
			StatusCode: http.StatusCreated,
			Body:       io.NopCloser(strings.NewReader("{}")),
			Header:     http.Header{},
		}, nil
	})

	if err := svc.WriteImpact(context.Background(), 2000, "usd", "Feeds four people."); err != nil {
		t.Fatalf("WriteImpact error: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/impacts" {
		t.Errorf("request = %s %s; want POST /impacts", gotMethod, gotPath)
	}
	if gotRecord.Amount != 2000 || gotRecord.Impact != "Feeds four people." || gotRecord.ID == "" {
		t.Errorf("unexpected record posted: %+v", gotRecord)
	}
}
