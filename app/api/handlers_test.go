package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudpulse/gcp-pulse/app/cache"
	"github.com/cloudpulse/gcp-pulse/app/cfg"
	"github.com/cloudpulse/gcp-pulse/app/feed"
	"github.com/cloudpulse/gcp-pulse/app/sources"
)

type stubAggregator struct {
	calls   int
	payload *feed.Payload
	err     error
}

func (s *stubAggregator) Run(ctx context.Context) (*feed.Payload, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.payload, nil
}

type stubFetcher struct {
	incidents    []feed.Item
	incidentsErr error
	ipRanges     []byte
	gkeFeed      []byte
}

func (s *stubFetcher) FetchIncidents(ctx context.Context) ([]feed.Item, error) {
	if s.incidentsErr != nil {
		return nil, s.incidentsErr
	}
	return s.incidents, nil
}

func (s *stubFetcher) FetchIPRanges(ctx context.Context) ([]byte, error) {
	return s.ipRanges, nil
}

func (s *stubFetcher) FetchGKEFeed(ctx context.Context, channel string) ([]byte, error) {
	if _, ok := map[string]bool{"stable": true, "regular": true, "rapid": true}[channel]; !ok {
		return nil, fmt.Errorf("%w: %q", sources.ErrUnknownChannel, channel)
	}
	return s.gkeFeed, nil
}

func newTestServer(aggregator *stubAggregator, fetcher *stubFetcher) http.Handler {
	cfg.Set(&cfg.Cfg{
		Port:        "8080",
		GenAIAPIKey: "test-genai-key",
		Version:     "test",
	})

	handler := NewHandler(aggregator, fetcher, cache.New(5*time.Minute), 5)
	return NewServer(handler)
}

func TestHandler_GetFeed_ServedFromCache(t *testing.T) {
	aggregator := &stubAggregator{
		payload: &feed.Payload{Title: "Google Cloud Platform Feed", Items: []feed.Item{{ID: "a-0"}}},
	}
	server := newTestServer(aggregator, &stubFetcher{})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/feed", nil)
		server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
	}

	// Second and third requests within the TTL hit the cache
	if aggregator.calls != 1 {
		t.Errorf("Expected 1 aggregation, got %d", aggregator.calls)
	}
}

func TestHandler_GetFeed_AggregationFailure(t *testing.T) {
	aggregator := &stubAggregator{err: fmt.Errorf("all upstreams down")}
	server := newTestServer(aggregator, &stubFetcher{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/feed", nil)
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON error body: %v", err)
	}
	if body["error"] == "" {
		t.Error("Expected error message in body")
	}
}

func TestHandler_GetIncidents(t *testing.T) {
	fetcher := &stubFetcher{
		incidents: []feed.Item{
			{ID: "inc-0", Source: feed.SourceServiceHealth, IsActive: true},
		},
	}
	server := newTestServer(&stubAggregator{}, fetcher)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/incidents", nil)
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var items []feed.Item
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(items) != 1 || !items[0].IsActive {
		t.Errorf("Unexpected incidents payload: %v", items)
	}
}

func TestHandler_GetIncidents_UpstreamFailure(t *testing.T) {
	fetcher := &stubFetcher{incidentsErr: fmt.Errorf("status endpoint down")}
	server := newTestServer(&stubAggregator{}, fetcher)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/incidents", nil)
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}

func TestHandler_GetIPRanges_Passthrough(t *testing.T) {
	document := `{"syncToken": "123"}`
	server := newTestServer(&stubAggregator{}, &stubFetcher{ipRanges: []byte(document)})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/ip-ranges", nil)
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != document {
		t.Errorf("Expected verbatim passthrough, got %q", rec.Body.String())
	}
}

func TestHandler_GetGKEFeed_InvalidChannel(t *testing.T) {
	server := newTestServer(&stubAggregator{}, &stubFetcher{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/gke-feed?channel=nightly", nil)
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown channel, got %d", rec.Code)
	}
}

func TestHandler_GetGKEFeed_ValidChannel(t *testing.T) {
	xmlBody := `<?xml version="1.0"?><feed></feed>`
	server := newTestServer(&stubAggregator{}, &stubFetcher{gkeFeed: []byte(xmlBody)})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/gke-feed?channel=stable", nil)
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/xml; charset=utf-8" {
		t.Errorf("Expected text/xml content type, got %q", ct)
	}
	if rec.Body.String() != xmlBody {
		t.Errorf("Expected raw XML body, got %q", rec.Body.String())
	}
}

func TestHandler_GetClientConfig(t *testing.T) {
	server := newTestServer(&stubAggregator{}, &stubFetcher{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/client-config", nil)
	server.ServeHTTP(rec, req)

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["genaiApiKey"] != "test-genai-key" {
		t.Errorf("Unexpected client config: %v", body)
	}
}

// stubUpstream stands in for the source fetcher underneath a real
// aggregator, so the feed endpoint is exercised with the full
// enrichment and merge pipeline in place.
type stubUpstream struct {
	batches   map[string][]feed.Item
	incidents []feed.Item
}

func (s *stubUpstream) FetchRSS(ctx context.Context, src feed.Source) []feed.Item {
	return s.batches[src.Name]
}

func (s *stubUpstream) FetchIncidents(ctx context.Context) ([]feed.Item, error) {
	return s.incidents, nil
}

func TestHandler_GetFeed_EnrichedComposition(t *testing.T) {
	now := time.Now()
	upstream := &stubUpstream{
		batches: map[string][]feed.Item{
			feed.SourceSecurity: {
				{GUID: "gcp-2025-004", Source: feed.SourceSecurity, Title: "GCP-2025-004",
					Content: "Severity: High vulnerability in Cloud Run", ISODate: now.Add(-time.Hour)},
			},
		},
		incidents: []feed.Item{
			{ID: "inc-0", Source: feed.SourceServiceHealth, Title: "Elevated error rates",
				IsActive: true, ISODate: now},
		},
	}

	cfg.Set(&cfg.Cfg{Port: "8080", Version: "test"})
	aggregator := feed.NewAggregator(upstream, []feed.Source{{Name: feed.SourceSecurity}})
	handler := NewHandler(aggregator, &stubFetcher{}, cache.New(5*time.Minute), 1)
	server := NewServer(handler)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/feed", nil)
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var payload feed.Payload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(payload.Items) != 2 {
		t.Fatalf("Expected bulletin plus incident, got %d items", len(payload.Items))
	}

	var bulletin, incident *feed.Item
	for i := range payload.Items {
		switch payload.Items[i].Source {
		case feed.SourceSecurity:
			bulletin = &payload.Items[i]
		case feed.SourceServiceHealth:
			incident = &payload.Items[i]
		}
	}

	if bulletin == nil {
		t.Fatal("Bulletin missing from served feed")
	}
	if bulletin.Severity != "High" {
		t.Errorf("Served bulletin must carry extracted severity, got %q", bulletin.Severity)
	}
	hasSeverity, hasProduct := false, false
	for _, c := range bulletin.Categories {
		if c == "High" {
			hasSeverity = true
		}
		if c == "Cloud Run" {
			hasProduct = true
		}
	}
	if !hasSeverity || !hasProduct {
		t.Errorf("Served bulletin must carry severity and product categories, got %v", bulletin.Categories)
	}

	if incident == nil || !incident.IsActive {
		t.Error("Active incident missing from served feed")
	}
}

func TestServer_SecurityAndCacheHeaders(t *testing.T) {
	server := newTestServer(&stubAggregator{payload: &feed.Payload{}}, &stubFetcher{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	server.ServeHTTP(rec, req)

	expected := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"X-XSS-Protection":          "1; mode=block",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"Cache-Control":             "no-store, no-cache, must-revalidate",
		"Pragma":                    "no-cache",
		"Expires":                   "0",
	}
	for header, value := range expected {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("Header %s: expected %q, got %q", header, value, got)
		}
	}

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected generated request ID header")
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	server := newTestServer(&stubAggregator{}, &stubFetcher{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["timestamp"] == "" {
		t.Error("Expected timestamp in health response")
	}
	if body["sources"] != float64(5) {
		t.Errorf("Expected 5 sources, got %v", body["sources"])
	}
}
