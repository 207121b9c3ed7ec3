package alert

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func init() {
	retryBackoff = 10 * time.Millisecond
}

func countingServer(t *testing.T, called *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDispatchMatchesLevel(t *testing.T) {
	var called atomic.Int32
	srv := countingServer(t, &called)

	d := NewDispatcher([]AlertConfig{
		{URL: srv.URL, Format: "generic", Events: []string{"block"}},
	})

	d.Dispatch(AlertEvent{Level: "block", Category: "procurement"})
	d.Wait()

	if called.Load() != 1 {
		t.Errorf("expected 1 call, got %d", called.Load())
	}
}

func TestDispatchSkipsNonMatching(t *testing.T) {
	var called atomic.Int32
	srv := countingServer(t, &called)

	d := NewDispatcher([]AlertConfig{
		{URL: srv.URL, Format: "generic", Events: []string{"block", "high"}},
	})

	d.Dispatch(AlertEvent{Level: "medium", Signals: []string{"missing_attachments"}})
	d.Wait()

	if called.Load() != 0 {
		t.Errorf("expected 0 calls for non-matching event, got %d", called.Load())
	}
}

func TestDispatchMatchesSignalCode(t *testing.T) {
	var called atomic.Int32
	srv := countingServer(t, &called)

	d := NewDispatcher([]AlertConfig{
		{URL: srv.URL, Format: "generic", Events: []string{"related_party_disclosure"}},
	})

	d.Dispatch(AlertEvent{Level: "low", Signals: []string{"related_party_disclosure"}})
	d.Wait()

	if called.Load() != 1 {
		t.Errorf("expected 1 call for signal code match, got %d", called.Load())
	}
}

func TestDispatchMultipleWebhooks(t *testing.T) {
	var called atomic.Int32
	srv1 := countingServer(t, &called)
	srv2 := countingServer(t, &called)

	d := NewDispatcher([]AlertConfig{
		{URL: srv1.URL, Format: "generic", Events: []string{"high"}},
		{URL: srv2.URL, Format: "slack", Events: []string{"block", "high"}},
	})

	d.Dispatch(AlertEvent{Level: "high"})
	d.Wait()

	if called.Load() != 2 {
		t.Errorf("expected 2 calls (both webhooks match), got %d", called.Load())
	}
}

func TestRetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := Send(AlertConfig{URL: srv.URL, Format: "generic"}, AlertEvent{Level: "block"})
	if err != nil {
		t.Errorf("expected success after retries, got: %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := Send(AlertConfig{URL: srv.URL, Format: "generic"}, AlertEvent{Level: "block"})
	if err == nil {
		t.Error("expected error on 400, got nil")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt (no retry on 4xx), got %d", attempts.Load())
	}
}

func TestCustomHeaders(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	cfg := AlertConfig{URL: srv.URL, Headers: map[string]string{"Authorization": "Bearer x"}}
	if err := Send(cfg, AlertEvent{}); err != nil {
		t.Fatal(err)
	}
	if got != "Bearer x" {
		t.Errorf("expected custom header, got %q", got)
	}
}

func TestFormatGenericJSON(t *testing.T) {
	event := AlertEvent{
		Timestamp:    "2025-01-15T14:00:00.000Z",
		AssessmentID: "a-123",
		Category:     "procurement",
		Level:        "block",
		Probability:  0.61,
		Signals:      []string{"supplier_blacklist"},
	}

	data, err := FormatPayload("generic", event)
	if err != nil {
		t.Fatal(err)
	}

	var parsed AlertEvent
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("generic format is not valid JSON: %v", err)
	}
	if parsed.AssessmentID != "a-123" {
		t.Errorf("expected assessment_id a-123, got %s", parsed.AssessmentID)
	}
	if parsed.Level != "block" {
		t.Errorf("expected level block, got %s", parsed.Level)
	}
}

func TestFormatSlackBlockKit(t *testing.T) {
	data, err := FormatPayload("slack", AlertEvent{Level: "high", Category: "decision", Subject: "供应商议题"})
	if err != nil {
		t.Fatal(err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("slack format is not valid JSON: %v", err)
	}

	blocks, ok := parsed["blocks"].([]any)
	if !ok || len(blocks) < 2 {
		t.Fatalf("expected at least 2 blocks, got %v", parsed["blocks"])
	}
	header, _ := blocks[0].(map[string]any)
	if header["type"] != "header" {
		t.Errorf("expected header block, got %s", header["type"])
	}
	section, _ := blocks[1].(map[string]any)
	fields, ok := section["fields"].([]any)
	if !ok || len(fields) != 4 {
		t.Errorf("expected 4 fields in section, got %v", fields)
	}
}

func TestFormatPagerDutySeverity(t *testing.T) {
	tests := map[string]string{
		"block":  "critical",
		"high":   "error",
		"medium": "warning",
		"low":    "info",
	}
	for level, want := range tests {
		data, err := FormatPayload("pagerduty", AlertEvent{Level: level, AssessmentID: "a-1"})
		if err != nil {
			t.Fatal(err)
		}
		var parsed map[string]any
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("pagerduty format is not valid JSON: %v", err)
		}
		payload, ok := parsed["payload"].(map[string]any)
		if !ok {
			t.Fatal("expected payload object")
		}
		if payload["severity"] != want {
			t.Errorf("level %s: expected severity %s, got %v", level, want, payload["severity"])
		}
		if parsed["dedup_key"] != "a-1" {
			t.Errorf("expected dedup_key a-1, got %v", parsed["dedup_key"])
		}
	}
}

func TestNewDispatcherNilOnEmpty(t *testing.T) {
	if NewDispatcher(nil) != nil {
		t.Error("expected nil dispatcher for empty configs")
	}
	var d *Dispatcher
	d.Wait()
}
