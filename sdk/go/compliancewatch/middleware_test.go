package compliancewatch

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func postJSON(t *testing.T, h http.Handler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/purchase-orders", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareAllowsAndRestoresBody(t *testing.T) {
	c := newTestClient(t, WithSeedDemo(false))
	var seen map[string]any
	handler := c.Middleware(Procurement, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &seen)
		w.WriteHeader(http.StatusOK)
	}))

	rec := postJSON(t, handler, cleanPurchase())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if seen["title"] != "办公用品采购" {
		t.Errorf("next handler did not receive the body, got %v", seen)
	}
}

func TestMiddlewareBlocks(t *testing.T) {
	c := newTestClient(t)
	handler := c.Middleware(Procurement, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not be called")
	}))

	rec := postJSON(t, handler, shellSupplier())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode JSON body: %v", err)
	}
	if blocked, ok := body["blocked"].(bool); !ok || !blocked {
		t.Error("expected blocked=true in response")
	}
	if body["level"] != "block" {
		t.Errorf("expected level block, got %v", body["level"])
	}
}
