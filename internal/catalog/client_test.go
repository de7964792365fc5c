package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"storefront/internal/cascade"
	"storefront/internal/config"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
)

func TestFetch_SetsHeadersAndQuery(t *testing.T) {
	t.Parallel()

	var capturedReq *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedReq = r
		_, _ = w.Write([]byte(`[{"product_id":1,"name":"Ban Phim Co"}]`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server)
	body, err := client.Fetch(context.Background(), cascade.Candidate{
		Name:  "search",
		Path:  "/products/",
		Query: url.Values{"search": {"ban phim"}},
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(string(body), "Ban Phim Co") {
		t.Fatalf("unexpected body: %s", body)
	}

	if capturedReq == nil {
		t.Fatal("expected request to be captured")
	}
	if capturedReq.URL.Path != "/products/" {
		t.Fatalf("unexpected path: %s", capturedReq.URL.Path)
	}
	if got := capturedReq.URL.Query().Get("search"); got != "ban phim" {
		t.Fatalf("unexpected search query value: %q", got)
	}
	if got := capturedReq.Header.Get("Accept"); got != "application/json" {
		t.Fatalf("unexpected Accept header: %q", got)
	}
	if _, err := uuid.Parse(capturedReq.Header.Get("X-Request-ID")); err != nil {
		t.Fatalf("expected a uuid request id, got %q", capturedReq.Header.Get("X-Request-ID"))
	}
}

func TestFetch_NonSuccessReturnsStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"boom"}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server)
	_, err := client.Fetch(context.Background(), cascade.Candidate{Name: "all-products", Path: "/products/"})
	if err == nil {
		t.Fatal("expected error")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", statusErr.StatusCode)
	}
	if statusErr.Operation != "all-products" || !strings.Contains(statusErr.Body, "boom") {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(config.CatalogConfig{
		BaseURL:      server.URL,
		HTTPClient:   server.Client(),
		RetryMax:     1,
		RetryWaitMin: 1,
		RetryWaitMax: 1,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	body, err := client.Fetch(context.Background(), cascade.Candidate{Name: "all-products", Path: "/products/"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "[]" || attempts.Load() != 2 {
		t.Fatalf("expected success on second attempt, got body %q after %d attempts", body, attempts.Load())
	}
}

func TestProduct_DecodesAlternateKeys(t *testing.T) {
	t.Parallel()

	_, server := newFakeAPI(t, map[string]response{
		"/products/7/": ok(`{"product_id":"7","product_name":"Chuot Quang","price":"250000.00","category":"3","detail":{"specification":"DPI 1600"}}`),
	})
	client := newTestClient(t, server)

	p, err := client.Product(context.Background(), 7)
	if err != nil {
		t.Fatalf("product: %v", err)
	}
	if p.ID != 7 || p.Name != "Chuot Quang" || p.CategoryID != 3 || p.Specification != "DPI 1600" {
		t.Fatalf("unexpected product: %+v", p)
	}
	if p.Price.String() != "250000" {
		t.Fatalf("unexpected price: %s", p.Price)
	}
}

func TestProduct_NotFound(t *testing.T) {
	t.Parallel()

	_, server := newFakeAPI(t, nil)
	client := newTestClient(t, server)

	_, err := client.Product(context.Background(), 404)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPromotion_Lookup(t *testing.T) {
	t.Parallel()

	_, server := newFakeAPI(t, map[string]response{
		"/promotions/2/": ok(activePromotion(2, "15.00")),
	})
	client := newTestClient(t, server)

	p, err := client.Promotion(context.Background(), 2)
	if err != nil {
		t.Fatalf("promotion: %v", err)
	}
	if p.ID != 2 || p.Percentage().String() != "15" {
		t.Fatalf("unexpected promotion: %+v", p)
	}
}

func TestReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "ok", status: http.StatusOK},
		{name: "auth required still answers", status: http.StatusForbidden},
		{name: "unavailable", status: http.StatusServiceUnavailable, wantErr: true},
	}
	for _, tc := range tests {
		_, server := newFakeAPI(t, map[string]response{
			"/categories/": {status: tc.status, body: `[]`},
		})
		err := newTestClient(t, server).Ready(context.Background())
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: unexpected ready error: %v", tc.name, err)
		}
	}
}

func TestNewClient_InvalidConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(config.CatalogConfig{}); err == nil {
		t.Fatal("expected error for missing base URL")
	}
	if _, err := NewClient(config.CatalogConfig{BaseURL: "localhost:8000"}); err == nil {
		t.Fatal("expected error for base URL without scheme")
	}
}
