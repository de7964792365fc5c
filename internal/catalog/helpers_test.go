package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"storefront/internal/cascade"
	"storefront/internal/config"
	"sync"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type response struct {
	status int
	body   string
}

func ok(body string) response {
	return response{status: http.StatusOK, body: body}
}

func fail(status int) response {
	return response{status: status, body: `{"detail":"error"}`}
}

// fakeAPI serves canned responses keyed by path plus raw query. Unknown
// routes are 404s.
type fakeAPI struct {
	mu     sync.Mutex
	routes map[string]response
	hits   []string
}

func newFakeAPI(t *testing.T, routes map[string]response) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{routes: routes}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		api.mu.Lock()
		api.hits = append(api.hits, key)
		resp, found := api.routes[key]
		api.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !found {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Not found."}`))
			return
		}
		w.WriteHeader(resp.status)
		_, _ = w.Write([]byte(resp.body))
	}))
	t.Cleanup(server.Close)
	return api, server
}

func (a *fakeAPI) calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.hits)
}

func (a *fakeAPI) called(key string) bool {
	return slices.Contains(a.calls(), key)
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(config.CatalogConfig{
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func newTestService(t *testing.T, routes map[string]response, enrich config.EnrichConfig) (*Service, *fakeAPI) {
	t.Helper()
	api, server := newFakeAPI(t, routes)
	svc := NewService(newTestClient(t, server), &config.Config{Enrich: enrich})
	svc.now = func() time.Time { return testNow }
	svc.enricher.now = svc.now
	return svc, api
}

// routeFetcher answers candidates from routes keyed by path plus query.
func routeFetcher(routes map[string]string) cascade.FetcherFunc {
	return func(_ context.Context, c cascade.Candidate) ([]byte, error) {
		body, found := routes[c.URL("")]
		if !found {
			return nil, &StatusError{Operation: c.Name, StatusCode: http.StatusNotFound}
		}
		return []byte(body), nil
	}
}

func promotionJSON(id int, pct string, start, end time.Time) string {
	return fmt.Sprintf(`{"promotion_id":%d,"title":"Promo %d","discount_percentage":%q,"start_date":%q,"end_date":%q}`,
		id, id, pct, start.Format(time.RFC3339), end.Format(time.RFC3339))
}

func activePromotion(id int, pct string) string {
	return promotionJSON(id, pct, testNow.AddDate(0, 0, -7), testNow.AddDate(0, 0, 7))
}

func expiredPromotion(id int, pct string) string {
	return promotionJSON(id, pct, testNow.AddDate(0, -2, 0), testNow.AddDate(0, -1, 0))
}

func upcomingPromotion(id int, pct string) string {
	return promotionJSON(id, pct, testNow.AddDate(0, 1, 0), testNow.AddDate(0, 2, 0))
}
