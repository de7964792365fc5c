package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"storefront/internal/catalog/types"
	"strings"
)

type server struct {
	svc *Service
}

// NewHandler returns the JSON routes that expose the page-level operations
// under /api.
func NewHandler(svc *Service) *server {
	return &server{svc: svc}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", s.handleProducts)
	mux.HandleFunc("GET /api/products/{id}", s.handleProduct)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/promotions", s.handlePromotions)
	mux.HandleFunc("GET /api/promotions/active", s.handleActivePromotions)
	mux.HandleFunc("GET /api/promotions/{id}", s.handlePromotion)
	mux.HandleFunc("GET /api/promotions/{id}/products", s.handlePromotionProducts)
}

func (s *server) handleProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("category")); raw != "" {
		id, err := types.ParseID(raw)
		if err != nil || id.IsZero() {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}
		writeJSON(ctx, w, s.svc.ProductsByCategory(ctx, id))
		return
	}
	if q := query.Get("q"); q != "" {
		writeJSON(ctx, w, s.svc.Search(ctx, q))
		return
	}
	writeJSON(ctx, w, s.svc.ProductsWithPrices(ctx))
}

func (s *server) handleProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := s.svc.ProductDetail(ctx, id)
	if err != nil {
		writeLookupError(ctx, w, "product", err)
		return
	}
	writeJSON(ctx, w, p)
}

func (s *server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, s.svc.Categories(r.Context()))
}

func (s *server) handlePromotions(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, s.svc.PromotionsOverview(r.Context()))
}

func (s *server) handleActivePromotions(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, s.svc.ActivePromotions(r.Context()))
}

func (s *server) handlePromotion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := s.svc.Promotion(ctx, id)
	if err != nil {
		writeLookupError(ctx, w, "promotion", err)
		return
	}
	writeJSON(ctx, w, p)
}

func (s *server) handlePromotionProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	writeJSON(ctx, w, s.svc.ProductsByPromotion(ctx, id))
}

func pathID(w http.ResponseWriter, r *http.Request) (types.ID, bool) {
	id, err := types.ParseID(r.PathValue("id"))
	if err != nil || id.IsZero() {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeLookupError(ctx context.Context, w http.ResponseWriter, what string, err error) {
	if errors.Is(err, ErrNotFound) {
		http.Error(w, what+" not found", http.StatusNotFound)
		return
	}
	slog.ErrorContext(ctx, "lookup failed", "kind", what, "error", err)
	http.Error(w, "could not load "+what, http.StatusBadGateway)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(ctx, "failed to write json response", "error", err)
	}
}
