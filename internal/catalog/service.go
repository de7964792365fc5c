package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"storefront/internal/cascade"
	"storefront/internal/catalog/types"
	"storefront/internal/config"
	"storefront/internal/promotions"
	"storefront/internal/search"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Backend is everything the page-level operations need from the catalog API.
// *Client satisfies it.
type Backend interface {
	cascade.Fetcher
	CategoryLookup
	Product(ctx context.Context, id types.ID) (*types.Product, error)
	Promotion(ctx context.Context, id types.ID) (*types.Promotion, error)
}

var _ Backend = (*Client)(nil)

const (
	hydrateConcurrency    = 8
	categoryPathCandidate = "category-path"
)

var (
	allProducts   = cascade.Candidate{Name: "all-products", Path: "/products/"}
	allCategories = cascade.Candidate{Name: "categories", Path: "/categories/"}
	activePromos  = cascade.Candidate{Name: "active-promotions", Path: "/active-promotions/"}
	allPromos     = cascade.Candidate{Name: "promotions", Path: "/promotions/"}
)

// Service answers the storefront's page-level questions: products of a
// category, search results, promotion pages. Every product it returns has
// been enriched with its category name and current discount.
type Service struct {
	backend  Backend
	exec     *cascade.Executor
	enricher *Enricher
	banner   string
	now      func() time.Time
}

func NewService(backend Backend, cfg *config.Config) *Service {
	exec := cascade.NewExecutor(backend)
	banner := cfg.Promotions.DefaultBanner
	if banner == "" {
		banner = config.DefaultBanner
	}
	return &Service{
		backend:  backend,
		exec:     exec,
		enricher: NewEnricher(backend, exec, cfg.Enrich),
		banner:   banner,
		now:      time.Now,
	}
}

func categoryCandidates(id types.ID) []cascade.Candidate {
	return []cascade.Candidate{
		{Name: "category-id-filter", Path: "/products/", Query: url.Values{"category_id": {id.String()}}},
		{Name: "category-filter", Path: "/products/", Query: url.Values{"category": {id.String()}}},
		{Name: categoryPathCandidate, Path: "/products/category/" + id.String() + "/"},
	}
}

// ProductsByCategory lists the enriched products of one category.
func (s *Service) ProductsByCategory(ctx context.Context, categoryID types.ID) []types.Product {
	inCategory := func(p types.Product) bool {
		return p.CategoryID == categoryID
	}
	out := cascade.Run(ctx, s.exec, categoryCandidates(categoryID), &cascade.Fallback[types.Product]{
		Candidate: allProducts,
		Keep:      inCategory,
	})
	// some backends ignore the filter parameter and return everything. Only
	// the category path may leave the id off its items.
	items := lo.Filter(out.Items, func(p types.Product, _ int) bool {
		return inCategory(p) || (p.CategoryID.IsZero() && out.Source == categoryPathCandidate)
	})
	slog.InfoContext(ctx, "loaded category products",
		"category_id", categoryID,
		"source", out.Source,
		"products", len(items),
	)
	if len(items) == 0 {
		return items
	}

	cat, err := s.backend.Category(ctx, categoryID)
	if err != nil {
		slog.WarnContext(ctx, "failed to look up category", "category_id", categoryID, "error", err)
	}
	for i := range items {
		items[i].CategoryID = categoryID
		if cat != nil && items[i].CategoryName == "" {
			items[i].CategoryName = cat.Name
		}
	}
	// every item shares the category, so a failed lookup is not repeated per item
	enricher := s.enricher.withCategories(knownCategory{id: categoryID, cat: cat, err: err, next: s.backend})
	return enricher.EnrichAll(ctx, items)
}

// Search returns enriched products matching query. When the backend cannot
// search, the full collection is ranked locally.
func (s *Service) Search(ctx context.Context, query string) []types.Product {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ProductsWithPrices(ctx)
	}

	out := cascade.Run(ctx, s.exec, []cascade.Candidate{
		{Name: "search", Path: "/products/", Query: url.Values{"search": {query}}},
	}, &cascade.Fallback[types.Product]{Candidate: allProducts})

	items := out.Items
	if out.Fallback() {
		items = search.Rank(query, items)
	}
	slog.InfoContext(ctx, "searched products",
		"query", query,
		"source", out.Source,
		"products", len(items),
	)
	return s.enricher.EnrichAll(ctx, items)
}

// ProductsWithPrices lists every product, enriched.
func (s *Service) ProductsWithPrices(ctx context.Context) []types.Product {
	out := cascade.Run[types.Product](ctx, s.exec, []cascade.Candidate{allProducts}, nil)
	return s.enricher.EnrichAll(ctx, out.Items)
}

// ProductDetail looks up one product. A missing product returns an error
// wrapping ErrNotFound; a product whose promotions cannot be loaded is
// returned at base price.
func (s *Service) ProductDetail(ctx context.Context, id types.ID) (types.Product, error) {
	p, err := s.backend.Product(ctx, id)
	if err != nil {
		return types.Product{}, fmt.Errorf("load product %s: %w", id, err)
	}
	if p.ID.IsZero() {
		p.ID = id
	}
	enriched, err := s.enricher.Enrich(ctx, *p)
	if err != nil {
		slog.WarnContext(ctx, "product detail served without promotions", "product_id", id, "error", err)
	}
	return enriched, nil
}

// Categories lists the catalog's categories.
func (s *Service) Categories(ctx context.Context) []types.Category {
	out := cascade.Run[types.Category](ctx, s.exec, []cascade.Candidate{allCategories}, nil)
	return out.Items
}

// ActivePromotions lists the promotions active right now, with display-ready
// banners.
func (s *Service) ActivePromotions(ctx context.Context) []types.Promotion {
	now := s.now()
	return lo.Filter(s.promotions(ctx), func(p types.Promotion, _ int) bool {
		return promotions.IsActive(p, now)
	})
}

// PromotionsOverview groups promotions into current, upcoming and expired and
// picks the one to feature.
func (s *Service) PromotionsOverview(ctx context.Context) promotions.Overview {
	return promotions.Group(s.promotions(ctx), s.now())
}

// Promotion looks up one promotion. A missing promotion returns an error
// wrapping ErrNotFound.
func (s *Service) Promotion(ctx context.Context, id types.ID) (types.Promotion, error) {
	p, err := s.backend.Promotion(ctx, id)
	if err != nil {
		return types.Promotion{}, fmt.Errorf("load promotion %s: %w", id, err)
	}
	p.Banner = promotions.NormalizeBanner(p.Banner, s.banner)
	return *p, nil
}

func (s *Service) promotions(ctx context.Context) []types.Promotion {
	out := cascade.Run(ctx, s.exec, []cascade.Candidate{activePromos}, &cascade.Fallback[types.Promotion]{
		Candidate: allPromos,
	})
	return lo.Map(out.Items, func(p types.Promotion, _ int) types.Promotion {
		p.Banner = promotions.NormalizeBanner(p.Banner, s.banner)
		return p
	})
}

// ProductsByPromotion lists the enriched products a promotion targets. When
// the backend cannot list them, products are matched by comparing their
// resolved discount with the promotion's whole-number percentage.
func (s *Service) ProductsByPromotion(ctx context.Context, promotionID types.ID) []types.Product {
	out := cascade.Run[types.Product](ctx, s.exec, []cascade.Candidate{
		{Name: "promotion-products", Path: "/promotions/" + promotionID.String() + "/products/"},
	}, nil)
	if !out.Exhausted() {
		items := s.hydrate(ctx, out.Items)
		slog.InfoContext(ctx, "loaded promotion products", "promotion_id", promotionID, "products", len(items))
		return s.enricher.EnrichAll(ctx, items)
	}

	slog.InfoContext(ctx, "promotion products endpoint unavailable, matching by discount", "promotion_id", promotionID)
	target, ok := lo.Find(s.ActivePromotions(ctx), func(p types.Promotion) bool {
		return p.ID == promotionID
	})
	if !ok || !target.Percentage().IsPositive() {
		slog.InfoContext(ctx, "promotion not active", "promotion_id", promotionID)
		return []types.Product{}
	}

	want := target.Percentage().IntPart()
	return lo.Filter(s.ProductsWithPrices(ctx), func(p types.Product, _ int) bool {
		return p.HasPromotion && p.DiscountPercentage.IntPart() == want
	})
}

// hydrate replaces promotion list entries that carry no images with the full
// product record. Entries that cannot be hydrated are kept as they are.
func (s *Service) hydrate(ctx context.Context, items []types.Product) []types.Product {
	out := make([]types.Product, len(items))
	var g errgroup.Group
	g.SetLimit(hydrateConcurrency)
	for i, item := range items {
		out[i] = item
		if len(item.Images) > 0 || item.ID.IsZero() {
			continue
		}
		g.Go(func() error {
			full, err := s.backend.Product(ctx, item.ID)
			if err != nil {
				level := slog.LevelWarn
				if errors.Is(err, ErrNotFound) {
					level = slog.LevelInfo
				}
				slog.Log(ctx, level, "failed to hydrate promotion product", "product_id", item.ID, "error", err)
				return nil
			}
			if full.ID.IsZero() {
				full.ID = item.ID
			}
			out[i] = *full
			return nil
		})
	}
	_ = g.Wait()

	for i := range out {
		if out[i].Images == nil {
			out[i].Images = []types.Image{}
		}
		if out[i].Name == "" {
			out[i].Name = "Product " + out[i].ID.String()
		}
	}
	return out
}
