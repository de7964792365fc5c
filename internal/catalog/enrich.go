package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"storefront/internal/cascade"
	"storefront/internal/catalog/types"
	"storefront/internal/config"
	"storefront/internal/promotions"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// CategoryLookup resolves a category by id.
type CategoryLookup interface {
	Category(ctx context.Context, id types.ID) (*types.Category, error)
}

// Enricher fills in the display fields of raw catalog products: the category
// name and the discount of the best active promotion.
type Enricher struct {
	categories CategoryLookup
	exec       *cascade.Executor
	cfg        config.EnrichConfig
	now        func() time.Time
	tracer     trace.Tracer
}

func NewEnricher(categories CategoryLookup, exec *cascade.Executor, cfg config.EnrichConfig) *Enricher {
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = config.FailureDegrade
	}
	return &Enricher{
		categories: categories,
		exec:       exec,
		cfg:        cfg,
		now:        time.Now,
		tracer:     otel.Tracer("storefront/internal/catalog"),
	}
}

// withCategories returns a copy of e that resolves category names through
// categories.
func (e *Enricher) withCategories(categories CategoryLookup) *Enricher {
	cp := *e
	cp.categories = categories
	return &cp
}

// knownCategory answers lookups for id with a result fetched earlier in the
// same call and delegates every other id to next.
type knownCategory struct {
	id   types.ID
	cat  *types.Category
	err  error
	next CategoryLookup
}

func (k knownCategory) Category(ctx context.Context, id types.ID) (*types.Category, error) {
	if id != k.id {
		return k.next.Category(ctx, id)
	}
	if k.err != nil {
		return nil, k.err
	}
	return k.cat, nil
}

func promotionCandidates(id types.ID) []cascade.Candidate {
	return []cascade.Candidate{
		{Name: "product-promotions", Path: "/product-promotions/" + id.String() + "/"},
		{Name: "nested-promotions", Path: "/products/" + id.String() + "/promotions/"},
	}
}

// Enrich returns p with its category name and discount fields set. The
// returned product is always usable: when no promotions endpoint answers it
// is priced at base price and the error wraps ErrPromotionsUnavailable.
// Derived fields are recomputed from Price on every call.
func (e *Enricher) Enrich(ctx context.Context, p types.Product) (types.Product, error) {
	p.Images = types.NormalizeImages(p.Images)

	if p.CategoryName == "" && !p.CategoryID.IsZero() && e.categories != nil {
		cat, err := e.categories.Category(ctx, p.CategoryID)
		if err != nil {
			slog.WarnContext(ctx, "failed to look up category name",
				"product_id", p.ID,
				"category_id", p.CategoryID,
				"error", err,
			)
		} else if cat != nil {
			p.CategoryName = cat.Name
		}
	}

	if p.ID.IsZero() {
		return p.ClearDiscount(), nil
	}

	out := cascade.Run[types.Promotion](ctx, e.exec, promotionCandidates(p.ID), nil)
	if out.Exhausted() {
		return p.ClearDiscount(), fmt.Errorf("product %s: %w", p.ID, ErrPromotionsUnavailable)
	}
	return promotions.Resolve(p.Price, out.Items, e.now()).Apply(p), nil
}

type enrichResult struct {
	product types.Product
	failed  bool
}

// EnrichAll enriches every product concurrently and returns them in input
// order. A failed item, including one that panics or runs past the item
// timeout, is handled by the configured FailurePolicy and never fails the
// batch.
func (e *Enricher) EnrichAll(ctx context.Context, products []types.Product) []types.Product {
	ctx, span := e.tracer.Start(ctx, "catalog.EnrichAll", trace.WithAttributes(
		attribute.Int("enrich.products", len(products)),
		attribute.Int("enrich.concurrency", e.cfg.Concurrency),
		attribute.String("enrich.failure_policy", string(e.cfg.FailurePolicy)),
	))
	defer span.End()

	results := make([]enrichResult, len(products))
	var g errgroup.Group
	if e.cfg.Concurrency > 0 {
		g.SetLimit(e.cfg.Concurrency)
	}
	for i, p := range products {
		g.Go(func() error {
			results[i] = e.enrichOne(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	failures := lo.CountBy(results, func(r enrichResult) bool { return r.failed })
	span.SetAttributes(attribute.Int("enrich.failures", failures))
	if failures > 0 {
		slog.WarnContext(ctx, "some products could not be fully enriched",
			"products", len(products),
			"failures", failures,
			"failure_policy", e.cfg.FailurePolicy,
		)
	}

	out := make([]types.Product, 0, len(results))
	for _, r := range results {
		if r.failed && e.cfg.FailurePolicy == config.FailureDrop {
			continue
		}
		out = append(out, r.product)
	}
	return out
}

func (e *Enricher) enrichOne(ctx context.Context, p types.Product) (res enrichResult) {
	res = enrichResult{product: p.ClearDiscount(), failed: true}
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic while enriching product", "product_id", p.ID, "panic", r)
			res = enrichResult{product: p.ClearDiscount(), failed: true}
		}
	}()

	if e.cfg.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.ItemTimeout)
		defer cancel()
	}

	enriched, err := e.Enrich(ctx, p)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			level = slog.LevelError
		}
		slog.Log(ctx, level, "failed to enrich product", "product_id", p.ID, "error", err)
		return enrichResult{product: enriched, failed: true}
	}
	return enrichResult{product: enriched}
}
