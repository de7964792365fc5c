package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"storefront/internal/catalog"
	"storefront/internal/catalog/types"
	"storefront/internal/config"
	"strings"
	"time"

	"github.com/samber/lo"
)

type options struct {
	category   string
	search     string
	promotion  string
	product    string
	promotions bool
}

func main() {
	var opts options
	var (
		baseURL     = flag.String("base-url", "", "Catalog API base URL (defaults to $CATALOG_API_URL)")
		concurrency = flag.Int("concurrency", -1, "Max concurrent enrichments (defaults to $ENRICH_CONCURRENCY)")
		timeout     = flag.Duration("timeout", 2*time.Minute, "overall timeout for catalog calls")
	)
	flag.StringVar(&opts.category, "category", "", "Category ID to list")
	flag.StringVar(&opts.search, "search", "", "Search query")
	flag.StringVar(&opts.promotion, "promotion", "", "Promotion ID whose products to list")
	flag.StringVar(&opts.product, "product", "", "Product ID to show")
	flag.BoolVar(&opts.promotions, "promotions", false, "Show the promotions overview")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		exitErr(fmt.Errorf("load configuration: %w", err))
	}
	if *baseURL != "" {
		cfg.Catalog.BaseURL = *baseURL
	}
	if *concurrency >= 0 {
		cfg.Enrich.Concurrency = *concurrency
	}

	client, err := catalog.NewClient(cfg.Catalog)
	if err != nil {
		exitErr(fmt.Errorf("create catalog client: %w", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, catalog.NewService(client, cfg), opts, os.Stdout); err != nil {
		exitErr(err)
	}
}

func run(ctx context.Context, svc *catalog.Service, opts options, w io.Writer) error {
	switch {
	case opts.product != "":
		id, err := parseID("product", opts.product)
		if err != nil {
			return err
		}
		p, err := svc.ProductDetail(ctx, id)
		if err != nil {
			return err
		}
		printProducts(w, []types.Product{p})
	case opts.category != "":
		id, err := parseID("category", opts.category)
		if err != nil {
			return err
		}
		printProducts(w, svc.ProductsByCategory(ctx, id))
	case opts.search != "":
		printProducts(w, svc.Search(ctx, opts.search))
	case opts.promotion != "":
		id, err := parseID("promotion", opts.promotion)
		if err != nil {
			return err
		}
		printProducts(w, svc.ProductsByPromotion(ctx, id))
	case opts.promotions:
		o := svc.PromotionsOverview(ctx)
		if o.Featured != nil {
			fmt.Fprintf(w, "Featured: %s (%s%%)\n", o.Featured.Title, o.Featured.Percentage())
		}
		for _, group := range []struct {
			name  string
			items []types.Promotion
		}{{"Current", o.Current}, {"Upcoming", o.Upcoming}, {"Expired", o.Expired}} {
			fmt.Fprintf(w, "%s promotions: %d\n", group.name, len(group.items))
			for _, p := range group.items {
				fmt.Fprintf(w, "  %s: %s%% %s\n", p.ID, p.Percentage(), p.Title)
			}
		}
	default:
		printProducts(w, svc.ProductsWithPrices(ctx))
	}
	return nil
}

func parseID(what, raw string) (types.ID, error) {
	id, err := types.ParseID(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s id: %w", what, err)
	}
	if id.IsZero() {
		return 0, errors.New("invalid " + what + " id: must be positive")
	}
	return id, nil
}

func printProducts(w io.Writer, products []types.Product) {
	for _, p := range products {
		line := fmt.Sprintf("Item: %s: %s, Price: %s", p.ID, p.Name, p.Price)
		if p.HasPromotion {
			line += fmt.Sprintf(", Sale: %s (-%s%%)", p.DiscountedPrice, p.DiscountPercentage)
		}
		fmt.Fprintln(w, line)
	}

	discounted := lo.CountBy(products, func(p types.Product) bool { return p.HasPromotion })
	fmt.Fprintf(w, "Products: %d\n", len(products))
	fmt.Fprintf(w, "Discounted products: %d\n", discounted)

	byCategory := lo.CountValuesBy(products, func(p types.Product) string {
		if p.CategoryName == "" {
			return "(uncategorized)"
		}
		return p.CategoryName
	})
	names := lo.Keys(byCategory)
	sort.Strings(names)
	fmt.Fprintf(w, "Found %d categories\n", len(names))
	for _, name := range names {
		fmt.Fprintf(w, "%s :%d\n", strings.TrimSpace(name), byCategory[name])
	}
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
