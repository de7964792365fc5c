package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL = "http://localhost:8000/api"
	DefaultBanner  = "/assets/images/promotion-default.png"
)

type Config struct {
	Catalog    CatalogConfig    `json:"catalog"`
	Enrich     EnrichConfig     `json:"enrich"`
	Promotions PromotionsConfig `json:"promotions"`
	Server     ServerConfig     `json:"server"`
	Telemetry  TelemetryConfig  `json:"telemetry"`
}

type CatalogConfig struct {
	BaseURL      string        `json:"base_url"`
	Timeout      time.Duration `json:"timeout"`
	RetryMax     int           `json:"retry_max"`
	RetryWaitMin time.Duration `json:"retry_wait_min"`
	RetryWaitMax time.Duration `json:"retry_wait_max"`
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client `json:"-"`
}

// FailurePolicy decides what a batch does with a product whose enrichment
// failed.
type FailurePolicy string

const (
	// FailureDegrade keeps the product at its base price.
	FailureDegrade FailurePolicy = "degrade"
	// FailureDrop leaves the product out of the batch.
	FailureDrop FailurePolicy = "drop"
)

type EnrichConfig struct {
	// Concurrency caps in-flight enrichments; zero or less is unbounded.
	Concurrency   int           `json:"concurrency"`
	FailurePolicy FailurePolicy `json:"failure_policy"`
	// ItemTimeout bounds one product's enrichment; zero means no bound.
	ItemTimeout time.Duration `json:"item_timeout"`
}

type PromotionsConfig struct {
	DefaultBanner string `json:"default_banner"`
}

type ServerConfig struct {
	Addr      string `json:"addr"`
	LogFormat string `json:"log_format"` // "text", "json" or "otlp"
}

// TelemetryConfig turns on OTLP export of traces and logs. The exporters read
// the standard OTEL_EXPORTER_OTLP_* variables themselves.
type TelemetryConfig struct {
	OTLPEndpoint string `json:"otlp_endpoint"`
	ServiceName  string `json:"service_name"`
}

func (t TelemetryConfig) Enabled() bool {
	return t.OTLPEndpoint != ""
}

// Load reads configuration from the environment, after applying a .env file
// when one exists in the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var errs []error
	config := &Config{
		Catalog: CatalogConfig{
			BaseURL:      getEnvOrDefault("CATALOG_API_URL", DefaultBaseURL),
			Timeout:      getEnvDuration("CATALOG_TIMEOUT", 20*time.Second, &errs),
			RetryMax:     getEnvInt("CATALOG_RETRY_MAX", 1, &errs),
			RetryWaitMin: getEnvDuration("CATALOG_RETRY_WAIT_MIN", 200*time.Millisecond, &errs),
			RetryWaitMax: getEnvDuration("CATALOG_RETRY_WAIT_MAX", 2*time.Second, &errs),
		},
		Enrich: EnrichConfig{
			Concurrency:   getEnvInt("ENRICH_CONCURRENCY", 0, &errs),
			FailurePolicy: FailurePolicy(strings.ToLower(getEnvOrDefault("ENRICH_FAILURE_POLICY", string(FailureDegrade)))),
			ItemTimeout:   getEnvDuration("ENRICH_ITEM_TIMEOUT", 0, &errs),
		},
		Promotions: PromotionsConfig{
			DefaultBanner: getEnvOrDefault("PROMOTION_DEFAULT_BANNER", DefaultBanner),
		},
		Server: ServerConfig{
			Addr:      getEnvOrDefault("ADDR", ":8080"),
			LogFormat: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text")),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  getEnvOrDefault("OTEL_SERVICE_NAME", "storefront"),
		},
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	return c.Enrich.Validate()
}

func (c CatalogConfig) Validate() error {
	raw := strings.TrimSpace(c.BaseURL)
	if raw == "" {
		return errors.New("catalog base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid catalog base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("catalog base URL %q must be http or https", raw)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("catalog retry max must not be negative, got %d", c.RetryMax)
	}
	return nil
}

func (e EnrichConfig) Validate() error {
	switch e.FailurePolicy {
	case "", FailureDegrade, FailureDrop:
		return nil
	default:
		return fmt.Errorf("unknown enrich failure policy %q", e.FailurePolicy)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}
