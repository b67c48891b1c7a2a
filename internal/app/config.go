package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (CATALOG_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"Web server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (CATALOG_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL for relative instrument images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	Catalog      CatalogConfig
	Details      DetailsConfig
	Display      DisplayConfig
	Compare      CompareConfig
	RateLimit    RateLimitConfig
	Graceful     GracefulConfig
}

// CatalogConfig controls the in-memory catalog snapshot.
type CatalogConfig struct {
	RefreshInterval time.Duration `default:"5m" usage:"Catalog and details index reload interval, 0 disables" flag:"catalog-refresh"`
}

// DetailsConfig controls supplementary details fetching.
type DetailsConfig struct {
	RenderWait   time.Duration `default:"150ms" usage:"How long a page waits for details before rendering the loading state" flag:"details-render-wait"`
	FetchTimeout time.Duration `default:"3s"    usage:"Timeout of a single details fetch" flag:"details-fetch-timeout"`
	BloomFPR     float64       `default:"0.01"  usage:"False positive rate of the details index" flag:"details-bloom-fpr"`
	IndexRefresh time.Duration `default:"30s"   usage:"Details index rebuild interval, 0 rebuilds only with the catalog" flag:"details-index-refresh"`
}

// DisplayConfig controls how prices and images are presented.
type DisplayConfig struct {
	Locale           string `default:"en-IN" usage:"BCP 47 locale for price digit grouping"`
	CurrencyPrefix   string `default:"₹" usage:"Currency symbol written before prices" flag:"currency-prefix"`
	PlaceholderImage string `default:"/static/placeholder.svg" usage:"Image shown for instruments without one" flag:"placeholder-image"`
}

// CompareConfig controls the visitor session that scopes comparison sets.
type CompareConfig struct {
	Cookie     string        `default:"catalog_session" usage:"Session cookie name" flag:"compare-cookie"`
	Secure     bool          `default:"false" usage:"Mark the session cookie Secure" flag:"compare-cookie-secure"`
	SessionTTL time.Duration `default:"24h" usage:"Idle time after which a comparison set is dropped" flag:"compare-session-ttl"`
}

// RateLimitConfig controls the per-visitor limiter on comparison changes.
type RateLimitConfig struct {
	Max    int           `default:"60" usage:"Max comparison changes per window"`
	Window time.Duration `default:"1m" usage:"Rate limit window duration"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "CATALOG",
		Files:     []string{"config.yaml", "/etc/catalog/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("database URL is required: set CATALOG_DATABASE_URL or DATABASE_URL")
	case c.Details.RenderWait < 0:
		return errors.New("details render wait must not be negative")
	case c.Details.FetchTimeout <= 0:
		return errors.New("details fetch timeout must be positive")
	case c.Details.BloomFPR <= 0 || c.Details.BloomFPR >= 1:
		return errors.Errorf("details bloom false positive rate %v is out of (0, 1)", c.Details.BloomFPR)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's CATALOG_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
