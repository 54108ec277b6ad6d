package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Remote API
	BaseURL     string `env:"BASE_URL"`
	EnableHTTPS bool   `env:"ENABLE_HTTPS"`
	ServerURL   string `env:"-"`
	ScraperURL  string `env:"SCRAPER_URL"`

	// Local state
	ClientDBPath string `env:"CLIENT_DB_PATH"`
	TokenFile    string `env:"TOKEN_FILE"`

	// Client behaviour
	CacheStaleAfter time.Duration `env:"CACHE_STALE_AFTER"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT"`
	MaxUploadMB     int           `env:"MAX_UPLOAD_MB"`
	DefaultCurrency string        `env:"DEFAULT_CURRENCY"`
	LogLevel        string        `env:"LOG_LEVEL"`

	Stats   bool `env:"-"` // print counters after the command (flag only)
	Version bool `env:"-"` // show client version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags override values taken from env
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "host:port of the WishBoard API")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "use https scheme for the API")
	flag.StringVar(&cfg.ScraperURL, "scraper-url", cfg.ScraperURL, "base URL of the link metadata scraper (empty: parse pages locally)")
	flag.StringVar(&cfg.ClientDBPath, "client-db", cfg.ClientDBPath, "path to client SQLite DB")
	flag.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "path to auth token file")
	flag.DurationVar(&cfg.CacheStaleAfter, "stale-after", cfg.CacheStaleAfter, "cache entry freshness window")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "remote request timeout")
	flag.IntVar(&cfg.MaxUploadMB, "max-upload-mb", cfg.MaxUploadMB, "largest photo accepted for upload, MiB")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	flag.BoolVar(&cfg.Stats, "stats", cfg.Stats, "print cache and gateway counters after the command")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	cfg.applyDefaults()
	return cfg
}

var hostPortRe = regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)

func (cfg *Config) applyDefaults() {
	// BaseURL must be "address:port" (no scheme, no path). Otherwise use default.
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8080"
	}
	if cfg.EnableHTTPS {
		cfg.ServerURL = "https://" + cfg.BaseURL
	} else {
		cfg.ServerURL = "http://" + cfg.BaseURL
	}

	if cfg.CacheStaleAfter <= 0 {
		cfg.CacheStaleAfter = 5 * time.Minute
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 7
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "USD"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}

	home, _ := os.UserHomeDir()
	if cfg.ClientDBPath == "" {
		cfg.ClientDBPath = filepath.Join(home, ".wishboard", "client.sqlite")
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = filepath.Join(home, ".wishboard", "auth_token")
	}
}

// MaxUploadBytes returns the photo size ceiling in bytes.
func (cfg *Config) MaxUploadBytes() int64 {
	return int64(cfg.MaxUploadMB) * 1024 * 1024
}
