package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is built once at process start and passed down by value. Nothing in
// the module reads configuration from the environment after Load returns.
type Config struct {
	Env         string
	ListenAddr  string
	DatabaseURL string
	ScanWorkers int

	ResultsDir     string
	RequestTimeout time.Duration
	RateLimitDelay time.Duration
	MaxConcurrency int
	MaxResults     int
	DefaultRegion  string
	UserAgents     []string

	Features    Features
	Credentials Credentials
}

// Features toggles optional integrations.
type Features struct {
	EmailRep bool
	HIBP     bool
	Hunter   bool
	DNS      bool
	Search   bool
}

// Credentials for integrations that need them. Empty means not configured.
type Credentials struct {
	HIBPKey          string
	DehashedUsername string
	DehashedKey      string
	EmailRepKey      string
	HunterKey        string
}

// HasDehashed reports whether both DeHashed credentials are set.
func (c Credentials) HasDehashed() bool {
	return c.DehashedUsername != "" && c.DehashedKey != ""
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
}

// env names per key; the first name is what operators set.
var bindings = map[string][]string{
	"env":                {"APP_ENV"},
	"listen_addr":        {"LISTEN_ADDR"},
	"database_url":       {"DATABASE_URL"},
	"scan_workers":       {"SCAN_WORKERS"},
	"results_dir":        {"RESULTS_DIR"},
	"request_timeout":    {"REQUEST_TIMEOUT"},
	"rate_limit_delay":   {"RATE_LIMIT_DELAY"},
	"max_concurrency":    {"MAX_CONCURRENCY"},
	"max_results":        {"MAX_RESULTS_PER_PLATFORM"},
	"default_region":     {"DEFAULT_REGION"},
	"features.emailrep":  {"ENABLE_EMAILREP"},
	"features.hibp":      {"ENABLE_HIBP"},
	"features.hunter":    {"ENABLE_HUNTER"},
	"features.dns":       {"ENABLE_DNS_WHOIS"},
	"features.search":    {"ENABLE_SEARCH"},
	"keys.hibp":          {"HAVEIBEENPWNED_API_KEY"},
	"keys.dehashed_user": {"DEHASHED_USERNAME"},
	"keys.dehashed_key":  {"DEHASHED_API_KEY"},
	"keys.emailrep":      {"EMAILREP_API_KEY"},
	"keys.hunter":        {"HUNTER_API_KEY"},
}

// Load reads .env (when present), then the optional YAML file at path, then
// the environment. Later sources win.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("env", "development")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("scan_workers", 0)
	v.SetDefault("results_dir", "results")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("rate_limit_delay", "1s")
	v.SetDefault("max_concurrency", 0)
	v.SetDefault("max_results", 50)
	v.SetDefault("user_agents", defaultUserAgents)
	for _, f := range []string{"emailrep", "hibp", "hunter", "dns", "search"} {
		v.SetDefault("features."+f, true)
	}
	for key, names := range bindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path == "" {
		path = os.Getenv("FOOTPRINT_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Env:            v.GetString("env"),
		ListenAddr:     v.GetString("listen_addr"),
		DatabaseURL:    v.GetString("database_url"),
		ScanWorkers:    v.GetInt("scan_workers"),
		ResultsDir:     v.GetString("results_dir"),
		RequestTimeout: seconds(v, "request_timeout"),
		RateLimitDelay: seconds(v, "rate_limit_delay"),
		MaxConcurrency: v.GetInt("max_concurrency"),
		MaxResults:     v.GetInt("max_results"),
		DefaultRegion:  strings.ToUpper(v.GetString("default_region")),
		UserAgents:     v.GetStringSlice("user_agents"),
		Features: Features{
			EmailRep: v.GetBool("features.emailrep"),
			HIBP:     v.GetBool("features.hibp"),
			Hunter:   v.GetBool("features.hunter"),
			DNS:      v.GetBool("features.dns"),
			Search:   v.GetBool("features.search"),
		},
		Credentials: Credentials{
			HIBPKey:          v.GetString("keys.hibp"),
			DehashedUsername: v.GetString("keys.dehashed_user"),
			DehashedKey:      v.GetString("keys.dehashed_key"),
			EmailRepKey:      v.GetString("keys.emailrep"),
			HunterKey:        v.GetString("keys.hunter"),
		},
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = defaultUserAgents
	}
	return cfg, cfg.Validate()
}

// seconds accepts either a duration string ("30s") or a bare number of
// seconds, which is how the timeouts have always been written in .env files.
func seconds(v *viper.Viper, key string) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	return v.GetDuration(key)
}

// Validate rejects settings the orchestrator cannot work with.
func (c Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.RateLimitDelay < 0 {
		return errors.New("rate limit delay must not be negative")
	}
	if c.MaxConcurrency < 0 {
		return errors.New("max concurrency must not be negative")
	}
	return nil
}

// RequireDatabase is for processes that cannot run without Postgres.
func (c Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}
	return nil
}

// Production reports whether the process runs with production settings.
func (c Config) Production() bool {
	return c.Env == "production"
}
