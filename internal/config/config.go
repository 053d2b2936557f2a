package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // Single default user (default)
	AuthModeToken AuthMode = "token" // Bearer token resolved against users.token
)

type RateLimitStore string

const (
	RateLimitStoreMemory   RateLimitStore = "memory"
	RateLimitStoreDatabase RateLimitStore = "database"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Tasks
		Auth
		RateLimits
		Metadata
		Enrichment
		Mirror
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Auth struct {
		Mode        AuthMode
		DefaultUser string // Username every request runs as in "none" mode
	}
	RateLimits struct {
		Store  RateLimitStore
		Lookup RateRule
		Search RateRule
		Import RateRule
		Enrich RateRule
	}
	Metadata struct {
		Timeout           time.Duration
		RequestsPerSecond float64
		GoogleBooksAPIKey string
	}
	Enrichment struct {
		BatchSize int
		Delay     time.Duration
	}
	Mirror struct {
		Path         string
		ServerURL    string
		Token        string
		SyncSchedule string        // Cron format: "*/15 * * * *" = every 15 minutes
		SyncTimeout  time.Duration // Network fetch budget before falling back to the mirror
	}
)

// RateRule is a "limit/window" pair such as "30/1m".
type RateRule struct {
	Limit  int
	Window time.Duration
}

func (r RateRule) String() string {
	return fmt.Sprintf("%d/%s", r.Limit, r.Window)
}

// ParseRateRule parses "limit/window", e.g. "5/1h".
func ParseRateRule(s string) (RateRule, error) {
	limitPart, windowPart, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return RateRule{}, fmt.Errorf("rate rule %q: expected limit/window", s)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(limitPart))
	if err != nil || limit <= 0 {
		return RateRule{}, fmt.Errorf("rate rule %q: limit must be a positive integer", s)
	}
	window, err := time.ParseDuration(strings.TrimSpace(windowPart))
	if err != nil || window <= 0 {
		return RateRule{}, fmt.Errorf("rate rule %q: window must be a positive duration", s)
	}
	return RateRule{Limit: limit, Window: window}, nil
}

// LoadDotEnv reads an optional .env file into the process environment.
// Variables already set are not overridden.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			log.Printf("Loaded environment from %s", p)
		}
	}
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_default_user", "default")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Rate limit defaults
	v.SetDefault("rate_limit_store", "memory")
	v.SetDefault("rate_limit_lookup", "30/1m")
	v.SetDefault("rate_limit_search", "20/1m")
	v.SetDefault("rate_limit_import", "5/1h")
	v.SetDefault("rate_limit_enrich", "1/5m")

	// Metadata provider defaults
	v.SetDefault("metadata_timeout", "10s")
	v.SetDefault("metadata_rps", 2.0)
	v.SetDefault("google_books_api_key", "")
	v.SetDefault("enrichment_batch_size", 20)
	v.SetDefault("enrichment_delay", "500ms")

	// Offline mirror defaults
	v.SetDefault("mirror_path", DefaultMirrorPath)
	v.SetDefault("mirror_server_url", "http://localhost:8188")
	v.SetDefault("mirror_token", "")
	v.SetDefault("mirror_sync_schedule", "*/15 * * * *")
	v.SetDefault("mirror_sync_timeout", "30s")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Auth: Auth{
			Mode:        AuthMode(strings.ToLower(v.GetString("AUTH_MODE"))),
			DefaultUser: v.GetString("AUTH_DEFAULT_USER"),
		},
		RateLimits: RateLimits{
			Store:  RateLimitStore(strings.ToLower(v.GetString("RATE_LIMIT_STORE"))),
			Lookup: rateRule(v, "RATE_LIMIT_LOOKUP"),
			Search: rateRule(v, "RATE_LIMIT_SEARCH"),
			Import: rateRule(v, "RATE_LIMIT_IMPORT"),
			Enrich: rateRule(v, "RATE_LIMIT_ENRICH"),
		},
		Metadata: Metadata{
			Timeout:           v.GetDuration("METADATA_TIMEOUT"),
			RequestsPerSecond: v.GetFloat64("METADATA_RPS"),
			GoogleBooksAPIKey: v.GetString("GOOGLE_BOOKS_API_KEY"),
		},
		Enrichment: Enrichment{
			BatchSize: v.GetInt("ENRICHMENT_BATCH_SIZE"),
			Delay:     v.GetDuration("ENRICHMENT_DELAY"),
		},
		Mirror: Mirror{
			Path:         v.GetString("MIRROR_PATH"),
			ServerURL:    v.GetString("MIRROR_SERVER_URL"),
			Token:        v.GetString("MIRROR_TOKEN"),
			SyncSchedule: v.GetString("MIRROR_SYNC_SCHEDULE"),
			SyncTimeout:  v.GetDuration("MIRROR_SYNC_TIMEOUT"),
		},
	}
}

// rateRule reads a rule, falling back to the default when the value is malformed.
func rateRule(v *viper.Viper, key string) RateRule {
	raw := v.GetString(key)
	rule, err := ParseRateRule(raw)
	if err == nil {
		return rule
	}
	def := defaultRateRules[key]
	log.Printf("Invalid %s=%q (%v), using %s", key, raw, err, def)
	return def
}

var defaultRateRules = map[string]RateRule{
	"RATE_LIMIT_LOOKUP": {Limit: 30, Window: time.Minute},
	"RATE_LIMIT_SEARCH": {Limit: 20, Window: time.Minute},
	"RATE_LIMIT_IMPORT": {Limit: 5, Window: time.Hour},
	"RATE_LIMIT_ENRICH": {Limit: 1, Window: 5 * time.Minute},
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case AuthModeNone, AuthModeToken:
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeNone, AuthModeToken, c.Auth.Mode)
	}
	switch c.RateLimits.Store {
	case RateLimitStoreMemory, RateLimitStoreDatabase:
	default:
		return fmt.Errorf("RATE_LIMIT_STORE must be %q or %q, got %q", RateLimitStoreMemory, RateLimitStoreDatabase, c.RateLimits.Store)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}
	return nil
}
