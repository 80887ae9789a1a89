// Package config loads application settings from environment variables,
// applies defaults, and validates the result. Every key is documented next to
// the field it fills.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// UnsetAPIKey is the placeholder value shipped in example env files. It is
// treated exactly like an absent key.
const UnsetAPIKey = "your_groq_api_key_here"

// CORSConfig lists the origins allowed to call the API; empty allows all.
type CORSConfig struct {
	AllowedOrigins []string // CORS_ALLOWED_ORIGINS, comma separated
}

// SecurityConfig controls HSTS.
type SecurityConfig struct {
	EnableHSTS bool          // ENABLE_HSTS
	HSTSMaxAge time.Duration // HSTS_MAX_AGE
}

// OTELConfig controls trace export.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT, host:port
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0,1]
}

// ModelConfig describes how the hosted language model is reached.
type ModelConfig struct {
	APIKey      string        // GROQ_API_KEY, the system default credential
	BaseURL     string        // GROQ_BASE_URL, OpenAI-compatible endpoint
	Name        string        // GROQ_MODEL
	Temperature float64       // MODEL_TEMPERATURE in [0,2]
	Timeout     time.Duration // MODEL_TIMEOUT, hard deadline per call
}

// HasSystemKey reports whether a usable default model credential is configured.
func (m ModelConfig) HasSystemKey() bool {
	return m.APIKey != "" && m.APIKey != UnsetAPIKey
}

// CacheConfig describes the optional Redis front cache for dedup lookups.
type CacheConfig struct {
	URL string        // KV_URL; empty disables the cache
	TTL time.Duration // CACHE_TTL
}

// Config holds all configuration values for the application.
type Config struct {
	Port              string        // PORT
	ReadTimeout       time.Duration // READ_TIMEOUT
	ReadHeaderTimeout time.Duration // READ_HEADER_TIMEOUT
	WriteTimeout      time.Duration // WRITE_TIMEOUT, must outlive the model deadline
	IdleTimeout       time.Duration // IDLE_TIMEOUT
	MaxHeaderBytes    int           // MAX_HEADER_BYTES
	GinMode           string        // GIN_MODE: debug|release|test

	LogLevel       string // LOG_LEVEL: debug|info|warn|error|fatal|panic
	LogPretty      bool   // LOG_PRETTY
	SwaggerEnabled bool   // SWAGGER_ENABLED
	APIBasePath    string // API_BASE_PATH

	Version        string // APP_VERSION; empty keeps the build-stamped one
	DBPath         string // DB_PATH
	SkipMigrations bool   // SKIP_MIGRATIONS

	DefaultCredits     int // DEFAULT_CREDITS granted on a user's first generation
	ExploreSearchLimit int // EXPLORE_SEARCH_LIMIT, public titles ranked per search

	Model ModelConfig
	Cache CacheConfig

	RateRPS       float64 // RATE_RPS, global per-client limiter
	RateBurst     int     // RATE_BURST
	GenerateRPS   float64 // GENERATE_RATE_RPS, per-user generation limiter
	GenerateBurst int     // GENERATE_RATE_BURST

	CORS     CORSConfig
	Security SecurityConfig

	IdempotencyTTL time.Duration // IDEMPOTENCY_TTL

	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the process environment.
func Load() (Config, error) { return loadFrom(os.LookupEnv) }

// loadFrom builds a Config from lookup. Unparsable values fall back to the
// default; out-of-range values are reported by validate.
func loadFrom(lookup func(string) (string, bool)) (Config, error) {
	e := env(lookup)
	cfg := Config{
		Port:              e.str("PORT", "8080"),
		ReadTimeout:       e.dur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.dur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.dur("WRITE_TIMEOUT", 40*time.Second),
		IdleTimeout:       e.dur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.integer("MAX_HEADER_BYTES", 1<<20),
		GinMode:           ginMode(e.str("GIN_MODE", "release")),

		LogLevel:       logLevel(e.str("LOG_LEVEL", "info")),
		LogPretty:      e.flag("LOG_PRETTY", false),
		SwaggerEnabled: e.flag("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(e.str("API_BASE_PATH", "/api/v1")),

		Version:        strings.TrimSpace(e.str("APP_VERSION", "")),
		DBPath:         e.str("DB_PATH", "app.db"),
		SkipMigrations: e.flag("SKIP_MIGRATIONS", false),

		DefaultCredits:     e.integer("DEFAULT_CREDITS", 5),
		ExploreSearchLimit: e.integer("EXPLORE_SEARCH_LIMIT", 500),

		Model: ModelConfig{
			APIKey:      strings.TrimSpace(e.str("GROQ_API_KEY", "")),
			BaseURL:     strings.TrimRight(strings.TrimSpace(e.str("GROQ_BASE_URL", "https://api.groq.com/openai/v1")), "/"),
			Name:        e.str("GROQ_MODEL", "llama-3.3-70b-versatile"),
			Temperature: e.num("MODEL_TEMPERATURE", 0.7),
			Timeout:     e.dur("MODEL_TIMEOUT", 25*time.Second),
		},
		Cache: CacheConfig{
			URL: e.str("KV_URL", ""),
			TTL: e.dur("CACHE_TTL", 24*time.Hour),
		},

		RateRPS:       e.num("RATE_RPS", 5),
		RateBurst:     e.integer("RATE_BURST", 10),
		GenerateRPS:   e.num("GENERATE_RATE_RPS", 0.2),
		GenerateBurst: e.integer("GENERATE_RATE_BURST", 3),

		CORS: CORSConfig{AllowedOrigins: splitCSV(e.str("CORS_ALLOWED_ORIGINS", ""))},
		Security: SecurityConfig{
			EnableHSTS: e.flag("ENABLE_HSTS", false),
			HSTSMaxAge: e.dur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: e.dur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     e.flag("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.flag("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "go-roadmap-backend"),
			SampleRatio: e.num("OTEL_TRACES_SAMPLER_ARG", 1),
		},
	}
	return cfg, cfg.validate()
}

// validate reports every violated constraint at once.
func (c Config) validate() error {
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }
	checks := []struct {
		bad bool
		msg string
	}{
		{!validLogLevels[c.LogLevel], "LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"},
		{blank(c.Port), "PORT must not be empty"},
		{c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0, "timeouts must be positive durations"},
		{c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0"},
		{blank(c.DBPath), "DB_PATH must not be empty"},
		{c.DefaultCredits < 0, "DEFAULT_CREDITS must be >= 0"},
		{c.ExploreSearchLimit < 1, "EXPLORE_SEARCH_LIMIT must be >= 1"},
		{c.Model.BaseURL == "", "GROQ_BASE_URL must not be empty"},
		{blank(c.Model.Name), "GROQ_MODEL must not be empty"},
		{c.Model.Temperature < 0 || c.Model.Temperature > 2, "MODEL_TEMPERATURE must be between 0 and 2"},
		{c.Model.Timeout <= 0, "MODEL_TIMEOUT must be > 0"},
		{c.Cache.TTL <= 0, "CACHE_TTL must be > 0"},
		{c.RateRPS < 0, "RATE_RPS must be >= 0"},
		{c.RateBurst < 1, "RATE_BURST must be >= 1"},
		{c.GenerateRPS < 0, "GENERATE_RATE_RPS must be >= 0"},
		{c.GenerateBurst < 1, "GENERATE_RATE_BURST must be >= 1"},
		{c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0"},
		{c.IdempotencyTTL <= 0, "IDEMPOTENCY_TTL must be > 0"},
		{c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]"},
	}
	var errs []error
	for _, ch := range checks {
		if ch.bad {
			errs = append(errs, errors.New(ch.msg))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
}

func logLevel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return "warn"
	}
	return s
}

func ginMode(s string) string {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "debug", "release", "test":
		return s
	}
	return "release"
}

// env reads typed values through a lookup function. Empty values count as
// unset.
type env func(string) (string, bool)

func (e env) str(k, def string) string {
	if v, ok := e(k); ok && v != "" {
		return v
	}
	return def
}

func (e env) num(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(e.str(k, ""), 64); err == nil {
		return f
	}
	return def
}

func (e env) integer(k string, def int) int {
	if i, err := strconv.Atoi(e.str(k, "")); err == nil {
		return i
	}
	return def
}

func (e env) flag(k string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(e.str(k, ""))) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}

func (e env) dur(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.str(k, "")); err == nil {
		return d
	}
	return def
}

// splitCSV splits on commas and drops blank entries; "" yields nil.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing ones except for
// the root path.
func normalizeBasePath(p string) string {
	return "/" + strings.Trim(strings.TrimSpace(p), "/")
}
