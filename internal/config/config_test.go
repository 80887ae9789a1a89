package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// vars is an in-memory environment for loadFrom.
type vars map[string]string

func (v vars) lookup(k string) (string, bool) {
	s, ok := v[k]
	return s, ok
}

func load(t *testing.T, v vars) Config {
	t.Helper()
	cfg, err := loadFrom(v.lookup)
	if err != nil {
		t.Fatalf("loadFrom: %v", err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := load(t, vars{})

	if cfg.Port != "8080" || cfg.GinMode != "release" || cfg.LogLevel != "info" || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("server defaults: %+v", cfg)
	}
	if cfg.WriteTimeout <= cfg.Model.Timeout {
		t.Fatalf("write timeout %v must outlive model timeout %v", cfg.WriteTimeout, cfg.Model.Timeout)
	}
	if cfg.Model.Timeout != 25*time.Second || cfg.Model.Name != "llama-3.3-70b-versatile" ||
		cfg.Model.BaseURL != "https://api.groq.com/openai/v1" || cfg.Model.Temperature != 0.7 {
		t.Fatalf("model defaults: %+v", cfg.Model)
	}
	if cfg.Model.HasSystemKey() {
		t.Fatalf("no GROQ_API_KEY must not count as a system key")
	}
	if cfg.DefaultCredits != 5 || cfg.ExploreSearchLimit != 500 || cfg.DBPath != "app.db" {
		t.Fatalf("app defaults: %+v", cfg)
	}
	if cfg.Cache.URL != "" || cfg.Cache.TTL != 24*time.Hour {
		t.Fatalf("cache defaults: %+v", cfg.Cache)
	}
	if cfg.RateRPS != 5 || cfg.RateBurst != 10 || cfg.GenerateRPS != 0.2 || cfg.GenerateBurst != 3 {
		t.Fatalf("rate defaults: %+v", cfg)
	}
	if cfg.Version != "" || cfg.SkipMigrations || cfg.CORS.AllowedOrigins != nil {
		t.Fatalf("misc defaults: %+v", cfg)
	}
	if cfg.OTEL.Enabled || !cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "go-roadmap-backend" || cfg.OTEL.SampleRatio != 1 {
		t.Fatalf("otel defaults: %+v", cfg.OTEL)
	}
}

func TestLoad_OverridesAndNormalization(t *testing.T) {
	cfg := load(t, vars{
		"PORT":                        "8088",
		"READ_TIMEOUT":                "2s",
		"WRITE_TIMEOUT":               "30s",
		"MAX_HEADER_BYTES":            "8192",
		"GIN_MODE":                    " Debug ",
		"LOG_LEVEL":                   "WARNING",
		"LOG_PRETTY":                  "yes",
		"SWAGGER_ENABLED":             "on",
		"API_BASE_PATH":               "api/v2/",
		"APP_VERSION":                 " 1.4.0 ",
		"SKIP_MIGRATIONS":             "1",
		"DB_PATH":                     "db.sqlite",
		"DEFAULT_CREDITS":             "3",
		"GROQ_API_KEY":                "  gsk-test  ",
		"GROQ_BASE_URL":               "http://llm.local/v1/",
		"GROQ_MODEL":                  "llama-test",
		"MODEL_TEMPERATURE":           "0.2",
		"MODEL_TIMEOUT":               "5s",
		"KV_URL":                      "redis://localhost:6379/0",
		"CACHE_TTL":                   "1h",
		"GENERATE_RATE_RPS":           "0.5",
		"GENERATE_RATE_BURST":         "2",
		"CORS_ALLOWED_ORIGINS":        " https://a.com , , http://b ",
		"ENABLE_HSTS":                 "TRUE",
		"HSTS_MAX_AGE":                "24h",
		"IDEMPOTENCY_TTL":             "48h",
		"OTEL_ENABLED":                "1",
		"OTEL_EXPORTER_OTLP_INSECURE": "off",
		"OTEL_TRACES_SAMPLER_ARG":     "0.75",
	})

	if cfg.Port != "8088" || cfg.ReadTimeout != 2*time.Second || cfg.WriteTimeout != 30*time.Second || cfg.MaxHeaderBytes != 8192 {
		t.Fatalf("server: %+v", cfg)
	}
	if cfg.GinMode != "debug" || cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v2" {
		t.Fatalf("normalization: mode=%q level=%q base=%q", cfg.GinMode, cfg.LogLevel, cfg.APIBasePath)
	}
	if cfg.Version != "1.4.0" || !cfg.SkipMigrations || cfg.DBPath != "db.sqlite" || cfg.DefaultCredits != 3 {
		t.Fatalf("app: %+v", cfg)
	}
	if cfg.Model.APIKey != "gsk-test" || cfg.Model.BaseURL != "http://llm.local/v1" || cfg.Model.Name != "llama-test" ||
		cfg.Model.Temperature != 0.2 || cfg.Model.Timeout != 5*time.Second || !cfg.Model.HasSystemKey() {
		t.Fatalf("model: %+v", cfg.Model)
	}
	if cfg.Cache.URL != "redis://localhost:6379/0" || cfg.Cache.TTL != time.Hour {
		t.Fatalf("cache: %+v", cfg.Cache)
	}
	if cfg.GenerateRPS != 0.5 || cfg.GenerateBurst != 2 {
		t.Fatalf("generate limiter: %v/%d", cfg.GenerateRPS, cfg.GenerateBurst)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour || cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("security/idempotency: %+v %v", cfg.Security, cfg.IdempotencyTTL)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Insecure || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel: %+v", cfg.OTEL)
	}
}

func TestLoad_UnparsableValuesFallBack(t *testing.T) {
	cfg := load(t, vars{
		"RATE_RPS":        "x",
		"RATE_BURST":      "nope",
		"READ_TIMEOUT":    "soon",
		"LOG_PRETTY":      "maybe",
		"GIN_MODE":        "weird",
		"DEFAULT_CREDITS": "",
	})
	if cfg.RateRPS != 5 || cfg.RateBurst != 10 || cfg.ReadTimeout != 15*time.Second {
		t.Fatalf("numeric fallbacks: %+v", cfg)
	}
	if cfg.LogPretty || cfg.GinMode != "release" || cfg.DefaultCredits != 5 {
		t.Fatalf("flag/mode fallbacks: %+v", cfg)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := map[string]vars{
		"LOG_LEVEL must be one of":       {"LOG_LEVEL": "verbose"},
		"PORT must not be empty":         {"PORT": "   "},
		"timeouts must be positive":      {"IDLE_TIMEOUT": "0s"},
		"MAX_HEADER_BYTES":               {"MAX_HEADER_BYTES": "0"},
		"DB_PATH must not be empty":      {"DB_PATH": "  "},
		"DEFAULT_CREDITS":                {"DEFAULT_CREDITS": "-1"},
		"EXPLORE_SEARCH_LIMIT":           {"EXPLORE_SEARCH_LIMIT": "0"},
		"GROQ_BASE_URL":                  {"GROQ_BASE_URL": " / "},
		"GROQ_MODEL":                     {"GROQ_MODEL": "   "},
		"MODEL_TEMPERATURE":              {"MODEL_TEMPERATURE": "2.5"},
		"MODEL_TIMEOUT":                  {"MODEL_TIMEOUT": "0s"},
		"CACHE_TTL":                      {"CACHE_TTL": "-1m"},
		"RATE_RPS":                       {"RATE_RPS": "-1"},
		"RATE_BURST":                     {"RATE_BURST": "0"},
		"GENERATE_RATE_RPS":              {"GENERATE_RATE_RPS": "-0.1"},
		"GENERATE_RATE_BURST":            {"GENERATE_RATE_BURST": "0"},
		"HSTS_MAX_AGE":                   {"HSTS_MAX_AGE": "-1s"},
		"IDEMPOTENCY_TTL":                {"IDEMPOTENCY_TTL": "0s"},
		"OTEL_TRACES_SAMPLER_ARG":        {"OTEL_TRACES_SAMPLER_ARG": "1.5"},
		"MODEL_TEMPERATURE must be betw": {"MODEL_TEMPERATURE": "-0.1"},
	}
	for want, env := range cases {
		t.Run(want, func(t *testing.T) {
			_, err := loadFrom(env.lookup)
			if err == nil || !strings.Contains(err.Error(), want) {
				t.Fatalf("err = %v; want it to mention %q", err, want)
			}
		})
	}
}

func TestLoad_ReportsAllViolations(t *testing.T) {
	_, err := loadFrom(vars{"RATE_BURST": "0", "CACHE_TTL": "0s"}.lookup)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"RATE_BURST", "CACHE_TTL"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q misses %s", err, want)
		}
	}
}

func TestLoad_ReadsProcessEnvironment(t *testing.T) {
	t.Setenv("PORT", "9099")
	t.Setenv("GROQ_API_KEY", UnsetAPIKey)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9099" || cfg.Model.HasSystemKey() {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestMustLoad(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "debug")
		if cfg := MustLoad(); cfg.LogLevel != "debug" {
			t.Fatalf("LogLevel = %q", cfg.LogLevel)
		}
	})
	t.Run("invalid panics", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "verbose")
		defer func() {
			if recover() == nil {
				t.Fatalf("MustLoad should panic on invalid config")
			}
		}()
		_ = MustLoad()
	})
}

func TestModelConfig_HasSystemKey(t *testing.T) {
	for key, want := range map[string]bool{"": false, UnsetAPIKey: false, "gsk-1": true} {
		if got := (ModelConfig{APIKey: key}).HasSystemKey(); got != want {
			t.Fatalf("HasSystemKey(%q) = %v", key, got)
		}
	}
}

func TestEnvReaders(t *testing.T) {
	e := env(vars{"S": "val", "EMPTY": "", "F": "3.14", "I": "42", "D": "150ms", "B1": " Yes ", "B0": "OFF"}.lookup)

	if e.str("S", "d") != "val" || e.str("EMPTY", "d") != "d" || e.str("MISSING", "d") != "d" {
		t.Fatal("str")
	}
	if e.num("F", 0) != 3.14 || e.num("S", 1.5) != 1.5 {
		t.Fatal("num")
	}
	if e.integer("I", 0) != 42 || e.integer("F", 7) != 7 {
		t.Fatal("integer")
	}
	if e.dur("D", 0) != 150*time.Millisecond || e.dur("S", time.Second) != time.Second {
		t.Fatal("dur")
	}
	if !e.flag("B1", false) || e.flag("B0", true) || !e.flag("EMPTY", true) {
		t.Fatal("flag")
	}
}

func TestSplitCSVAndBasePath(t *testing.T) {
	if splitCSV("") != nil || splitCSV(" , ") != nil {
		t.Fatalf("blank CSV should be nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV = %#v", got)
	}
	for in, want := range map[string]string{"": "/", " / ": "/", "v1": "/v1", "/v1/": "/v1", "//api/v1//": "/api/v1"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}
