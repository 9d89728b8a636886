package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"
)

// Ensure tests do not inherit settings from the environment.
func TestMain(m *testing.M) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "DB_PATH", "SEED_PATH", "DEFAULT_LOCALE", "GIN_MODE"} {
		os.Unsetenv(k)
	}
	os.Exit(m.Run())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := Config{
		Port:              "8080",
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       time.Minute,
		MaxHeaderBytes:    1 << 20,
		GinMode:           "release",
		LogLevel:          "info",
		APIBasePath:       "/api/v1",
		DBPath:            "app.db",
		PermCacheSize:     1024,
		PermCacheTTL:      time.Minute,
		DefaultLocale:     language.English,
		RateRPS:           5,
		RateBurst:         10,
		Security:          SecurityConfig{HSTSMaxAge: 180 * 24 * time.Hour},
		IdempotencyTTL:    24 * time.Hour,
		OTEL: OTELConfig{
			Endpoint:    "localhost:4317",
			Insecure:    true,
			ServiceName: "go-menu-backend",
			SampleRatio: 1,
		},
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("defaults mismatch:\n got %+v\nwant %+v", cfg, want)
	}
}

func TestLoad_Overrides(t *testing.T) {
	env := map[string]string{
		"PORT":                        " 8088 ",
		"READ_TIMEOUT":                "2s",
		"MAX_HEADER_BYTES":            "8192",
		"GIN_MODE":                    "weird",
		"LOG_LEVEL":                   "WARNING",
		"LOG_PRETTY":                  "yes",
		"SWAGGER_ENABLED":             "on",
		"API_BASE_PATH":               "api/v1/",
		"DB_PATH":                     "db.sqlite",
		"SEED_PATH":                   " data/seed.yaml ",
		"PERM_CACHE_SIZE":             "0",
		"PERM_CACHE_TTL":              "30s",
		"DEFAULT_LOCALE":              "zh-Hans",
		"RATE_RPS":                    "0.5",
		"RATE_BURST":                  "3",
		"CORS_ALLOWED_ORIGINS":        " https://a.com , , http://b ",
		"ENABLE_HSTS":                 "TRUE",
		"HSTS_MAX_AGE":                "24h",
		"IDEMPOTENCY_TTL":             "48h",
		"OTEL_ENABLED":                "1",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "otel:4317",
		"OTEL_EXPORTER_OTLP_INSECURE": "0",
		"OTEL_SERVICE_NAME":           "svc",
		"OTEL_TRACES_SAMPLER_ARG":     "0.75",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" || cfg.ReadTimeout != 2*time.Second || cfg.MaxHeaderBytes != 8192 || cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}
	if cfg.DBPath != "db.sqlite" || cfg.SeedPath != "data/seed.yaml" || cfg.PermCacheSize != 0 || cfg.PermCacheTTL != 30*time.Second {
		t.Fatalf("storage/cache unexpected: %+v", cfg)
	}
	if cfg.DefaultLocale != language.SimplifiedChinese {
		t.Fatalf("default locale = %v", cfg.DefaultLocale)
	}
	if cfg.RateRPS != 0.5 || cfg.RateBurst != 3 {
		t.Fatalf("rate limiting unexpected: %v/%v", cfg.RateRPS, cfg.RateBurst)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins = %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour || cfg.IdempotencyTTL != 48*time.Hour {
		t.Fatalf("security/idempotency unexpected: %+v", cfg)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_Rejects(t *testing.T) {
	cases := []struct {
		key, val, want string
	}{
		{"LOG_LEVEL", "verbose", "LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"},
		{"PORT", "   ", "PORT must not be empty"},
		{"READ_TIMEOUT", "0s", "READ_TIMEOUT must be > 0"},
		{"IDLE_TIMEOUT", "-1s", "IDLE_TIMEOUT must be > 0"},
		{"MAX_HEADER_BYTES", "0", "MAX_HEADER_BYTES must be > 0"},
		{"DB_PATH", "   ", "DB_PATH must not be empty"},
		{"PERM_CACHE_SIZE", "-1", "PERM_CACHE_SIZE must be >= 0"},
		{"PERM_CACHE_TTL", "0s", "PERM_CACHE_TTL must be > 0"},
		{"RATE_RPS", "-1", "RATE_RPS must be >= 0"},
		{"RATE_BURST", "0", "RATE_BURST must be >= 1"},
		{"HSTS_MAX_AGE", "-1s", "HSTS_MAX_AGE must be >= 0"},
		{"IDEMPOTENCY_TTL", "0s", "IDEMPOTENCY_TTL must be > 0"},
		{"OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG must be <= 1"},

		// malformed values are errors, not silent defaults
		{"DEFAULT_LOCALE", "not a tag!", "DEFAULT_LOCALE"},
		{"RATE_BURST", "nope", "RATE_BURST"},
		{"RATE_RPS", "x", "RATE_RPS"},
		{"ENABLE_HSTS", "maybe", "not a boolean"},
		{"WRITE_TIMEOUT", "soon", "WRITE_TIMEOUT"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.val, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load() error = %v; want it to contain %q", err, tc.want)
			}
		})
	}
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	t.Setenv("RATE_RPS", "fast")
	t.Setenv("PERM_CACHE_TTL", "later")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "decode environment") {
		t.Fatalf("error = %v; want a decode error", err)
	}
	for _, key := range []string{"RATE_RPS", "PERM_CACHE_TTL"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("error %q does not mention %s", err, key)
		}
	}

	t.Setenv("RATE_RPS", "-2")
	t.Setenv("PERM_CACHE_TTL", "0s")
	_, err = Load()
	if got := strings.Count(err.Error(), "\n") + 1; got != 2 {
		t.Fatalf("expected 2 validation lines, got %d: %v", got, err)
	}
}

func TestMustLoad(t *testing.T) {
	if cfg := MustLoad(); cfg.APIBasePath != "/api/v1" {
		t.Fatalf("unexpected config from MustLoad: %+v", cfg)
	}

	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", " yes ", "Y", "on"} {
		if b, err := parseBool(v); err != nil || !b {
			t.Fatalf("parseBool(%q) = %v, %v; want true", v, b, err)
		}
	}
	for _, v := range []string{"0", "false", " no ", "N", "Off"} {
		if b, err := parseBool(v); err != nil || b {
			t.Fatalf("parseBool(%q) = %v, %v; want false", v, b, err)
		}
	}
	if _, err := parseBool("2"); err == nil {
		t.Fatal("parseBool(2) should fail")
	}
}

func TestSplitCSV(t *testing.T) {
	if out := splitCSV(" , "); out != nil {
		t.Fatalf("splitCSV of blanks = %#v; want nil", out)
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV = %#v", got)
	}
}

func TestNormalizeBasePath(t *testing.T) {
	for in, want := range map[string]string{
		"":         "/",
		" / ":      "/",
		"v1":       "/v1",
		"/v1/":     "/v1",
		"api/v1//": "/api/v1",
	} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q; want %q", in, got, want)
		}
	}
}
