// Package config loads application settings from environment variables.
//
// Every field's `mapstructure` tag names its variable and an optional
// `default` tag gives its fallback. Load binds those variables with viper,
// decodes them into Config, normalizes a few values and then checks the
// `validate` tags with go-playground/validator. Problems are reported
// together, keyed by variable name.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool          `mapstructure:"ENABLE_HSTS"`
	HSTSMaxAge time.Duration `mapstructure:"HSTS_MAX_AGE" default:"4320h" validate:"gte=0"`
}

// OTELConfig defines OpenTelemetry tracing settings.
type OTELConfig struct {
	Enabled     bool    `mapstructure:"OTEL_ENABLED"`
	Endpoint    string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	Insecure    bool    `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	ServiceName string  `mapstructure:"OTEL_SERVICE_NAME" default:"go-menu-backend"`
	SampleRatio float64 `mapstructure:"OTEL_TRACES_SAMPLER_ARG" default:"1" validate:"gte=0,lte=1"`
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        `mapstructure:"PORT" default:"8080" validate:"required"`
	ReadTimeout       time.Duration `mapstructure:"READ_TIMEOUT" default:"15s" validate:"gt=0"`
	ReadHeaderTimeout time.Duration `mapstructure:"READ_HEADER_TIMEOUT" default:"10s" validate:"gt=0"`
	WriteTimeout      time.Duration `mapstructure:"WRITE_TIMEOUT" default:"20s" validate:"gt=0"`
	IdleTimeout       time.Duration `mapstructure:"IDLE_TIMEOUT" default:"60s" validate:"gt=0"`
	MaxHeaderBytes    int           `mapstructure:"MAX_HEADER_BYTES" default:"1048576" validate:"gt=0"`
	GinMode           string        `mapstructure:"GIN_MODE" default:"release"` // debug|release|test

	// Logging / Docs
	LogLevel       string `mapstructure:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error fatal panic"`
	LogPretty      bool   `mapstructure:"LOG_PRETTY"`
	SwaggerEnabled bool   `mapstructure:"SWAGGER_ENABLED"`
	APIBasePath    string `mapstructure:"API_BASE_PATH" default:"/api/v1"`

	// Storage
	DBPath   string `mapstructure:"DB_PATH" default:"app.db" validate:"required"`
	SeedPath string `mapstructure:"SEED_PATH"` // empty disables seeding

	// Per-principal menu cache; a size of 0 disables it.
	PermCacheSize int           `mapstructure:"PERM_CACHE_SIZE" default:"1024" validate:"gte=0"`
	PermCacheTTL  time.Duration `mapstructure:"PERM_CACHE_TTL" default:"1m" validate:"gt=0"`

	// Locale of violation messages when Accept-Language does not match.
	DefaultLocale language.Tag `mapstructure:"DEFAULT_LOCALE" default:"en"`

	// Rate limiting
	RateRPS   float64 `mapstructure:"RATE_RPS" default:"5" validate:"gte=0"`
	RateBurst int     `mapstructure:"RATE_BURST" default:"10" validate:"gte=1"`

	CORS     CORSConfig     `mapstructure:",squash"`
	Security SecurityConfig `mapstructure:",squash"`

	IdempotencyTTL time.Duration `mapstructure:"IDEMPOTENCY_TTL" default:"24h" validate:"gt=0"`

	OTEL OTELConfig `mapstructure:",squash"`
}

// MustLoad loads the configuration and panics if it is invalid.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the environment into a Config. Unset or empty variables take
// their default; malformed values and failed checks are returned as one
// joined error.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	if err := bindEnv(v, reflect.TypeOf(Config{})); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return cfg, fmt.Errorf("decode environment: %w", err)
	}
	cfg.normalize()
	if err := validate.Struct(cfg); err != nil {
		return cfg, describe(err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Port = strings.TrimSpace(c.Port)
	c.DBPath = strings.TrimSpace(c.DBPath)
	c.SeedPath = strings.TrimSpace(c.SeedPath)

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}

	c.GinMode = strings.ToLower(strings.TrimSpace(c.GinMode))
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}

	c.APIBasePath = normalizeBasePath(c.APIBasePath)
}

// bindEnv registers every tagged field of t with v: the variable itself and
// its default. Squashed structs are walked recursively.
func bindEnv(v *viper.Viper, t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key, opt, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if opt == "squash" {
			if err := bindEnv(v, f.Type); err != nil {
				return err
			}
			continue
		}
		if key == "" {
			continue
		}
		if err := v.BindEnv(key); err != nil {
			return err
		}
		v.SetDefault(key, f.Tag.Get("default"))
	}
	return nil
}

// decodeHook converts the raw strings viper hands over. Durations and
// language tags use their own parsers; booleans accept yes/no and on/off;
// string lists are comma separated.
var decodeHook = mapstructure.ComposeDecodeHookFunc(
	mapstructure.StringToTimeDurationHookFunc(),
	langHook,
	boolHook,
	csvHook,
)

var (
	stringSliceType = reflect.TypeOf([]string(nil))
	langTagType     = reflect.TypeOf(language.Tag{})
)

func langHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != langTagType {
		return data, nil
	}
	return language.Parse(strings.TrimSpace(data.(string)))
}

func boolHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}
	s := data.(string)
	if strings.TrimSpace(s) == "" {
		return false, nil
	}
	return parseBool(s)
}

func csvHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != stringSliceType {
		return data, nil
	}
	return splitCSV(data.(string)), nil
}

// validate reports field errors under their variable names.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if k, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ","); k != "" {
			return k
		}
		return f.Name
	})
	return v
}()

// describe turns validator errors into "KEY must ..." lines.
func describe(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	errs := make([]error, 0, len(ves))
	for _, fe := range ves {
		errs = append(errs, fmt.Errorf("%s %s", fe.Field(), rule(fe)))
	}
	return errors.Join(errs...)
}

func rule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be > " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	}
	return "failed " + fe.Tag()
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, errors.New("not a boolean")
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing ones, except
// for the root path.
func normalizeBasePath(p string) string {
	return "/" + strings.Trim(strings.TrimSpace(p), "/")
}
