// Package config loads runtime settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/linkbio/internal/auth"
	"github.com/sakif/linkbio/internal/middleware"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	minSecretLength = 16
)

// Config holds every runtime setting.
type Config struct {
	Port        int
	Environment string // development | production | test
	Version     string
	LogLevel    slog.Level
	LogFormat   string // text | json

	DBDriver    string
	DBPath      string // sqlite file, or ":memory:"
	DatabaseURL string // postgres DSN

	JWTSecret string
	TokenTTL  time.Duration

	// GoogleAudiences are the OAuth client IDs an ID token may be issued for.
	GoogleAudiences    []string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	APIKeys     []string
	CORSOrigins []string

	// RateLimitTiers is empty when rate limiting is disabled.
	RateLimitTiers []middleware.Tier

	// problems collects values that could not be parsed; Validate reports them.
	problems []error
}

// Load reads .env (when present) and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() *Config {
	c := &Config{}

	c.Port = c.envInt("PORT", 8080)
	c.Environment = envString("APP_ENV", "development")
	c.Version = envString("APP_VERSION", "1.0.0")
	c.LogLevel = c.envLevel("LOG_LEVEL", slog.LevelInfo)
	c.LogFormat = strings.ToLower(envString("LOG_FORMAT", "text"))

	c.DBDriver = strings.ToLower(envString("DB_DRIVER", DriverSQLite))
	c.DBPath = envString("DB_PATH", "data/linkbio.db")
	c.DatabaseURL = os.Getenv("DATABASE_URL")

	c.JWTSecret = os.Getenv("JWT_SECRET")
	c.TokenTTL = c.envDuration("TOKEN_TTL", auth.DefaultTokenTTL)

	c.GoogleAudiences = append(envList("GOOGLE_CLIENT_ID_IOS"), envList("GOOGLE_CLIENT_ID")...)
	if ids := envList("GOOGLE_CLIENT_ID"); len(ids) > 0 {
		c.GoogleClientID = ids[0]
	}
	c.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	c.GoogleRedirectURL = envString("GOOGLE_REDIRECT_URL", fmt.Sprintf("http://localhost:%d/api/v1/auth/google/callback", c.Port))

	c.APIKeys = envList("API_KEY")
	c.CORSOrigins = envList("CORS_ORIGINS")
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}

	tiers, set := os.LookupEnv("RATE_LIMIT_TIERS")
	switch {
	case !set:
		c.RateLimitTiers = middleware.DefaultTiers
	case strings.TrimSpace(tiers) != "":
		parsed, err := middleware.ParseTiers(tiers)
		if err != nil {
			c.problems = append(c.problems, fmt.Errorf("RATE_LIMIT_TIERS: %w", err))
		}
		c.RateLimitTiers = parsed
	}

	return c
}

// Validate reports every problem with c at once.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.problems...)

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %s or %s, got %q", DriverSQLite, DriverPostgres, c.DBDriver))
	}

	if len(c.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if len(c.GoogleAudiences) == 0 {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID or GOOGLE_CLIENT_ID_IOS is required"))
	}

	return errors.Join(errs...)
}

// GoogleWebFlowEnabled reports whether the browser redirect login can be served.
func (c *Config) GoogleWebFlowEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envList splits a comma separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.problems = append(c.problems, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (c *Config) envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		c.problems = append(c.problems, fmt.Errorf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

func (c *Config) envLevel(key string, def slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		c.problems = append(c.problems, fmt.Errorf("%s: %q is not a log level", key, v))
		return def
	}
	return level
}
