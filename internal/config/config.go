package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration // 0 disables the recap cache

	// Observability
	OTLPEndpoint string // empty disables tracing export

	// Supabase
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	ExpenseTable       string

	// Auth
	JWTSecret string // Supabase JWT secret; empty leaves owner routes open

	// CORS
	AllowedOrigins []string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 30*time.Second),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		SupabaseURL:        strings.TrimRight(getEnv("SUPABASE_URL", getEnv("NEXT_PUBLIC_SUPABASE_URL", "")), "/"),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", getEnv("NEXT_PUBLIC_SUPABASE_ANON_KEY", "")),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		ExpenseTable:       getEnv("SUPABASE_EXPENSE_TABLE", "pengeluaran"),

		JWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),

		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
}

// Validate reports configuration that would make the service unusable.
// Missing Supabase credentials are fatal at startup.
func (c *Config) Validate() error {
	var errs []error

	if c.SupabaseURL == "" {
		errs = append(errs, errors.New("SUPABASE_URL is required"))
	} else if !strings.HasPrefix(c.SupabaseURL, "http://") && !strings.HasPrefix(c.SupabaseURL, "https://") {
		errs = append(errs, fmt.Errorf("SUPABASE_URL %q must start with http:// or https://", c.SupabaseURL))
	}
	if c.SupabaseAnonKey == "" {
		errs = append(errs, errors.New("SUPABASE_ANON_KEY is required"))
	}
	if c.ExpenseTable == "" {
		errs = append(errs, errors.New("SUPABASE_EXPENSE_TABLE must not be empty"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("invalid MAX_RETRIES %d: must not be negative", c.MaxRetries))
	}
	if c.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("invalid MAX_CONCURRENCY %d: must be positive", c.MaxConcurrency))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("invalid CACHE_TTL %s: must not be negative", c.CacheTTL))
	}

	return errors.Join(errs...)
}

// StoreKey returns the key sent as the PostgREST bearer token.
// The service-role key wins when configured; otherwise the anon key is used,
// which keeps row level security in charge.
func (c *Config) StoreKey() string {
	if c.SupabaseServiceKey != "" {
		return c.SupabaseServiceKey
	}
	return c.SupabaseAnonKey
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
