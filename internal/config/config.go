package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv                 string
	Port                   string
	DatabaseURL            string
	RedisURL               string
	CORSAllowedOrigins     []string
	TenantHeader           string
	TenantRootDomain       string
	TaxConfigCacheTTL      time.Duration
	IdempotencyTTL         time.Duration
	QuoteRateLimitMax      int
	QuoteRateLimitWindow   time.Duration
	JurisdictionPolicyFile string
	DBAutoMigrate          bool
	AuditEnabled           bool
	AuditSamplingRate      float64
	BodyLimitBytes         int64
	SecurityHeadersEnabled bool
	ShutdownTimeout        time.Duration
	ShutdownDrainDelay     time.Duration
	AuditRetention         time.Duration
	CounterRetention       time.Duration
	RetentionInterval      time.Duration
	LockTTL                time.Duration
	WorkerMetricsAddr      string
	Obs                    Obs
}

// Obs groups the logging, metrics, tracing and debug settings shared by the
// API and the worker.
type Obs struct {
	LogFormat          string
	LogLevel           string
	ServiceVersion     string
	MetricsEnabled     bool
	MetricsNamespace   string
	MetricsBucketsMs   string
	TracingEnabled     bool
	TracingExporter    string
	OTLPEndpoint       string
	TracingSampleRatio float64
	PprofEnabled       bool
	PprofUser          string
	PprofPass          string
	HSTSMaxAge         int
	ReadyDBTimeout     time.Duration
	ReadyRedisTimeout  time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:                 valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                   valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:            k.String("DATABASE_URL"),
		RedisURL:               k.String("REDIS_URL"),
		CORSAllowedOrigins:     splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		TenantHeader:           valueOrDefault(k.String("TENANT_HEADER"), "X-Store-ID"),
		TenantRootDomain:       strings.TrimSpace(k.String("TENANT_ROOT_DOMAIN")),
		TaxConfigCacheTTL:      parseDuration(k.String("TAX_CONFIG_CACHE_TTL"), "5m"),
		IdempotencyTTL:         parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		QuoteRateLimitMax:      parseInt(k.String("QUOTE_RATE_LIMIT_MAX"), 120),
		QuoteRateLimitWindow:   parseDuration(k.String("QUOTE_RATE_LIMIT_WINDOW"), "1m"),
		JurisdictionPolicyFile: strings.TrimSpace(k.String("JURISDICTION_POLICY_FILE")),
		DBAutoMigrate:          parseBool(k.String("DB_AUTO_MIGRATE")),
		AuditEnabled:           parseBoolDefault(k.String("AUDIT_ENABLED"), true),
		AuditSamplingRate:      parseFloat(k.String("AUDIT_SAMPLING_RATE"), 1),
		BodyLimitBytes:         int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),
		SecurityHeadersEnabled: parseBoolDefault(k.String("SECURITY_HEADERS_ENABLED"), true),
		ShutdownTimeout:        parseDuration(k.String("SHUTDOWN_TIMEOUT"), "10s"),
		ShutdownDrainDelay:     parseDuration(k.String("SHUTDOWN_DRAIN_DELAY"), "5s"),
		AuditRetention:         parseDuration(k.String("AUDIT_RETENTION"), "2160h"),
		CounterRetention:       parseDuration(k.String("INVOICE_COUNTER_RETENTION"), "168h"),
		RetentionInterval:      parseDuration(k.String("RETENTION_INTERVAL"), "1h"),
		LockTTL:                parseDuration(k.String("LOCK_TTL"), "5m"),
		WorkerMetricsAddr:      strings.TrimSpace(k.String("WORKER_METRICS_ADDR")),
		Obs: Obs{
			LogFormat:          valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:           valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			ServiceVersion:     valueOrDefault(k.String("APP_VERSION"), "dev"),
			MetricsEnabled:     parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
			MetricsNamespace:   valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "pos"),
			MetricsBucketsMs:   strings.TrimSpace(k.String("OBS_METRICS_BUCKETS_MS")),
			TracingEnabled:     parseBoolDefault(k.String("OBS_ENABLE_TRACING"), true),
			TracingExporter:    valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			OTLPEndpoint:       strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			TracingSampleRatio: parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1),
			PprofEnabled:       parseBool(k.String("OBS_ENABLE_PPROF")),
			PprofUser:          strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
			PprofPass:          k.String("SECURE_PPROF_BASIC_AUTH_PASS"),
			HSTSMaxAge:         parseInt(k.String("SECURE_HSTS_MAX_AGE"), 31536000),
			ReadyDBTimeout:     parseMillis(k.String("HEALTH_READY_DB_TIMEOUT_MS"), 500),
			ReadyRedisTimeout:  parseMillis(k.String("HEALTH_READY_REDIS_TIMEOUT_MS"), 300),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.AuditSamplingRate < 0 || cfg.AuditSamplingRate > 1 {
		return nil, errors.New("AUDIT_SAMPLING_RATE must be between 0 and 1")
	}
	if cfg.Obs.PprofEnabled && (cfg.Obs.PprofUser == "" || cfg.Obs.PprofPass == "") {
		return nil, errors.New("OBS_ENABLE_PPROF requires SECURE_PPROF_BASIC_AUTH_USER and SECURE_PPROF_BASIC_AUTH_PASS")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	return parseBoolDefault(value, false)
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseMillis(value string, fallback int) time.Duration {
	return time.Duration(parseInt(value, fallback)) * time.Millisecond
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
