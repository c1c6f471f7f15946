package config

import (
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort                     = "8080"
	defaultOpenAPISpec              = "api/openapi.yaml"
	defaultEndpointCatalog          = "config/endpoints.yaml"
	defaultShutdownTimeout          = 10 * time.Second
	defaultDBReadinessTimeout       = 30 * time.Second
	defaultDBReadinessRetryInterval = 2 * time.Second
	defaultMigrationsPath           = "internal/adapters/outbound/persistence/postgresql/migrations"
	defaultWorkerPollInterval       = 5 * time.Second
	defaultStaleLockTTL             = 10 * time.Minute
	defaultMaxAttempts              = 5
	defaultInitialBackoff           = 30 * time.Second
	defaultMaxBackoff               = 1 * time.Hour
	defaultCatastrophicBackoff      = 5 * time.Minute
	defaultExchangeHTTPTimeout      = 30 * time.Second
	defaultTokenExpiryMargin        = 60 * time.Second
	defaultWebhookDedupTTL          = 24 * time.Hour
	defaultKafkaOutcomeTopic        = "exchange.queue-item-outcomes"
)

type ConfigError struct {
	Code     string
	Message  string
	Metadata map[string]string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

type Config struct {
	Port                     string
	LogLevel                 slog.Level
	OpenAPISpecPath          string
	EndpointCatalogPath      string
	ShutdownTimeout          time.Duration
	DatabaseURL              string
	DatabaseTarget           string
	DBReadinessTimeout       time.Duration
	DBReadinessRetryInterval time.Duration
	MigrationsPath           string

	WorkerID            string
	WorkerPollInterval  time.Duration
	WorkerTasks         []string
	QueueStaleLockTTL   time.Duration
	QueueMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	CatastrophicBackoff time.Duration
	ExchangeHTTPTimeout time.Duration
	TokenExpiryMargin   time.Duration

	RedisURL           string
	WebhookDedupTTL    time.Duration
	KafkaBrokers       []string
	KafkaOutcomeTopic  string
	CORSAllowedOrigins []string
}

func LoadConfig() (Config, *ConfigError) {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		return Config{}, &ConfigError{
			Code:    "CONFIG_DATABASE_URL_REQUIRED",
			Message: "DATABASE_URL is required",
		}
	}

	databaseTarget, parseErr := parseDatabaseTarget(databaseURL)
	if parseErr != nil {
		return Config{}, parseErr
	}

	logLevel, levelErr := parseLogLevel(os.Getenv("LOG_LEVEL"))
	if levelErr != nil {
		return Config{}, levelErr
	}

	cfg := Config{
		Port:                     stringOr("PORT", defaultPort),
		LogLevel:                 logLevel,
		OpenAPISpecPath:          stringOr("OPENAPI_SPEC_PATH", defaultOpenAPISpec),
		EndpointCatalogPath:      stringOr("ENDPOINT_CATALOG_PATH", defaultEndpointCatalog),
		ShutdownTimeout:          defaultShutdownTimeout,
		DatabaseURL:              databaseURL,
		DatabaseTarget:           databaseTarget,
		DBReadinessTimeout:       defaultDBReadinessTimeout,
		DBReadinessRetryInterval: defaultDBReadinessRetryInterval,
		MigrationsPath:           stringOr("MIGRATIONS_PATH", defaultMigrationsPath),
		WorkerID:                 stringOr("WORKER_ID", defaultWorkerID()),
		WorkerTasks:              splitCSV(os.Getenv("WORKER_TASKS")),
		RedisURL:                 strings.TrimSpace(os.Getenv("REDIS_URL")),
		KafkaBrokers:             splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaOutcomeTopic:        stringOr("KAFKA_OUTCOME_TOPIC", defaultKafkaOutcomeTopic),
		CORSAllowedOrigins:       splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	durations := []struct {
		key      string
		fallback time.Duration
		target   *time.Duration
	}{
		{"WORKER_POLL_INTERVAL", defaultWorkerPollInterval, &cfg.WorkerPollInterval},
		{"QUEUE_STALE_LOCK_TTL", defaultStaleLockTTL, &cfg.QueueStaleLockTTL},
		{"RETRY_INITIAL_BACKOFF", defaultInitialBackoff, &cfg.RetryInitialBackoff},
		{"RETRY_MAX_BACKOFF", defaultMaxBackoff, &cfg.RetryMaxBackoff},
		{"CATASTROPHIC_BACKOFF", defaultCatastrophicBackoff, &cfg.CatastrophicBackoff},
		{"EXCHANGE_HTTP_TIMEOUT", defaultExchangeHTTPTimeout, &cfg.ExchangeHTTPTimeout},
		{"TOKEN_EXPIRY_MARGIN", defaultTokenExpiryMargin, &cfg.TokenExpiryMargin},
		{"WEBHOOK_DEDUP_TTL", defaultWebhookDedupTTL, &cfg.WebhookDedupTTL},
	}
	for _, entry := range durations {
		value, cfgErr := parsePositiveDuration(entry.key, entry.fallback)
		if cfgErr != nil {
			return Config{}, cfgErr
		}
		*entry.target = value
	}

	maxAttempts, cfgErr := parsePositiveInt("QUEUE_DEFAULT_MAX_ATTEMPTS", defaultMaxAttempts)
	if cfgErr != nil {
		return Config{}, cfgErr
	}
	cfg.QueueMaxAttempts = maxAttempts

	if cfg.RetryMaxBackoff < cfg.RetryInitialBackoff {
		return Config{}, &ConfigError{
			Code:    "CONFIG_RETRY_BACKOFF_INVALID",
			Message: "RETRY_MAX_BACKOFF must not be lower than RETRY_INITIAL_BACKOFF",
			Metadata: map[string]string{
				"initial": cfg.RetryInitialBackoff.String(),
				"max":     cfg.RetryMaxBackoff.String(),
			},
		}
	}

	if cfg.RedisURL != "" {
		if _, err := url.Parse(cfg.RedisURL); err != nil {
			return Config{}, &ConfigError{
				Code:    "CONFIG_REDIS_URL_INVALID",
				Message: "REDIS_URL is invalid",
			}
		}
	}

	return cfg, nil
}

func (c Config) Address() string {
	return ":" + c.Port
}

func parseDatabaseTarget(databaseURL string) (string, *ConfigError) {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_INVALID",
			Message: "DATABASE_URL is invalid",
		}
	}

	switch parsed.Scheme {
	case "postgres", "postgresql":
	default:
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_SCHEME_INVALID",
			Message: "DATABASE_URL must use postgres or postgresql scheme",
		}
	}

	if parsed.Host == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_URL_HOST_MISSING",
			Message: "DATABASE_URL host is required",
		}
	}

	databaseName := strings.TrimPrefix(parsed.Path, "/")
	if databaseName == "" {
		return "", &ConfigError{
			Code:    "CONFIG_DATABASE_NAME_MISSING",
			Message: "DATABASE_URL database name is required",
		}
	}

	return parsed.Host + "/" + databaseName, nil
}

func parseLogLevel(raw string) (slog.Level, *ConfigError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(trimmed)); err != nil {
		return slog.LevelInfo, &ConfigError{
			Code:     "CONFIG_LOG_LEVEL_INVALID",
			Message:  "LOG_LEVEL must be one of debug, info, warn, error",
			Metadata: map[string]string{"value": trimmed},
		}
	}
	return level, nil
}

func parsePositiveDuration(key string, fallback time.Duration) (time.Duration, *ConfigError) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return 0, &ConfigError{
			Code:     "CONFIG_DURATION_INVALID",
			Message:  key + " must be a positive duration",
			Metadata: map[string]string{"key": key, "value": raw},
		}
	}
	return parsed, nil
}

func parsePositiveInt(key string, fallback int) (int, *ConfigError) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, &ConfigError{
			Code:     "CONFIG_INTEGER_INVALID",
			Message:  key + " must be a positive integer",
			Metadata: map[string]string{"key": key, "value": raw},
		}
	}
	return parsed, nil
}

func stringOr(key string, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func splitCSV(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultWorkerID() string {
	host, err := os.Hostname()
	if err != nil || strings.TrimSpace(host) == "" {
		return "worker-" + strconv.Itoa(os.Getpid())
	}
	return host + "-" + strconv.Itoa(os.Getpid())
}
