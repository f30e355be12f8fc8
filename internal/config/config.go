package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultEnv             = "development"
	defaultHTTPHost        = "0.0.0.0"
	defaultHTTPPort        = 8080
	defaultRedisDB         = 0
	defaultCacheTTLSeconds = 30
	defaultLogLevel        = "info"

	defaultSnapshotsExchange = "papertrader.snapshots"
	defaultDecisionsExchange = "papertrader.decisions"
	defaultCadenceExchange   = "papertrader.cadence"
	defaultFillsExchange     = "papertrader.fills"
	defaultPrefetch          = 50
	defaultBatchSize         = 100
	defaultBatchTimeout      = time.Second

	defaultBinanceURL        = "https://api.binance.com"
	defaultInvestEndpoint    = "invest-public-api.tinkoff.ru:443"
	defaultInvestAppName     = "papertrader"
	defaultStoreBatchSize    = 500
	defaultStoreBatchTimeout = 2 * time.Second
)

// Config keeps the runtime configuration for the service.
type Config struct {
	Env        string
	HTTP       HTTPConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Cache      CacheConfig
	RabbitMQ   RabbitMQConfig
	MarketData MarketDataConfig
	Log        LogConfig
}

// HTTPConfig holds HTTP server related settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr renders the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// PostgresConfig stores database connection parameters.
type PostgresConfig struct {
	DSN string
}

// RedisConfig stores Redis connection parameters. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig stores cache behavior.
type CacheConfig struct {
	TTLSeconds int
}

// RabbitMQConfig configures the event publisher and the fill consumer.
type RabbitMQConfig struct {
	URL               string
	SnapshotsExchange string
	DecisionsExchange string
	CadenceExchange   string
	FillsExchange     string
	Prefetch          int
	BatchSize         int
	BatchTimeout      time.Duration
}

// Enabled reports whether a broker URL was configured.
func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

// MarketDataConfig configures the candle providers and the kline write-behind.
type MarketDataConfig struct {
	BinanceURL          string
	InvestToken         string
	InvestEndpoint      string
	InvestAppName       string
	InvestSkipTLSVerify bool
	StoreBatchSize      int
	StoreBatchTimeout   time.Duration
}

type LogConfig struct {
	Level string
}

// Load builds Config from environment variables.
func Load() (*Config, error) {
	host := getString("HTTP_HOST", defaultHTTPHost)
	port, err := getInt("HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return nil, fmt.Errorf("parse HTTP_PORT: %w", err)
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}

	redisDB, err := getInt("REDIS_DB", defaultRedisDB)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_DB: %w", err)
	}

	cacheTTL, err := getInt("CACHE_TTL_SECONDS", defaultCacheTTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse CACHE_TTL_SECONDS: %w", err)
	}

	prefetch, err := getInt("RABBITMQ_PREFETCH", defaultPrefetch)
	if err != nil {
		return nil, fmt.Errorf("parse RABBITMQ_PREFETCH: %w", err)
	}
	batchSize, err := getInt("RABBITMQ_BATCH_SIZE", defaultBatchSize)
	if err != nil {
		return nil, fmt.Errorf("parse RABBITMQ_BATCH_SIZE: %w", err)
	}
	batchTimeout, err := getDuration("RABBITMQ_BATCH_TIMEOUT", defaultBatchTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse RABBITMQ_BATCH_TIMEOUT: %w", err)
	}

	skipTLS, err := getBool("INVEST_SKIP_TLS_VERIFY", false)
	if err != nil {
		return nil, fmt.Errorf("parse INVEST_SKIP_TLS_VERIFY: %w", err)
	}
	storeBatchSize, err := getInt("KLINE_BATCH_SIZE", defaultStoreBatchSize)
	if err != nil {
		return nil, fmt.Errorf("parse KLINE_BATCH_SIZE: %w", err)
	}
	storeBatchTimeout, err := getDuration("KLINE_BATCH_TIMEOUT", defaultStoreBatchTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse KLINE_BATCH_TIMEOUT: %w", err)
	}

	return &Config{
		Env:  getString("APP_ENV", defaultEnv),
		HTTP: HTTPConfig{Host: host, Port: port},
		Postgres: PostgresConfig{
			DSN: dsn,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			TTLSeconds: cacheTTL,
		},
		RabbitMQ: RabbitMQConfig{
			URL:               os.Getenv("RABBITMQ_URL"),
			SnapshotsExchange: getString("RABBITMQ_SNAPSHOTS_EXCHANGE", defaultSnapshotsExchange),
			DecisionsExchange: getString("RABBITMQ_DECISIONS_EXCHANGE", defaultDecisionsExchange),
			CadenceExchange:   getString("RABBITMQ_CADENCE_EXCHANGE", defaultCadenceExchange),
			FillsExchange:     getString("RABBITMQ_FILLS_EXCHANGE", defaultFillsExchange),
			Prefetch:          prefetch,
			BatchSize:         batchSize,
			BatchTimeout:      batchTimeout,
		},
		MarketData: MarketDataConfig{
			BinanceURL:          getString("BINANCE_URL", defaultBinanceURL),
			InvestToken:         os.Getenv("INVEST_TOKEN"),
			InvestEndpoint:      getString("INVEST_ENDPOINT", defaultInvestEndpoint),
			InvestAppName:       getString("INVEST_APP_NAME", defaultInvestAppName),
			InvestSkipTLSVerify: skipTLS,
			StoreBatchSize:      storeBatchSize,
			StoreBatchTimeout:   storeBatchTimeout,
		},
		Log: LogConfig{
			Level: getString("LOG_LEVEL", defaultLogLevel),
		},
	}, nil
}

func getString(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to int: %w", key, value, err)
	}
	return parsed, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to duration: %w", key, value, err)
	}
	return parsed, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("convert %s value %q to bool: %w", key, value, err)
	}
	return parsed, nil
}
