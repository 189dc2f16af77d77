package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Tracking TrackingConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=order_tracking"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type TrackingConfig struct {
	// AggregatorURL is the base URL the tracking client fetches from.
	AggregatorURL string `env:"TRACKING_AGGREGATOR_URL, default=http://localhost:8080"`
	// RequestTimeout bounds a single tracking fetch.
	RequestTimeout time.Duration `env:"TRACKING_REQUEST_TIMEOUT, default=10s"`
	// CacheTTL is how long a tracking snapshot stays usable as a fallback.
	CacheTTL time.Duration `env:"TRACKING_CACHE_TTL, default=1h"`
	// PollInterval is the refresh period while a shipment is non-terminal.
	PollInterval time.Duration `env:"TRACKING_POLL_INTERVAL, default=5m"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
