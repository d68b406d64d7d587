// Package config loads process configuration from the environment. Every
// knob has a TOMBOLA_ prefixed variable; FromEnv is the only entry point so
// main stays lean.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration.
type Config struct {
	Server    Server
	Postgres  Postgres
	Redis     RedisConfig
	Kafka     Kafka
	Auth      Auth
	RateLimit RateLimit
	Raffle    Raffle
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"TOMBOLA_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"TOMBOLA_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Postgres configures the round archive and the event outbox. An empty DSN
// keeps both in memory.
type Postgres struct {
	DSN string `env:"TOMBOLA_POSTGRES_DSN"`
}

// RedisConfig configures the Redis client. An empty URL disables Redis and
// the rate limiter falls back to its in-process store.
type RedisConfig struct {
	URL          string        `env:"TOMBOLA_REDIS_URL"`
	PoolSize     int           `env:"TOMBOLA_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"TOMBOLA_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"TOMBOLA_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"TOMBOLA_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"TOMBOLA_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Kafka configures the event relay. No brokers means events stay on the
// process log only.
type Kafka struct {
	Brokers []string `env:"TOMBOLA_KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"TOMBOLA_KAFKA_TOPIC" envDefault:"tombola.events"`
}

// Auth configures operator authentication for the administrative endpoints.
type Auth struct {
	// JWTSigningKey signs operator bearer tokens. The default exists for
	// development and must be overridden in production.
	JWTSigningKey string `env:"TOMBOLA_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`

	// JWTIssuer and JWTAudience are stamped into issued tokens and checked
	// during validation.
	JWTIssuer   string `env:"TOMBOLA_JWT_ISSUER" envDefault:"tombola"`
	JWTAudience string `env:"TOMBOLA_JWT_AUDIENCE" envDefault:"tombola-operators"`

	// OperatorKeyHash is the bcrypt hash of the pre-shared operator key.
	// Empty disables key auth, leaving bearer tokens as the only way in.
	OperatorKeyHash string `env:"TOMBOLA_OPERATOR_KEY_HASH"`

	// OperatorIdentity is the identity operator-key requests act as.
	OperatorIdentity string `env:"TOMBOLA_OPERATOR_IDENTITY" envDefault:"operator"`

	// DeviceTracking enables User-Agent fingerprints in refund audit logs.
	DeviceTracking bool `env:"TOMBOLA_DEVICE_TRACKING" envDefault:"false"`
}

// RateLimit configures per-IP throttling on the entry endpoint.
type RateLimit struct {
	Enabled bool          `env:"TOMBOLA_RATE_LIMIT_ENABLED" envDefault:"true"`
	Limit   int           `env:"TOMBOLA_RATE_LIMIT" envDefault:"60"`
	Window  time.Duration `env:"TOMBOLA_RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// Raffle seeds the opening round configuration. Later changes go through
// the configuration endpoint, not the environment.
type Raffle struct {
	EntranceFee   uint64        `env:"TOMBOLA_ENTRANCE_FEE" envDefault:"100"`
	RoundDuration time.Duration `env:"TOMBOLA_ROUND_DURATION" envDefault:"24h"`
	WinnerPercent uint64        `env:"TOMBOLA_WINNER_PERCENT" envDefault:"90"`
	MinEntrants   int           `env:"TOMBOLA_MIN_ENTRANTS" envDefault:"1"`

	// FeeRecipient defaults to the operator identity when unset.
	FeeRecipient string `env:"TOMBOLA_FEE_RECIPIENT"`
}

// FromEnv builds the configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Raffle.FeeRecipient == "" {
		cfg.Raffle.FeeRecipient = cfg.Auth.OperatorIdentity
	}
	return cfg, nil
}
