// Package config parses the process environment into typed configuration so
// main stays lean.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything the server needs from the environment.
type Config struct {
	Addr          string `env:"TURFWARS_ADDR" envDefault:":8080"`
	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-change-in-production"`

	// PostgresDSN selects the SQL stores when set; empty runs on the
	// in-memory stores (dev mode).
	PostgresDSN string `env:"POSTGRES_DSN"`

	// SeedDemo loads demo users and territories at startup.
	SeedDemo bool `env:"SEED_DEMO"`

	Redis  Redis
	Kafka  Kafka
	Battle Battle
	Retry  Retry
}

// Redis configures the optional redis client (territory lock).
type Redis struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Kafka configures the battle-event publisher. Empty brokers disable it.
type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_BATTLE_TOPIC" envDefault:"turfwars.battles"`
}

// Battle holds the challenge-resolution tuning constants. The attacker's
// random window is deliberately wider than the defender's so held territory
// keeps changing hands.
type Battle struct {
	AttackerRollMax int `env:"BATTLE_ATTACKER_ROLL_MAX" envDefault:"10"`
	DefenderRollMax int `env:"BATTLE_DEFENDER_ROLL_MAX" envDefault:"5"`
}

// Retry bounds optimistic-concurrency retries before surfacing Conflict.
type Retry struct {
	Attempts int           `env:"CONFLICT_RETRY_ATTEMPTS" envDefault:"3"`
	Backoff  time.Duration `env:"CONFLICT_RETRY_BACKOFF" envDefault:"25ms"`
}

// FromEnv builds a Config from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
