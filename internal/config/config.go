package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

/*
	`koanf` reads configuration sources and unmarshals them into Config.

	- Env vars are read using the prefix RESTCORE_
	- Keys are lowercased and the prefix removed
	- Nesting uses "." in the variable name itself, e.g.
	  RESTCORE_DATABASE.MAX_CONNECTIONS -> database.max_connections
	- Pool knobs left unset fall back to Defaults()
*/

const EnvPrefix = "RESTCORE_"

type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
}

// DatabaseConfig is the relational pool configuration.
//
// DSN carries credentials: it is excluded from MarshalZerologObject and must
// never be logged directly.
type DatabaseConfig struct {
	DSN                string `koanf:"dsn" validate:"required"`
	MaxConnections     int    `koanf:"max_connections" validate:"min=1"`
	SlowLevel          string `koanf:"slow_level"`
	LifetimeSec        int    `koanf:"lifetime_sec" validate:"gte=0"`
	IdleSec            int    `koanf:"idle_sec" validate:"gte=0"`
	AcquireTimeoutSec  int    `koanf:"acquire_timeout_sec" validate:"gte=0"`
	TimeoutLevel       string `koanf:"timeout_level"`
	SlowThresholdMills int    `koanf:"slow_threshold_mills" validate:"gte=0"`
}

func (c DatabaseConfig) Lifetime() time.Duration {
	return time.Duration(c.LifetimeSec) * time.Second
}

func (c DatabaseConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleSec) * time.Second
}

// AcquireTimeout bounds how long a checkout may wait for a free connection.
func (c DatabaseConfig) AcquireTimeout() time.Duration {
	return time.Duration(c.AcquireTimeoutSec) * time.Second
}

func (c DatabaseConfig) SlowThreshold() time.Duration {
	return time.Duration(c.SlowThresholdMills) * time.Millisecond
}

// MarshalZerologObject logs every knob except the DSN.
func (c DatabaseConfig) MarshalZerologObject(e *zerolog.Event) {
	e.Int("max_connections", c.MaxConnections).
		Str("slow_level", c.SlowLevel).
		Dur("lifetime", c.Lifetime()).
		Dur("idle_timeout", c.IdleTimeout()).
		Dur("acquire_timeout", c.AcquireTimeout()).
		Str("timeout_level", c.TimeoutLevel).
		Dur("slow_threshold", c.SlowThreshold())
}

// RedisConfig is the cache pool configuration. URL is treated like a DSN.
type RedisConfig struct {
	URL                 string `koanf:"url" validate:"required"`
	LifetimeSecs        int    `koanf:"lifetime_secs" validate:"gte=0"`
	MaxSize             int    `koanf:"max_size" validate:"min=1"`
	MinIdle             int    `koanf:"min_idle" validate:"gte=0"`
	AcquireTimeoutMills int    `koanf:"acquire_timeout_mills" validate:"gte=0"`
}

func (c RedisConfig) Lifetime() time.Duration {
	return time.Duration(c.LifetimeSecs) * time.Second
}

func (c RedisConfig) AcquireTimeout() time.Duration {
	return time.Duration(c.AcquireTimeoutMills) * time.Millisecond
}

// MarshalZerologObject logs every knob except the URL.
func (c RedisConfig) MarshalZerologObject(e *zerolog.Event) {
	e.Dur("lifetime", c.Lifetime()).
		Int("max_size", c.MaxSize).
		Int("min_idle", c.MinIdle).
		Dur("acquire_timeout", c.AcquireTimeout())
}

// Defaults returns the values used for keys no source sets.
func Defaults() map[string]any {
	obs := DefaultObservabilityConfig()

	return map[string]any{
		"server.port":                 "8080",
		"server.read_timeout":         30,
		"server.write_timeout":        30,
		"server.idle_timeout":         60,
		"server.cors_allowed_origins": []string{"*"},

		"database.max_connections":      10,
		"database.slow_level":           "info",
		"database.lifetime_sec":         1800,
		"database.idle_sec":             600,
		"database.acquire_timeout_sec":  30,
		"database.timeout_level":        "warn",
		"database.slow_threshold_mills": 2000,

		"redis.lifetime_secs":         1800,
		"redis.max_size":              10,
		"redis.min_idle":              1,
		"redis.acquire_timeout_mills": 30000,

		// Set per key so a single observability variable overrides one field
		// instead of replacing the whole block.
		"observability.logging.level":                         obs.Logging.Level,
		"observability.logging.format":                        obs.Logging.Format,
		"observability.new_relic.app_log_forwarding_enabled":  obs.NewRelic.AppLogForwardingEnabled,
		"observability.new_relic.distributed_tracing_enabled": obs.NewRelic.DistributedTracingEnabled,
		"observability.new_relic.debug_logging":               obs.NewRelic.DebugLogging,
		"observability.health_checks.enabled":                 obs.HealthChecks.Enabled,
		"observability.health_checks.timeout":                 obs.HealthChecks.Timeout,
		"observability.health_checks.checks":                  obs.HealthChecks.Checks,
	}
}

// LoadConfig reads the process environment (and a .env file, if present)
// into a validated Config. It is called once at startup; the result is
// treated as immutable afterwards.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	for key, value := range Defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}

	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	mainConfig.Observability.ServiceName = "restcore"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	validate := validator.New()

	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
