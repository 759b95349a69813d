package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ergrato-dev/acc-lms-sub001/pkg/httpx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/jwtx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/redisx"
	"github.com/ergrato-dev/acc-lms-sub001/pkg/revoke"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	BackendStore  = "store"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ErrConfig is wrapped by every ConfigError.
var ErrConfig = errors.New("invalid configuration")

// ConfigError names the setting that failed validation.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

type Config struct {
	Token jwtx.Config // AUTH_JWT_SECRET, AUTH_ISSUER, AUTH_AUDIENCE, AUTH_ACCESS_TTL, AUTH_REFRESH_TTL

	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseFile   string // sqlite file (default: ./auth.db)
	DatabaseURL    string // postgres DSN, required when DatabaseDriver is postgres

	RevocationBackend string        // store, redis or memory (default: store)
	RevocationPolicy  revoke.Policy // AUTH_REVOCATION_POLICY (default: fail-closed)
	RevocationTimeout time.Duration // per-lookup budget (default: 250ms)
	Redis             redisx.Config // REDIS_ADDR, REDIS_PASSWORD, REDIS_DB

	Pepper              string // server-side password pepper
	BootstrapAdminEmail string // creates an admin on startup when none exists

	RateLimits httpx.RateLimits

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)

	// policyRaw keeps an unparseable AUTH_REVOCATION_POLICY for Validate.
	policyRaw string
	// invalid collects duration settings that were set but did not parse.
	invalid []ConfigError
}

func LoadConfig() Config {
	redisCfg := redisx.DefaultConfig()
	redisCfg.Addr = getEnvOrDefault("REDIS_ADDR", redisCfg.Addr)
	redisCfg.Password = os.Getenv("REDIS_PASSWORD")
	redisCfg.DB = getEnvIntOrDefault("REDIS_DB", 0)

	var invalid []ConfigError
	duration := func(key string, defaultValue time.Duration) time.Duration {
		d, err := getEnvDurationOrDefault(key, defaultValue)
		if err != nil {
			invalid = append(invalid, ConfigError{Key: key, Reason: err.Error()})
		}
		return d
	}

	cfg := Config{
		Token: jwtx.Config{
			Secret:     os.Getenv("AUTH_JWT_SECRET"),
			Issuer:     getEnvOrDefault("AUTH_ISSUER", "acc-lms-auth"),
			Audience:   getEnvOrDefault("AUTH_AUDIENCE", "acc-lms"),
			AccessTTL:  duration("AUTH_ACCESS_TTL", 15*time.Minute),
			RefreshTTL: duration("AUTH_REFRESH_TTL", 7*24*time.Hour),
		},
		DatabaseDriver:       getEnvOrDefault("AUTH_DATABASE_DRIVER", DriverSQLite),
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		DatabaseURL:          os.Getenv("AUTH_DATABASE_URL"),
		RevocationBackend:    getEnvOrDefault("AUTH_REVOCATION_BACKEND", BackendStore),
		RevocationTimeout:    duration("AUTH_REVOCATION_TIMEOUT", revoke.DefaultTimeout),
		Redis:                redisCfg,
		Pepper:               os.Getenv("PEPPER"),
		BootstrapAdminEmail:  os.Getenv("AUTH_BOOTSTRAP_ADMIN_EMAIL"),
		RateLimits:           httpx.RateLimitsFromEnv(),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  duration("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: duration("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	policy, err := revoke.ParsePolicy(os.Getenv("AUTH_REVOCATION_POLICY"))
	if err != nil {
		cfg.policyRaw = os.Getenv("AUTH_REVOCATION_POLICY")
	}
	cfg.RevocationPolicy = policy
	cfg.invalid = invalid

	return cfg
}

// Validate checks everything that would otherwise fail later at startup.
// Token settings are checked by jwtx.
func (c Config) Validate() error {
	if len(c.invalid) > 0 {
		e := c.invalid[0]
		return &e
	}
	if err := c.Token.Validate(); err != nil {
		return err
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			return &ConfigError{Key: "AUTH_DATABASE_FILE", Reason: "must not be empty"}
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return &ConfigError{Key: "AUTH_DATABASE_URL", Reason: "required for the postgres driver"}
		}
	default:
		return &ConfigError{Key: "AUTH_DATABASE_DRIVER", Reason: fmt.Sprintf("unknown driver %q", c.DatabaseDriver)}
	}

	switch c.RevocationBackend {
	case BackendStore, BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return &ConfigError{Key: "REDIS_ADDR", Reason: "required for the redis backend"}
		}
	default:
		return &ConfigError{Key: "AUTH_REVOCATION_BACKEND", Reason: fmt.Sprintf("unknown backend %q", c.RevocationBackend)}
	}

	if c.policyRaw != "" {
		return &ConfigError{Key: "AUTH_REVOCATION_POLICY", Reason: fmt.Sprintf("unknown policy %q", c.policyRaw)}
	}
	if c.RevocationTimeout <= 0 {
		return &ConfigError{Key: "AUTH_REVOCATION_TIMEOUT", Reason: "must be positive"}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return &ConfigError{Key: "PORT", Reason: "out of range"}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration, nil
	}

	// Bare integers are minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute, nil
	}

	return defaultValue, fmt.Errorf("invalid duration %q", value)
}
