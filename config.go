package goGrant

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config defines a public type used by goGrant APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Environment EnvironmentConfig `envPrefix:"GOGRANT_"`
	Directory   DirectoryConfig   `envPrefix:"GOGRANT_"`
	Token       TokenConfig       `envPrefix:"GOGRANT_TOKEN_"`
	Cache       CacheConfig       `envPrefix:"GOGRANT_CACHE_"`
	Password    PasswordConfig    `envPrefix:"GOGRANT_PASSWORD_"`
	Audit       AuditConfig       `envPrefix:"GOGRANT_AUDIT_"`
	Metrics     MetricsConfig     `envPrefix:"GOGRANT_METRICS_"`
}

/*
====================================
ENVIRONMENT CONFIG
====================================
*/

// EnvironmentConfig defines a public type used by goGrant APIs.
//
// EnvironmentConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EnvironmentConfig struct {
	// Env is the environment tag stamped into every minted token's claims.
	Env string `env:"ENV"`
	// BaseHref prefixes every href emitted in token claims and account
	// summaries, e.g. "https://id.example.com/v1".
	BaseHref string `env:"BASE_HREF"`
}

// DirectoryConfig defines a public type used by goGrant APIs.
//
// DirectoryConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type DirectoryConfig struct {
	// PrimaryDirectoryID is the process-wide fallback tenant. A principal not
	// found in the requested directory is looked up here before the grant
	// fails. Empty disables the fallback.
	PrimaryDirectoryID string `env:"PRIMARY_DIRECTORY_ID"`
}

// TokenConfig defines a public type used by goGrant APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	// Leeway tolerated on exp validation to absorb clock skew.
	Leeway time.Duration `env:"LEEWAY"`
}

// CacheConfig defines a public type used by goGrant APIs.
//
// CacheConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CacheConfig struct {
	RedisPrefix string `env:"REDIS_PREFIX"`
}

// PasswordConfig defines a public type used by goGrant APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Cost int `env:"COST"`
}

// AuditConfig defines a public type used by goGrant APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

// MetricsConfig defines a public type used by goGrant APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool `env:"ENABLED"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Environment: EnvironmentConfig{
			Env: "production",
		},
		Token: TokenConfig{
			Leeway: 0,
		},
		Cache: CacheConfig{
			RedisPrefix: "goGrant",
		},
		Password: PasswordConfig{
			Cost: 13,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// ConfigFromEnv describes the configfromenv operation and its observable behavior.
//
// ConfigFromEnv starts from the default configuration and overlays any
// GOGRANT_* environment variables that are set.
func ConfigFromEnv() (Config, error) {
	cfg := defaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation fails.
func (c *Config) Validate() error {
	if c.Environment.Env == "" {
		return errors.New("Environment Env must be set")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2 minutes")
	}
	if c.Cache.RedisPrefix == "" {
		return errors.New("Cache RedisPrefix must be set")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}
	return nil
}
