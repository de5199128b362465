package goGrant

import (
	"errors"

	"github.com/MrEthical07/goGrant/password"
	"github.com/MrEthical07/goGrant/store"
	"github.com/MrEthical07/goGrant/token"
	"github.com/MrEthical07/goGrant/tokencache"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by goGrant APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  *store.Store

	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore describes the withstore operation and its observable behavior.
//
// WithStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithStore(s *store.Store) *Builder {
	b.store = s
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithPrimaryDirectory describes the withprimarydirectory operation and its observable behavior.
//
// WithPrimaryDirectory does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithPrimaryDirectory(directoryID string) *Builder {
	b.config.Directory.PrimaryDirectoryID = directoryID
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.store == nil {
		return nil, errors.New("store required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(token.Config{
		Leeway: cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewBcrypt(password.Config{
		Cost: cfg.Password.Cost,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config: cfg,
		store:  b.store,
		codec:  codec,
		cache:  tokencache.NewCache(b.redis, cfg.Cache.RedisPrefix, codec),
		hasher: hasher,
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
