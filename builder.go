package keygate

import (
	"errors"

	"github.com/MrEthical07/keygate/biometric"
	"github.com/MrEthical07/keygate/keystore"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by keygate APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	redis    *redis.Client
	store    keystore.Store
	platform biometric.PlatformAuthenticator

	auditSink AuditSink
	clock     Clock

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
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs the keystore with Redis, namespaced by the configured
// prefix. Mutually exclusive with WithKeyStore.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithKeyStore injects an explicit keystore implementation.
func (b *Builder) WithKeyStore(store keystore.Store) *Builder {
	b.store = store
	return b
}

// WithPlatformAuthenticator injects the platform biometric collaborator.
func (b *Builder) WithPlatformAuthenticator(platform biometric.PlatformAuthenticator) *Builder {
	b.platform = platform
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock injects the time source used for every expiry comparison.
// Defaults to the system clock.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build wires the components and starts the session monitor's background
// revalidation task. The builder is single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store != nil && b.redis != nil {
		return nil, errors.New("WithRedis and WithKeyStore are mutually exclusive")
	}
	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("key store required: provide WithRedis or WithKeyStore")
		}
		store = keystore.NewRedisStore(b.redis, cfg.Keys.RedisPrefix)
	}

	if b.platform == nil {
		return nil, errors.New("platform authenticator required")
	}

	clock := b.clock
	if clock == nil {
		clock = systemClock{}
	}

	dispatcher := newAuditDispatcher(cfg.Audit, b.auditSink)
	metrics := NewMetrics(cfg.Metrics)

	keys := newKeyManager(store, clock, dispatcher, metrics)
	gate := biometric.NewGate(b.platform, clock.Now)

	monitor := newSessionMonitor(gate, AuthenticationPolicy{
		RequiredStrength:   cfg.Session.RequiredStrength,
		QuickSessionTTL:    cfg.Session.QuickSessionTTL,
		StrongSessionTTL:   cfg.Session.StrongSessionTTL,
		RevalidateInterval: cfg.Session.RevalidateInterval,
	}, clock, dispatcher, metrics)

	auditor := newSecurityAuditor(keys, gate, cfg.Auditor, clock, dispatcher, metrics)

	signer, err := newAttestationSigner(cfg.Attestation, clock)
	if err != nil {
		monitor.Close()
		auditor.Close()
		dispatcher.Close()
		return nil, err
	}

	b.built = true

	return &Engine{
		config:      cfg,
		keys:        keys,
		gate:        gate,
		monitor:     monitor,
		auditor:     auditor,
		attestation: signer,
		audit:       dispatcher,
		metrics:     metrics,
		clock:       clock,
	}, nil
}
