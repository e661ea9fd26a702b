package tokenguard

import (
	"errors"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/tokenguard/internal/audit"
	"github.com/MrEthical07/tokenguard/internal/rate"
	"github.com/MrEthical07/tokenguard/jwt"
	"github.com/MrEthical07/tokenguard/revocation"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. It is configured during initialization and
// can be built exactly once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	revocations  revocation.Store
	userProvider UserProvider
	auditSink    AuditSink
	logger       *slog.Logger
	now          func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. cfg is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client used for the default revocation store
// and the login throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRevocationStore supplies an explicit revocation backend, for example
// a [revocation.SQLStore]. It takes precedence over the Redis store.
func (b *Builder) WithRevocationStore(store revocation.Store) *Builder {
	b.revocations = store
	return b
}

// WithUserProvider enables [Engine.Login].
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the operational logger. Defaults to slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source used for token issuance, verification
// and revocation timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	// -------- REVOCATION STORE --------
	store := b.revocations
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("revocation store or redis client required")
		}
		store = revocation.NewRedisStore(b.redis, revocation.RedisConfig{
			Prefix:    cfg.Revocation.RedisPrefix,
			Retention: cfg.Revocation.Retention,
			Now:       now,
		})
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := &Engine{
		config:       cfg,
		revocations:  store,
		userProvider: b.userProvider,
		logger:       logger,
	}

	// -------- LOGIN THROTTLE --------
	if b.redis != nil && cfg.Security.MaxLoginAttempts > 0 {
		engine.rateLimiter = rate.New(b.redis, rate.Config{
			Prefix:           cfg.Security.LoginThrottlePrefix,
			EnableIPThrottle: cfg.Security.EnableIPThrottle,
			MaxAttempts:      cfg.Security.MaxLoginAttempts,
			Cooldown:         cfg.Security.LoginCooldown,
		})
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	hasher, err := cfg.newHasher()
	if err != nil {
		engine.audit.Close()
		return nil, err
	}
	engine.hasher = hasher

	jm, err := jwt.NewManager(jwt.Config{
		Secret:    cfg.JWT.Secret,
		AccessTTL: cfg.JWT.AccessTTL,
		Issuer:    cfg.JWT.Issuer,
		Leeway:    cfg.JWT.Leeway,
		Now:       now,
	})
	if err != nil {
		engine.audit.Close()
		return nil, mapJWTConfigError(err)
	}
	engine.jwtManager = jm

	engine.initFlowDeps()

	b.built = true

	return engine, nil
}

func mapJWTConfigError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrMissingSecret):
		return ErrMissingSigningSecret
	case errors.Is(err, jwt.ErrWeakSecret):
		return ErrWeakSigningSecret
	default:
		return err
	}
}
