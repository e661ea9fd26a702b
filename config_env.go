package tokenguard

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables read by LoadConfigFromEnv.
const (
	EnvJWTSecret             = "JWT_SECRET"
	EnvJWTIssuer             = "JWT_ISSUER"
	EnvJWTAccessTTL          = "JWT_ACCESS_TTL"
	EnvRevocationRedisPrefix = "REVOCATION_REDIS_PREFIX"
	EnvRevocationRetention   = "REVOCATION_RETENTION"
	EnvPasswordAlgorithm     = "PASSWORD_ALGORITHM"
	EnvLoginMaxAttempts      = "LOGIN_MAX_ATTEMPTS"
	EnvLoginCooldown         = "LOGIN_COOLDOWN"
	EnvAuditEnabled          = "AUDIT_ENABLED"
	EnvMetricsEnabled        = "METRICS_ENABLED"
)

// LoadConfigFromEnv starts from [DefaultConfig] and applies environment
// overrides read through lookup (os.Getenv when nil). It is meant to run
// once at startup. Unparseable values are all reported together; a missing
// secret wraps [ErrMissingSigningSecret].
func LoadConfigFromEnv(lookup func(string) string) (Config, error) {
	if lookup == nil {
		lookup = os.Getenv
	}
	env := envReader{lookup: lookup}

	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte(env.getEnv(EnvJWTSecret, ""))
	cfg.JWT.Issuer = env.getEnv(EnvJWTIssuer, cfg.JWT.Issuer)
	cfg.JWT.AccessTTL = env.getDurationEnv(EnvJWTAccessTTL, cfg.JWT.AccessTTL)
	cfg.Revocation.RedisPrefix = env.getEnv(EnvRevocationRedisPrefix, cfg.Revocation.RedisPrefix)
	cfg.Revocation.Retention = env.getDurationEnv(EnvRevocationRetention, cfg.Revocation.Retention)
	cfg.Password.Algorithm = env.getEnv(EnvPasswordAlgorithm, cfg.Password.Algorithm)
	cfg.Security.MaxLoginAttempts = env.getIntEnv(EnvLoginMaxAttempts, cfg.Security.MaxLoginAttempts)
	cfg.Security.LoginCooldown = env.getDurationEnv(EnvLoginCooldown, cfg.Security.LoginCooldown)
	cfg.Audit.Enabled = env.getBoolEnv(EnvAuditEnabled, cfg.Audit.Enabled)
	cfg.Metrics.Enabled = env.getBoolEnv(EnvMetricsEnabled, cfg.Metrics.Enabled)
	cfg.Metrics.EnableLatencyHistograms = cfg.Metrics.Enabled

	if len(env.errs) > 0 {
		return Config{}, errors.Join(env.errs...)
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, ErrMissingSigningSecret) || errors.Is(err, ErrWeakSigningSecret) {
			return Config{}, fmt.Errorf("%s: %w", EnvJWTSecret, err)
		}
		return Config{}, err
	}
	return cfg, nil
}

type envReader struct {
	lookup func(string) string
	errs   []error
}

func (r *envReader) getEnv(key, defaultValue string) string {
	if value := r.lookup(key); value != "" {
		return value
	}
	return defaultValue
}

func (r *envReader) getIntEnv(key string, defaultValue int) int {
	value := r.lookup(key)
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be an integer, got %q", key, value))
		return defaultValue
	}
	return i
}

func (r *envReader) getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := r.lookup(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be a duration, got %q", key, value))
		return defaultValue
	}
	return d
}

func (r *envReader) getBoolEnv(key string, defaultValue bool) bool {
	value := r.lookup(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be a boolean, got %q", key, value))
		return defaultValue
	}
	return b
}
