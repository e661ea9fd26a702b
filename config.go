package tokenguard

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/tokenguard/jwt"
	"github.com/MrEthical07/tokenguard/password"
	"github.com/MrEthical07/tokenguard/revocation"
	"golang.org/x/crypto/bcrypt"
)

// Config is the full engine configuration. Build it with [DefaultConfig] or
// [LoadConfigFromEnv], adjust fields, and pass it to [Builder.WithConfig].
// The Engine copies it once at Build time.
type Config struct {
	JWT        JWTConfig
	Revocation RevocationConfig
	Password   PasswordConfig
	Security   SecurityConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds the signing secret and token lifetime.
type JWTConfig struct {
	// Secret is the HS256 key. Required, at least 32 bytes.
	Secret    []byte
	Issuer    string
	AccessTTL time.Duration
	// Leeway tolerates clock drift when checking exp.
	Leeway time.Duration
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig controls the Redis-backed revocation store built by the
// Builder when no explicit store is supplied.
type RevocationConfig struct {
	RedisPrefix string
	// Retention is the TTL of a revocation record. Zero keeps records forever.
	// A non-zero value should be at least JWT.AccessTTL.
	Retention time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

const (
	PasswordAlgorithmArgon2id = "argon2id"
	PasswordAlgorithmBcrypt   = "bcrypt"
)

type PasswordConfig struct {
	Algorithm   string // "argon2id" (default) or "bcrypt"
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds the login throttle. The throttle is active when a
// Redis client is supplied and MaxLoginAttempts > 0.
type SecurityConfig struct {
	MaxLoginAttempts    int
	LoginCooldown       time.Duration
	EnableIPThrottle    bool
	LoginThrottlePrefix string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a configuration with every field set except the
// signing secret.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL: jwt.DefaultAccessTTL,
		},
		Revocation: RevocationConfig{
			RedisPrefix: revocation.DefaultRedisPrefix,
		},
		Password: PasswordConfig{
			Algorithm:   PasswordAlgorithmArgon2id,
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			BcryptCost:  bcrypt.DefaultCost,
		},
		Security: SecurityConfig{
			MaxLoginAttempts:    5,
			LoginCooldown:       15 * time.Minute,
			EnableIPThrottle:    false,
			LoginThrottlePrefix: "tgl",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field. A missing or short secret is
// reported as [ErrMissingSigningSecret] or [ErrWeakSigningSecret].
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) == 0 {
		return ErrMissingSigningSecret
	}
	if len(c.JWT.Secret) < jwt.MinSecretLength {
		return ErrWeakSigningSecret
	}
	if c.JWT.AccessTTL < time.Second {
		return errors.New("JWT AccessTTL must be >= 1s")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be within [0, 2m]")
	}

	// Revocation
	if c.Revocation.RedisPrefix == "" {
		return errors.New("Revocation RedisPrefix must not be empty")
	}
	if c.Revocation.Retention < 0 {
		return errors.New("Revocation Retention must be >= 0")
	}
	if c.Revocation.Retention > 0 && c.Revocation.Retention < c.JWT.AccessTTL {
		return errors.New("Revocation Retention must be 0 or >= JWT AccessTTL")
	}

	// Password
	switch c.Password.Algorithm {
	case PasswordAlgorithmArgon2id:
		if _, err := password.NewArgon2(c.argon2Config()); err != nil {
			return fmt.Errorf("Password: %w", err)
		}
	case PasswordAlgorithmBcrypt:
		if _, err := password.NewBcrypt(c.Password.BcryptCost); err != nil {
			return fmt.Errorf("Password: %w", err)
		}
	default:
		return errors.New("Password Algorithm must be 'argon2id' or 'bcrypt'")
	}

	// Security
	if c.Security.MaxLoginAttempts < 0 {
		return errors.New("Security MaxLoginAttempts must be >= 0")
	}
	if c.Security.MaxLoginAttempts > 0 && c.Security.LoginCooldown <= 0 {
		return errors.New("Security LoginCooldown must be > 0 when MaxLoginAttempts is set")
	}
	if c.Security.LoginThrottlePrefix == "" {
		return errors.New("Security LoginThrottlePrefix must not be empty")
	}
	if c.Security.LoginThrottlePrefix == c.Revocation.RedisPrefix {
		return errors.New("Security LoginThrottlePrefix must differ from Revocation RedisPrefix")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

func (c *Config) argon2Config() password.Config {
	return password.Config{
		Memory:      c.Password.Memory,
		Time:        c.Password.Time,
		Parallelism: c.Password.Parallelism,
		SaltLength:  c.Password.SaltLength,
		KeyLength:   c.Password.KeyLength,
	}
}

func (c *Config) newHasher() (password.Hasher, error) {
	if c.Password.Algorithm == PasswordAlgorithmBcrypt {
		return password.NewBcrypt(c.Password.BcryptCost)
	}
	return password.NewArgon2(c.argon2Config())
}
