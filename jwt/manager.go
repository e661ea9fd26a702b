package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the shortest HS256 secret a Manager accepts.
const MinSecretLength = 32

// DefaultAccessTTL is the validity window stamped on issued tokens.
const DefaultAccessTTL = time.Hour

var (
	// ErrInvalidToken is returned by Verify for every rejected token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmptySubject is returned by Issue when the subject is blank.
	ErrEmptySubject = errors.New("empty token subject")
	// ErrMissingSecret is returned by NewManager when no secret is configured.
	ErrMissingSecret = errors.New("signing secret is required")
	// ErrWeakSecret is returned by NewManager for secrets below MinSecretLength.
	ErrWeakSecret = errors.New("signing secret is too short")
)

// Config is the immutable input of NewManager.
type Config struct {
	Secret    []byte
	AccessTTL time.Duration
	Issuer    string
	Leeway    time.Duration
	// Now overrides the clock used for issuance and expiry checks.
	Now func() time.Time
}

// Claims is the signed payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
}

// Expiry returns the absolute expiry of the token, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Manager signs and verifies session tokens with a single HS256 secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// NewManager validates cfg and returns a Manager holding a private copy of the secret.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.AccessTTL < time.Second {
		return nil, errors.New("access TTL must be at least one second")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(cfg.Leeway))
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Manager{
		secret: secret,
		ttl:    cfg.AccessTTL,
		issuer: issuer,
		now:    cfg.Now,
		parser: jwt.NewParser(options...),
	}, nil
}

// TTL returns the validity window applied by Issue.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for subject that expires TTL after the current time.
func (m *Manager) Issue(subject string) (string, error) {
	token, _, err := m.IssueWithClaims(subject)
	return token, err
}

// IssueWithClaims is Issue that also returns the claims that were signed.
func (m *Manager) IssueWithClaims(subject string) (string, *Claims, error) {
	if strings.TrimSpace(subject) == "" {
		return "", nil, ErrEmptySubject
	}

	now := m.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify checks signature, algorithm and expiry of tokenStr.
//
// Any failure is reported as ErrInvalidToken without a wrapped cause.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	token, err := m.parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifySubject is Verify reduced to the subject claim.
func (m *Manager) VerifySubject(tokenStr string) (string, error) {
	claims, err := m.Verify(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
