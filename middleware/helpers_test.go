package middleware

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/tokenguard"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestEngine(t *testing.T) (*tokenguard.Engine, *miniredis.Miniredis) {
	return newTestEngineWith(t, nil)
}

// newTestEngineWith builds an engine over miniredis. The client does not
// retry, so a closed miniredis fails fast.
func newTestEngineWith(t *testing.T, mutate func(*tokenguard.Config, *tokenguard.Builder)) (*tokenguard.Engine, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := tokenguard.DefaultConfig()
	cfg.JWT.Secret = []byte(strings.Repeat("m", 32))

	b := tokenguard.New().
		WithRedis(rdb).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if mutate != nil {
		mutate(&cfg, b)
	}
	engine, err := b.WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, mr
}

func issue(t *testing.T, engine *tokenguard.Engine) (string, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	token, err := engine.IssueToken(id.String())
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	return token, id
}

type erroringAuthenticator struct {
	err   error
	calls int
}

func (a *erroringAuthenticator) AuthenticateHeader(context.Context, string) (*tokenguard.AuthResult, error) {
	a.calls++
	return nil, a.err
}
