package tokenguard

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var testSecret = []byte(strings.Repeat("s", 32))

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]UserRecord
	calls int
}

func (m *memoryUsers) GetUserByIdentifier(_ context.Context, identifier string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	u, ok := m.users[identifier]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return u, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = testSecret
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEngine struct {
	*Engine
	mr    *miniredis.Miniredis
	clock *fakeClock
	users *memoryUsers
}

func newTestEngine(t testing.TB, mutate func(*Config, *Builder)) *testEngine {
	t.Helper()

	mr, rdb := newTestRedis(t)
	clock := newFakeClock(time.Now().Truncate(time.Second))
	users := &memoryUsers{users: map[string]UserRecord{}}

	cfg := testConfig()
	b := New().
		WithRedis(rdb).
		WithUserProvider(users).
		WithLogger(discardLogger()).
		WithClock(clock.Now)
	if mutate != nil {
		mutate(&cfg, b)
	}
	b.WithConfig(cfg)

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEngine{Engine: engine, mr: mr, clock: clock, users: users}
}

func (te *testEngine) addUser(t testing.TB, identifier, plaintext string) uuid.UUID {
	t.Helper()
	digest, err := te.HashPassword(plaintext)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	id := uuid.New()
	te.users.mu.Lock()
	te.users.users[identifier] = UserRecord{UserID: id.String(), Identifier: identifier, PasswordHash: digest}
	te.users.mu.Unlock()
	return id
}
