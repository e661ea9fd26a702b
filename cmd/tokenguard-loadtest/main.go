// Command tokenguard-loadtest measures revocation store latency under
// concurrent revoke and is-revoked traffic.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/tokenguard"
	"github.com/MrEthical07/tokenguard/revocation"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		tokens      = flag.Int("tokens", 50000, "number of tokens to issue")
		concurrency = flag.Int("concurrency", 256, "concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per read phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; REDIS_ADDR or miniredis when empty")
		prefix      = flag.String("prefix", "rvk-load", "revocation key prefix")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *tokens <= 0 || *concurrency <= 0 || *ops <= 0 {
		logger.Error("tokens, concurrency and ops must be > 0")
		os.Exit(2)
	}

	client, cleanup, err := connect(*redisAddr, logger)
	if err != nil {
		logger.Error("connect", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx := context.Background()
	store := revocation.NewRedisStore(client, revocation.RedisConfig{Prefix: *prefix, Retention: time.Hour})

	cfg := tokenguard.DefaultConfig()
	cfg.JWT.Secret = []byte(uuid.NewString() + uuid.NewString())
	engine, err := tokenguard.New().
		WithConfig(cfg).
		WithRevocationStore(store).
		WithLogger(logger).
		Build()
	if err != nil {
		logger.Error("build engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	issued := make([]string, *tokens)
	seedStart := time.Now()
	for i := range issued {
		if issued[i], err = engine.IssueToken(uuid.NewString()); err != nil {
			logger.Error("issue", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("issued tokens", "count", len(issued), "took", time.Since(seedStart).Round(time.Millisecond))

	results := []struct {
		name string
		s    phaseStats
	}{
		{"revoke", runPhase(len(issued), *concurrency, func(i int, _ *rand.Rand) error {
			if i%2 == 1 {
				return nil
			}
			return store.Revoke(ctx, issued[i])
		})},
		{"is_revoked", runPhase(*ops, *concurrency, func(_ int, r *rand.Rand) error {
			_, err := store.IsRevoked(ctx, issued[r.Intn(len(issued))])
			return err
		})},
		{"authenticate", runPhase(*ops, *concurrency, func(_ int, r *rand.Rand) error {
			idx := r.Intn(len(issued))
			_, err := engine.Authenticate(ctx, issued[idx])
			if idx%2 == 0 && errors.Is(err, tokenguard.ErrTokenRevoked) {
				return nil
			}
			return err
		})},
	}

	fmt.Println("---- results ----")
	for _, r := range results {
		printStats(r.name, r.s)
	}
}

func connect(addr string, logger *slog.Logger) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		logger.Info("using redis", "addr", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	logger.Info("using miniredis", "addr", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
}

// runPhase runs op n times across workers and records per-call latency.
func runPhase(n, workers int, op func(i int, r *rand.Rand) error) phaseStats {
	var (
		wg       sync.WaitGroup
		cursor   int64
		failures int64
		mu       sync.Mutex
		samples  = make([]time.Duration, 0, n)
	)

	start := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			local := make([]time.Duration, 0, n/workers+1)
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= n {
					break
				}
				t0 := time.Now()
				if err := op(i, r); err != nil {
					atomic.AddInt64(&failures, 1)
				}
				local = append(local, time.Since(t0))
			}
			mu.Lock()
			samples = append(samples, local...)
			mu.Unlock()
		}(time.Now().UnixNano() + int64(w)*7919)
	}
	wg.Wait()

	total := time.Since(start)
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
	}
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[(len(sorted)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	var rate float64
	if s.total > 0 {
		rate = float64(s.ops) / s.total.Seconds()
	}
	fmt.Printf("%-12s ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name, s.ops, s.failures,
		s.total.Round(time.Millisecond), rate,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
