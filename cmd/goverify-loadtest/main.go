package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goVerify "github.com/MrEthical07/goVerify"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		pairs       = flag.Int("pairs", 5000, "number of email+device pairs to exercise")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *pairs <= 0 || *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "pairs and concurrency must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := goVerify.DefaultConfig()
	// Load-test parameters favor throughput over hardening.
	cfg.Hash.Memory = 8 * 1024
	cfg.Hash.Time = 1
	cfg.SendLimit.MaxPerWindow = 1 << 20
	cfg.VerifyLimit.MaxAttempts = 1 << 20
	cfg.Mailer.Enabled = true
	cfg.Mailer.From = "load@example.com"
	cfg.Mailer.QueueSize = *pairs + 1

	capture := newCaptureMailer()

	engine, err := goVerify.New().
		WithConfig(cfg).
		WithRedis(client).
		WithIdentityProvider(newMemoryProvider()).
		WithMailer(capture).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	sendStats := runSendPhase(ctx, engine, *pairs, *concurrency)

	// The mail dispatcher delivers asynchronously; wait until every code has
	// been captured before verifying.
	deadline := time.Now().Add(30 * time.Second)
	for capture.Count() < *pairs {
		if time.Now().After(deadline) {
			fmt.Fprintf(os.Stderr, "captured only %d/%d codes\n", capture.Count(), *pairs)
			os.Exit(1)
		}
		time.Sleep(10 * time.Millisecond)
	}

	verifyStats := runVerifyPhase(ctx, engine, capture, *pairs, *concurrency)

	fmt.Println("---- results ----")
	printStats("send", sendStats)
	printStats("verify", verifyStats)
}

func runSendPhase(ctx context.Context, engine *goVerify.Engine, pairs, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, pairs)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= pairs {
					return
				}
				t0 := time.Now()
				_, err := engine.SendCode(ctx, goVerify.SendCodeRequest{
					Email:    emailFor(i),
					DeviceID: deviceFor(i),
					Platform: "loadtest",
				})
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func runVerifyPhase(ctx context.Context, engine *goVerify.Engine, capture *captureMailer, pairs, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, pairs)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= pairs {
					return
				}
				code := capture.Code(emailFor(i))
				t0 := time.Now()
				_, err := engine.VerifyCode(ctx, goVerify.VerifyCodeRequest{
					Email:    emailFor(i),
					DeviceID: deviceFor(i),
					Code:     code,
				})
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func emailFor(i int) string {
	return fmt.Sprintf("load-%d@example.com", i)
}

func deviceFor(i int) string {
	return fmt.Sprintf("dev-%d", i)
}

type captureMailer struct {
	mu    sync.RWMutex
	codes map[string]string
	count int64
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{codes: make(map[string]string)}
}

func (c *captureMailer) Send(_ context.Context, msg goVerify.MailMessage) error {
	code := digitRun(msg.Body)
	c.mu.Lock()
	c.codes[msg.To] = code
	c.mu.Unlock()
	atomic.AddInt64(&c.count, 1)
	return nil
}

func (c *captureMailer) Code(email string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.codes[email]
}

func (c *captureMailer) Count() int {
	return int(atomic.LoadInt64(&c.count))
}

// digitRun returns the first run of 6 or more consecutive digits.
func digitRun(s string) string {
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] >= '0' && s[i] <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= 6 {
			return s[start:i]
		}
		start = -1
	}
	return ""
}

type memoryProvider struct {
	mu      sync.RWMutex
	byEmail map[string]goVerify.IdentityRecord
}

func newMemoryProvider() *memoryProvider {
	return &memoryProvider{byEmail: make(map[string]goVerify.IdentityRecord)}
}

func (p *memoryProvider) GetByEmail(_ context.Context, email string) (goVerify.IdentityRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	rec, ok := p.byEmail[email]
	if !ok {
		return goVerify.IdentityRecord{}, goVerify.ErrIdentityNotFound
	}
	return rec, nil
}

func (p *memoryProvider) Create(_ context.Context, input goVerify.CreateIdentityInput) (goVerify.IdentityRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if rec, ok := p.byEmail[input.Email]; ok {
		return rec, nil
	}
	rec := goVerify.IdentityRecord{
		AccountID: uuid.NewString(),
		Email:     input.Email,
		Verified:  input.Verified,
		CreatedAt: time.Now().UTC(),
	}
	p.byEmail[rec.Email] = rec
	return rec, nil
}
