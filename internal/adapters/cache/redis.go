// Package cache provides the cache-aside store adapters: a Redis-backed store
// and a no-op store for environments with caching disabled.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Defaults for Config.
const (
	DefaultConnectAttempts = 10
	DefaultConnectBackoff  = 2 * time.Second
	DefaultDialTimeout     = 2 * time.Second
	DefaultReadTimeout     = time.Second
	DefaultWriteTimeout    = time.Second
)

var (
	// ErrNotConnected is returned while the store has not yet reached Redis.
	ErrNotConnected = errors.New("cache store not connected")

	// ErrConnectFailed is delivered when a required store exhausts its attempts.
	ErrConnectFailed = errors.New("cache store connection failed")
)

// Config configures a RedisStore.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// ConnectAttempts bounds the startup ping loop.
	ConnectAttempts int

	// ConnectBackoff is the fixed wait between attempts.
	ConnectBackoff time.Duration

	// Required makes connection exhaustion fatal. When false the store
	// degrades to a no-op instead.
	Required bool
}

func (c *Config) applyDefaults() {
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = DefaultConnectAttempts
	}

	if c.ConnectBackoff <= 0 {
		c.ConnectBackoff = DefaultConnectBackoff
	}

	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}

	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}

	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
}

// RedisStore is a ports.Cache backed by Redis.
//
// Requests never wait for the connection: until Connect succeeds, Get and
// SetWithTTL fail fast with ErrNotConnected, which callers treat as a miss.
type RedisStore struct {
	client *redis.Client
	cfg    Config
	logger *slog.Logger

	connected   atomic.Bool
	degraded    atomic.Bool
	connectOnce sync.Once
}

// NewRedisStore creates a store for the configured server. No connection is
// attempted until Connect is called.
func NewRedisStore(cfg Config, logger *slog.Logger) *RedisStore {
	cfg.applyDefaults()

	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		// Commands fail fast; a broken cache must not slow requests down.
		MaxRetries: -1,
	})

	return NewRedisStoreWithClient(client, cfg, logger)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, cfg Config, logger *slog.Logger) *RedisStore {
	if client == nil {
		panic("redis client cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	cfg.applyDefaults()

	return &RedisStore{
		client: client,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "cache.RedisStore")),
	}
}

// Connect pings Redis in the background until it answers or the attempts run out.
//
// The returned channel is closed when the loop ends. It first receives an
// error wrapping ErrConnectFailed only when the store is required and never
// connected. Connect runs at most once; later calls return a closed channel.
func (s *RedisStore) Connect(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	started := false

	s.connectOnce.Do(func() {
		started = true

		go func() {
			defer close(done)

			if err := s.connectLoop(ctx); err != nil {
				done <- err
			}
		}()
	})

	if !started {
		close(done)
	}

	return done
}

func (s *RedisStore) connectLoop(ctx context.Context) error {
	var lastErr error

	for attempt := 1; attempt <= s.cfg.ConnectAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, s.cfg.DialTimeout)
		lastErr = s.client.Ping(pingCtx).Err()
		cancel()

		if lastErr == nil {
			s.connected.Store(true)
			s.logger.Info("connected to redis", slog.Int("attempt", attempt))

			return nil
		}

		CacheErrors.WithLabelValues("connect").Inc()
		s.logger.Warn("redis connection attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", s.cfg.ConnectAttempts),
			slog.Any("error", lastErr),
		)

		if attempt == s.cfg.ConnectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.ConnectBackoff):
		}
	}

	if s.cfg.Required {
		return fmt.Errorf("%w after %d attempts: %w", ErrConnectFailed, s.cfg.ConnectAttempts, lastErr)
	}

	s.degraded.Store(true)
	s.logger.Error("redis unreachable, caching disabled",
		slog.Int("attempts", s.cfg.ConnectAttempts),
		slog.Any("error", lastErr),
	)

	return nil
}

// Connected reports whether the store has reached Redis.
func (s *RedisStore) Connected() bool {
	return s.connected.Load()
}

// Degraded reports whether the store gave up connecting and acts as a no-op.
func (s *RedisStore) Degraded() bool {
	return s.degraded.Load()
}

// Get retrieves the value stored under key.
// A missing key is a miss, not an error.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.degraded.Load() {
		return "", false, nil
	}

	if !s.connected.Load() {
		return "", false, ErrNotConnected
	}

	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.Inc()
			return "", false, nil
		}

		CacheErrors.WithLabelValues("get").Inc()

		return "", false, fmt.Errorf("redis get: %w", err)
	}

	CacheHits.Inc()

	return val, true, nil
}

// SetWithTTL stores value under key, expiring after ttl.
func (s *RedisStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if s.degraded.Load() {
		return nil
	}

	if !s.connected.Load() {
		return ErrNotConnected
	}

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Name returns the health check name.
// Implements ports.HealthChecker.
func (s *RedisStore) Name() string {
	return "redis"
}

// Check pings Redis.
// Implements ports.HealthChecker.
func (s *RedisStore) Check(ctx context.Context) error {
	if s.degraded.Load() {
		return errors.New("redis unreachable at startup, caching disabled")
	}

	if !s.connected.Load() {
		return ErrNotConnected
	}

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	return nil
}

// Optional reports whether a failing store only degrades the service.
// Implements ports.OptionalChecker.
func (s *RedisStore) Optional() bool {
	return !s.cfg.Required
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
