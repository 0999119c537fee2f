package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/eduhub/eduhub-backend/internal/metrics"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// KeySession prefixes every persisted session token.
const KeySession = "edu:session:"

// Cache is a JSON key-value cache backed by Redis. When Redis is
// unreachable at startup it falls back to a process-local store with
// the same TTL semantics, which also keeps single-binary dev setups
// working without a Redis instance.
type Cache struct {
	client *redis.Client
	mem    *memStore

	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
}

func New(addr string, logger *zap.SugaredLogger, metrics *metrics.Metrics) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if logger != nil {
			logger.Warnw("Redis unavailable; using in-memory cache", "addr", addr, "error", err)
		}
		return &Cache{
			mem:     newMemStore(30 * time.Second),
			logger:  logger,
			metrics: metrics,
		}, nil
	}

	return &Cache{
		client:  client,
		logger:  logger,
		metrics: metrics,
	}, nil
}

func (c *Cache) IsInMemoryMode() bool {
	return c.client == nil
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	var data []byte
	if c.client != nil {
		val, err := c.client.Get(ctx, key).Result()
		if err != nil {
			if err == redis.Nil {
				c.recordMiss(ctx, key)
				return ErrCacheMiss
			}
			if c.logger != nil {
				c.logger.Errorw("Cache get error", "key", key, "error", err)
			}
			return fmt.Errorf("cache get error: %w", err)
		}
		data = []byte(val)
	} else {
		val, ok := c.mem.get(key)
		if !ok {
			c.recordMiss(ctx, key)
			return ErrCacheMiss
		}
		data = val
	}

	if c.metrics != nil {
		c.metrics.RecordCacheHit(ctx, key)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}
	return nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if c.client != nil {
		if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
			if c.logger != nil {
				c.logger.Errorw("Cache set error", "key", key, "error", err)
			}
			return fmt.Errorf("cache set error: %w", err)
		}
		return nil
	}
	c.mem.set(key, data, ttl)
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if c.client != nil {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			if c.logger != nil {
				c.logger.Errorw("Cache delete error", "keys", keys, "error", err)
			}
			return fmt.Errorf("cache delete error: %w", err)
		}
		return nil
	}
	c.mem.del(keys...)
	return nil
}

// Expire resets the TTL of an existing key; it reports whether the key
// was present.
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if c.client != nil {
		ok, err := c.client.Expire(ctx, key, ttl).Result()
		if err != nil {
			return false, fmt.Errorf("cache expire error: %w", err)
		}
		return ok, nil
	}
	return c.mem.expire(key, ttl), nil
}

func (c *Cache) Ping(ctx context.Context) error {
	if c.client != nil {
		return c.client.Ping(ctx).Err()
	}
	return nil
}

func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	c.mem.close()
	return nil
}

func (c *Cache) recordMiss(ctx context.Context, key string) {
	if c.metrics != nil {
		c.metrics.RecordCacheMiss(ctx, key)
	}
}

// memStore is the in-memory fallback: a flat map with per-key
// expirations and a background janitor.
type memStore struct {
	mu          sync.RWMutex
	values      map[string][]byte
	expirations map[string]time.Time

	janitorStop chan struct{}
	janitorDone chan struct{}
}

func newMemStore(janitorInterval time.Duration) *memStore {
	s := &memStore{
		values:      make(map[string][]byte),
		expirations: make(map[string]time.Time),
		janitorStop: make(chan struct{}),
		janitorDone: make(chan struct{}),
	}
	go s.janitor(janitorInterval)
	return s
}

func (s *memStore) janitor(interval time.Duration) {
	defer close(s.janitorDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.janitorStop:
			return
		}
	}
}

func (s *memStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, expiry := range s.expirations {
		if now.After(expiry) {
			delete(s.values, key)
			delete(s.expirations, key)
		}
	}
}

func (s *memStore) get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if expiry, ok := s.expirations[key]; ok && time.Now().After(expiry) {
		return nil, false
	}
	val, ok := s.values[key]
	return val, ok
}

func (s *memStore) set(key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	if ttl > 0 {
		s.expirations[key] = time.Now().Add(ttl)
	} else {
		delete(s.expirations, key)
	}
}

func (s *memStore) del(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.values, key)
		delete(s.expirations, key)
	}
}

func (s *memStore) expire(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, ok := s.expirations[key]; ok && time.Now().After(expiry) {
		delete(s.values, key)
		delete(s.expirations, key)
		return false
	}
	if _, ok := s.values[key]; !ok {
		return false
	}
	if ttl > 0 {
		s.expirations[key] = time.Now().Add(ttl)
	} else {
		delete(s.expirations, key)
	}
	return true
}

func (s *memStore) close() {
	close(s.janitorStop)
	<-s.janitorDone

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string][]byte)
	s.expirations = make(map[string]time.Time)
}
