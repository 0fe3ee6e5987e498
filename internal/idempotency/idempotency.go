// Package idempotency guards non-idempotent endpoints against replays of
// the same Idempotency-Key.
package idempotency

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MikeMC777/phonestore/internal/apperr"
	"github.com/MikeMC777/phonestore/internal/httpx"
)

const Header = "Idempotency-Key"

var ErrDuplicate = apperr.New(apperr.KindConflict, "duplicate_request", "a request with this Idempotency-Key was already processed")

type Store interface {
	// Claim returns true the first time key is seen within the TTL.
	Claim(ctx context.Context, key string) (bool, error)
	// Forget drops key so that a failed request can be retried.
	Forget(ctx context.Context, key string) error
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Claim(ctx context.Context, key string) (bool, error) {
	return s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
}

func (s *RedisStore) Forget(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{seen: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Claim(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if exp, ok := s.seen[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.seen[key] = now.Add(s.ttl)
	for k, exp := range s.seen {
		if !now.Before(exp) {
			delete(s.seen, k)
		}
	}
	return true, nil
}

func (s *MemoryStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.seen, key)
	s.mu.Unlock()
	return nil
}

// Middleware rejects a repeated Idempotency-Key from the same caller with
// 409. Keys are released again when the handler fails so the client may
// retry. Store outages fail open.
func Middleware(store Store, scope string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(Header))
		if raw == "" {
			c.Next()
			return
		}
		if len(raw) > 128 {
			httpx.WriteError(c, apperr.Invalid("%s must be at most 128 characters", Header))
			return
		}
		key := "idem:" + scope + ":" + httpx.Caller(c).UserID + ":" + raw

		ctx := c.Request.Context()
		fresh, err := store.Claim(ctx, key)
		if err != nil {
			log.Warn("idempotency store unavailable", zap.String("rid", c.GetString("rid")), zap.Error(err))
			c.Next()
			return
		}
		if !fresh {
			httpx.WriteError(c, ErrDuplicate)
			return
		}

		c.Next()

		if c.Writer.Status() >= 400 {
			if err := store.Forget(context.WithoutCancel(ctx), key); err != nil {
				log.Warn("idempotency forget", zap.String("key", key), zap.Error(err))
			}
		}
	}
}
