package profile

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheNamespace = "profile"

// NewRedisClient returns a cluster client when more than one address is given
// and useCluster is set, a single-node client otherwise.
func NewRedisClient(addrs []string, password string, useCluster bool) redis.UniversalClient {
	if useCluster && len(addrs) > 1 {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    addrs,
			Password: password,
		})
	}
	return redis.NewClient(&redis.Options{
		Addr:     addrs[0],
		Password: password,
		DB:       0,
	})
}

// CachedStore is a read-through redis cache in front of another Store.
//
// A successful write replaces the cached entry with a short-lived fence. Reads
// only populate the cache with SETNX, so a read that raced the write cannot put
// the old record back while the fence stands. When the fence cannot be written
// the id is marked dirty and reads bypass the cache until a fence succeeds.
// Other cache failures are logged and fall through to the wrapped store.
type CachedStore struct {
	next   Store
	client redis.UniversalClient
	ttl    time.Duration
	fence  time.Duration
	log    *zap.Logger

	mu    sync.Mutex
	dirty map[string]struct{}
}

const (
	fenceValue   = "-"
	defaultFence = 30 * time.Second
)

func NewCachedStore(next Store, client redis.UniversalClient, ttl time.Duration, log *zap.Logger) *CachedStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedStore{
		next:   next,
		client: client,
		ttl:    ttl,
		fence:  defaultFence,
		log:    log,
		dirty:  make(map[string]struct{}),
	}
}

func cacheKey(id string) string {
	return cacheNamespace + ":" + id
}

func (s *CachedStore) ReadOne(ctx context.Context, id string) (*Record, error) {
	if s.isDirty(id) {
		if err := s.writeFence(ctx, id); err != nil {
			return s.next.ReadOne(ctx, id)
		}
		s.clearDirty(id)
	} else if rec, ok := s.cached(ctx, id); ok {
		return rec, nil
	}

	rec, err := s.next.ReadOne(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(rec); err == nil {
		if err := s.client.SetNX(ctx, cacheKey(id), raw, s.ttl).Err(); err != nil {
			s.log.Warn("profile cache write failed", zap.String("user_id", id), zap.Error(err))
		}
	}
	return rec, nil
}

// UpdateOne writes through to the wrapped store and then fences the cached entry.
func (s *CachedStore) UpdateOne(ctx context.Context, id string, u Update) error {
	if err := s.next.UpdateOne(ctx, id, u); err != nil {
		return err
	}
	if err := s.writeFence(ctx, id); err != nil {
		s.log.Warn("profile cache invalidation failed, bypassing cache", zap.String("user_id", id), zap.Error(err))
		s.markDirty(id)
		return nil
	}
	s.clearDirty(id)
	return nil
}

func (s *CachedStore) cached(ctx context.Context, id string) (*Record, bool) {
	raw, err := s.client.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		if string(raw) == fenceValue {
			return nil, false
		}
		var rec Record
		uerr := json.Unmarshal(raw, &rec)
		if uerr == nil {
			return &rec, true
		}
		s.log.Warn("discarding corrupt cached profile", zap.String("user_id", id), zap.Error(uerr))
	case !errors.Is(err, redis.Nil):
		s.log.Warn("profile cache read failed", zap.String("user_id", id), zap.Error(err))
	}
	return nil, false
}

func (s *CachedStore) writeFence(ctx context.Context, id string) error {
	return s.client.Set(ctx, cacheKey(id), fenceValue, s.fence).Err()
}

func (s *CachedStore) isDirty(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dirty[id]
	return ok
}

func (s *CachedStore) markDirty(id string) {
	s.mu.Lock()
	s.dirty[id] = struct{}{}
	s.mu.Unlock()
}

func (s *CachedStore) clearDirty(id string) {
	s.mu.Lock()
	delete(s.dirty, id)
	s.mu.Unlock()
}
