package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"duet/internal/core/domain"
)

const lastSeenTTL = 30 * 24 * time.Hour

// RedisLastSeenStore keeps coarse per-user reachability across process
// restarts. Live presence stays in the in-process registry; this only backs
// the "last seen" decoration on contact lists.
type RedisLastSeenStore struct {
	rdb *redis.Client
}

func NewRedisLastSeenStore(rdb *redis.Client) *RedisLastSeenStore {
	return &RedisLastSeenStore{rdb: rdb}
}

func lastSeenKey(id domain.UserID) string {
	return "last_seen:" + id.String()
}

// Touch marks the user reachable right now (called on register).
func (s *RedisLastSeenStore) Touch(ctx context.Context, id domain.UserID) error {
	return s.SetLastSeen(ctx, id, time.Now())
}

func (s *RedisLastSeenStore) SetLastSeen(ctx context.Context, id domain.UserID, at time.Time) error {
	return s.rdb.Set(ctx, lastSeenKey(id), at.Unix(), lastSeenTTL).Err()
}

func (s *RedisLastSeenStore) GetLastSeen(ctx context.Context, id domain.UserID) (time.Time, bool, error) {
	raw, err := s.rdb.Get(ctx, lastSeenKey(id)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(unix, 0), true, nil
}
