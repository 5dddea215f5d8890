package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

const defaultProfileTTL = 5 * time.Minute

var _ ports.ProfileCache = (*ProfileCache)(nil)

// ProfileCache stores public profiles keyed by user id.
// Key format: profile:<user_id>
//
// Only domain.UserInfo is cached, never the password hash.
type ProfileCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewProfileCache creates a ProfileCache wrapping the given Redis client.
// Entries expire after ttl, or defaultProfileTTL when ttl is not positive.
func NewProfileCache(client redis.Cmdable, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = defaultProfileTTL
	}
	return &ProfileCache{client: client, ttl: ttl}
}

func (c *ProfileCache) Get(ctx context.Context, id string) (*domain.UserInfo, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("profile cache get: %w", err)
	}

	var info domain.UserInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("profile cache decode: %w", err)
	}
	return &info, nil
}

func (c *ProfileCache) Set(ctx context.Context, info *domain.UserInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("profile cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(info.ID), raw, c.ttl).Err()
}

func (c *ProfileCache) key(id string) string {
	return "profile:" + id
}
