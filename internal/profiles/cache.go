// internal/profiles/cache.go
// Redis-backed read-through cache over the profile repository.
// The cache is injected explicitly so callers that need the scorer's purity
// guarantees are never reading through hidden global state.

package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type cachedRepository struct {
	inner Repository
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedRepository wraps a repository with a Redis read-through cache.
// A nil client returns the inner repository unchanged.
func NewCachedRepository(inner Repository, client *redis.Client, ttl time.Duration) Repository {
	if client == nil {
		return inner
	}
	return &cachedRepository{inner: inner, redis: client, ttl: ttl}
}

func profileKey(userID int64) string {
	return fmt.Sprintf("profiles:active:%d", userID)
}

func (c *cachedRepository) GetActiveProfile(ctx context.Context, userID int64) (*TraitProfile, error) {
	if data, err := c.redis.Get(ctx, profileKey(userID)).Bytes(); err == nil {
		var profile TraitProfile
		if err := json.Unmarshal(data, &profile); err == nil {
			return &profile, nil
		}
	}

	profile, err := c.inner.GetActiveProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(profile); err == nil {
		c.redis.Set(ctx, profileKey(userID), data, c.ttl)
	}

	return profile, nil
}

func (c *cachedRepository) GetActiveProfiles(ctx context.Context, userIDs []int64) (map[int64]*TraitProfile, error) {
	result := make(map[int64]*TraitProfile, len(userIDs))
	var misses []int64

	for _, id := range userIDs {
		data, err := c.redis.Get(ctx, profileKey(id)).Bytes()
		if err != nil {
			misses = append(misses, id)
			continue
		}
		var profile TraitProfile
		if err := json.Unmarshal(data, &profile); err != nil {
			misses = append(misses, id)
			continue
		}
		result[id] = &profile
	}

	if len(misses) == 0 {
		return result, nil
	}

	fetched, err := c.inner.GetActiveProfiles(ctx, misses)
	if err != nil {
		return nil, err
	}

	for id, profile := range fetched {
		result[id] = profile
		if data, err := json.Marshal(profile); err == nil {
			c.redis.Set(ctx, profileKey(id), data, c.ttl)
		}
	}

	return result, nil
}

func (c *cachedRepository) ReplaceProfile(ctx context.Context, profile *TraitProfile) error {
	if err := c.inner.ReplaceProfile(ctx, profile); err != nil {
		return err
	}
	// Drop the stale entry rather than writing the new one; the next read
	// repopulates from the source of truth.
	c.redis.Del(ctx, profileKey(profile.UserID))
	return nil
}
