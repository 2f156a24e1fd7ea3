package leagues

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	"github.com/angelmondragon/kitstore-backend/pkg/redis"
)

// CacheStore is the slice of the Redis client the league listing cache uses.
type CacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

type leagueCache struct {
	store CacheStore
	ttl   time.Duration
}

func (c *leagueCache) key(sport enums.Sport) string {
	scope := string(sport)
	if scope == "" {
		scope = "all"
	}
	return c.store.CacheKey("leagues", scope)
}

// get returns ok=false on a miss; err is set only when Redis itself failed.
func (c *leagueCache) get(ctx context.Context, sport enums.Sport) ([]LeagueDTO, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	raw, err := c.store.Get(ctx, c.key(sport))
	if err != nil {
		if redis.IsNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var out []LeagueDTO
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false, nil
	}
	return out, true, nil
}

func (c *leagueCache) put(ctx context.Context, sport enums.Sport, leagues []LeagueDTO) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(leagues)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.key(sport), string(payload), c.ttl)
}

func (c *leagueCache) invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	keys := []string{c.key("")}
	for _, sport := range enums.Sports() {
		keys = append(keys, c.key(sport))
	}
	return c.store.Del(ctx, keys...)
}
