// Package redis persists relay statistics. The store is optional and
// strictly best effort: the relay never waits on it and never fails
// because of it.
package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/bridgeworks/slackrelay/internal/logger"
)

// Stats counts relay outcomes (relayed, dropped, failed) per endpoint
// token in Redis hashes.
type Stats struct {
	client *redis.Client
	log    logger.Logger
}

func NewStats(client *redis.Client, log logger.Logger) *Stats {
	return &Stats{client: client, log: log}
}

// Incr bumps one outcome counter. Errors are logged and swallowed.
func (s *Stats) Incr(ctx context.Context, token, field string) {
	if err := s.client.HIncrBy(ctx, StatsKey(token), field, 1).Err(); err != nil {
		s.log.Debug("stats increment failed",
			logger.String("token", token),
			logger.String("field", field),
			logger.Error(err))
	}
}

// Counters returns the counter hash for one endpoint token. Missing
// tokens yield an empty map.
func (s *Stats) Counters(ctx context.Context, token string) (map[string]string, error) {
	return s.client.HGetAll(ctx, StatsKey(token)).Result()
}
