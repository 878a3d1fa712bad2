package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bridgeworks/slackrelay/internal/logger"
	"github.com/bridgeworks/slackrelay/internal/relay"
	storeredis "github.com/bridgeworks/slackrelay/internal/store/redis"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	Queue    *relay.Queue     // inbound event queue, producer side
	Table    *relay.Table     // endpoint registry (read-only)
	Notifier relay.Notifier   // operator escalation, nil when mail is disabled
	Stats    *storeredis.Stats // relay counters, nil when the store is disabled

	RedisClient  *redis.Client // nil when the statistics store is disabled
	AllowedCIDRS []string      // IPs allowed to access the ops endpoints
	TrustProxy   bool          // true when running behind a trusted reverse proxy
}
