// Package directory resolves opaque Slack user and channel ids to
// display names through a per-endpoint, lazily populated cache.
package directory

import (
	"context"

	"github.com/bridgeworks/slackrelay/internal/logger"
)

// UnsetName is stored when the remote directory has no name for a record.
// It is also what the diagnostic command prints for unknown values.
const UnsetName = "<unset>"

// User is a cached directory entry for a workspace member.
type User struct {
	Name      string
	AvatarURL string
}

// Channel is a cached directory entry for a workspace channel.
type Channel struct {
	Name string
}

// UserRecord is one raw user row from the remote directory.
type UserRecord struct {
	ID        string
	Name      string
	AvatarURL string
	Deleted   bool
}

// ChannelRecord is one raw channel row from the remote directory.
type ChannelRecord struct {
	ID      string
	Name    string
	Members []string
}

// Client is a read-only view of one workspace's directory.
type Client interface {
	ListUsers(ctx context.Context) ([]UserRecord, error)
	ListChannels(ctx context.Context) ([]ChannelRecord, error)
}

// ClientFactory builds a Client scoped to one directory API token.
type ClientFactory func(apiToken string) Client

// Cache holds the per-endpoint user and channel maps. Entries are
// fetched once on first need and then pinned for the process lifetime:
// a failed fetch (or a missing API token) pins an empty map, and no
// later message triggers a refetch. The cache is owned by the single
// relay worker, so it needs no locking.
type Cache struct {
	factory  ClientFactory
	log      logger.Logger
	users    map[string]map[string]User    // endpoint token -> user id -> User
	channels map[string]map[string]Channel // endpoint token -> channel id -> Channel
}

func NewCache(factory ClientFactory, log logger.Logger) *Cache {
	return &Cache{
		factory:  factory,
		log:      log,
		users:    make(map[string]map[string]User),
		channels: make(map[string]map[string]Channel),
	}
}

// Users returns the user map for the endpoint identified by key,
// fetching it on first access. apiToken may be empty, in which case the
// result is empty (and stays empty).
func (c *Cache) Users(ctx context.Context, key, apiToken string) map[string]User {
	if cached, ok := c.users[key]; ok {
		return cached
	}

	users := make(map[string]User)
	if apiToken == "" {
		c.users[key] = users
		return users
	}

	c.log.Info("fetching users.list", logger.String("endpoint", key))
	records, err := c.factory(apiToken).ListUsers(ctx)
	if err != nil {
		// Pinned empty until restart; a later message will not retry.
		c.log.Error("fetching users.list failed", logger.String("endpoint", key), logger.Error(err))
		c.users[key] = users
		return users
	}

	for _, rec := range records {
		if rec.Deleted {
			continue
		}
		name := rec.Name
		if name == "" {
			name = UnsetName
		}
		users[rec.ID] = User{Name: name, AvatarURL: rec.AvatarURL}
	}
	c.users[key] = users
	c.log.Debug("users.list cached", logger.String("endpoint", key), logger.Int("users", len(users)))
	return users
}

// Channels returns the channel map for the endpoint identified by key,
// fetching it on first access with the same pinning rules as Users.
func (c *Cache) Channels(ctx context.Context, key, apiToken string) map[string]Channel {
	if cached, ok := c.channels[key]; ok {
		return cached
	}

	channels := make(map[string]Channel)
	if apiToken == "" {
		c.channels[key] = channels
		return channels
	}

	c.log.Info("fetching channels.list", logger.String("endpoint", key))
	records, err := c.factory(apiToken).ListChannels(ctx)
	if err != nil {
		c.log.Error("fetching channels.list failed", logger.String("endpoint", key), logger.Error(err))
		c.channels[key] = channels
		return channels
	}

	for _, rec := range records {
		name := rec.Name
		if name == "" {
			name = UnsetName
		}
		channels[rec.ID] = Channel{Name: name}
	}
	c.channels[key] = channels
	c.log.Debug("channels.list cached", logger.String("endpoint", key), logger.Int("channels", len(channels)))
	return channels
}

// ChannelMembers lists the member ids of a channel by name. Unlike the
// id maps this always performs a fresh remote call: it only serves the
// diagnostic command, never the relay hot path.
func (c *Cache) ChannelMembers(ctx context.Context, apiToken, channelName string) []string {
	if apiToken == "" {
		return nil
	}

	records, err := c.factory(apiToken).ListChannels(ctx)
	if err != nil {
		c.log.Error("fetching channel members failed",
			logger.String("channel", channelName), logger.Error(err))
		return nil
	}
	for _, rec := range records {
		if rec.Name == channelName {
			return rec.Members
		}
	}
	return nil
}
