package directory

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// slackClient adapts the Slack Web API to the Client interface.
type slackClient struct {
	api *slack.Client
}

// NewSlackClient returns a Client backed by the Slack Web API, scoped
// to one workspace token. Pass it as the ClientFactory to NewCache.
func NewSlackClient(apiToken string) Client {
	return &slackClient{api: slack.New(apiToken)}
}

func (c *slackClient) ListUsers(ctx context.Context) ([]UserRecord, error) {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("users.list: %w", err)
	}

	records := make([]UserRecord, 0, len(users))
	for _, u := range users {
		records = append(records, UserRecord{
			ID:        u.ID,
			Name:      u.Name,
			AvatarURL: u.Profile.Image32,
			Deleted:   u.Deleted,
		})
	}
	return records, nil
}

func (c *slackClient) ListChannels(ctx context.Context) ([]ChannelRecord, error) {
	channels, _, err := c.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		ExcludeArchived: true,
		Limit:           1000,
	})
	if err != nil {
		return nil, fmt.Errorf("conversations.list: %w", err)
	}

	records := make([]ChannelRecord, 0, len(channels))
	for _, ch := range channels {
		records = append(records, ChannelRecord{
			ID:      ch.ID,
			Name:    ch.Name,
			Members: ch.Members,
		})
	}
	return records, nil
}
