package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/bridgeworks/slackrelay/internal/logger"
)

type countingClient struct {
	userCalls    int
	channelCalls int
	users        []UserRecord
	channels     []ChannelRecord
	err          error
}

func (c *countingClient) ListUsers(context.Context) ([]UserRecord, error) {
	c.userCalls++
	return c.users, c.err
}

func (c *countingClient) ListChannels(context.Context) ([]ChannelRecord, error) {
	c.channelCalls++
	return c.channels, c.err
}

func newTestCache(client *countingClient) *Cache {
	return NewCache(func(string) Client { return client }, logger.New("error", false))
}

func TestUsersFetchedOnce(t *testing.T) {
	client := &countingClient{users: []UserRecord{{ID: "U1", Name: "alice"}}}
	cache := newTestCache(client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		users := cache.Users(ctx, "ep", "xoxp")
		if users["U1"].Name != "alice" {
			t.Fatalf("Users()[U1] = %+v", users["U1"])
		}
	}
	if client.userCalls != 1 {
		t.Errorf("ListUsers calls = %d, want exactly 1 fetch per endpoint", client.userCalls)
	}
}

func TestUsersFailurePinnedEmpty(t *testing.T) {
	client := &countingClient{err: errors.New("rate limited")}
	cache := newTestCache(client)
	ctx := context.Background()

	if users := cache.Users(ctx, "ep", "xoxp"); len(users) != 0 {
		t.Errorf("Users() = %v, want empty on fetch failure", users)
	}
	// A later message must not trigger a retry.
	cache.Users(ctx, "ep", "xoxp")
	if client.userCalls != 1 {
		t.Errorf("ListUsers calls = %d, want the failure pinned", client.userCalls)
	}
}

func TestUsersNoToken(t *testing.T) {
	client := &countingClient{}
	cache := newTestCache(client)

	if users := cache.Users(context.Background(), "ep", ""); len(users) != 0 {
		t.Errorf("Users() = %v, want empty without a token", users)
	}
	if client.userCalls != 0 {
		t.Errorf("ListUsers calls = %d, want no remote call without a token", client.userCalls)
	}
}

func TestUsersFiltersDeletedAndNamesFallback(t *testing.T) {
	client := &countingClient{users: []UserRecord{
		{ID: "U1", Name: "alice", AvatarURL: "https://img.example/a.jpg"},
		{ID: "U2", Name: "gone", Deleted: true},
		{ID: "U3"},
	}}
	cache := newTestCache(client)

	users := cache.Users(context.Background(), "ep", "xoxp")
	if _, ok := users["U2"]; ok {
		t.Error("deleted users must be dropped")
	}
	if users["U3"].Name != UnsetName {
		t.Errorf("unnamed user = %q, want placeholder", users["U3"].Name)
	}
	if users["U1"].AvatarURL != "https://img.example/a.jpg" {
		t.Errorf("avatar = %q", users["U1"].AvatarURL)
	}
}

func TestChannelsFetchedOnce(t *testing.T) {
	client := &countingClient{channels: []ChannelRecord{{ID: "C1", Name: "general"}}}
	cache := newTestCache(client)
	ctx := context.Background()

	cache.Channels(ctx, "ep", "xoxp")
	channels := cache.Channels(ctx, "ep", "xoxp")
	if channels["C1"].Name != "general" {
		t.Errorf("Channels()[C1] = %+v", channels["C1"])
	}
	if client.channelCalls != 1 {
		t.Errorf("ListChannels calls = %d, want exactly 1", client.channelCalls)
	}
}

func TestCacheIsPerEndpoint(t *testing.T) {
	client := &countingClient{users: []UserRecord{{ID: "U1", Name: "alice"}}}
	cache := newTestCache(client)
	ctx := context.Background()

	cache.Users(ctx, "ep-a", "xoxp")
	cache.Users(ctx, "ep-b", "xoxp")
	if client.userCalls != 2 {
		t.Errorf("ListUsers calls = %d, want one fetch per endpoint key", client.userCalls)
	}
}

func TestChannelMembersAlwaysFresh(t *testing.T) {
	client := &countingClient{channels: []ChannelRecord{
		{ID: "C1", Name: "shared", Members: []string{"U1", "U2"}},
	}}
	cache := newTestCache(client)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		members := cache.ChannelMembers(ctx, "xoxp", "shared")
		if len(members) != 2 {
			t.Fatalf("ChannelMembers() = %v", members)
		}
	}
	if client.channelCalls != 2 {
		t.Errorf("ListChannels calls = %d, want a fresh call each time", client.channelCalls)
	}

	if members := cache.ChannelMembers(ctx, "xoxp", "absent"); members != nil {
		t.Errorf("ChannelMembers(absent) = %v, want nil", members)
	}
	if members := cache.ChannelMembers(ctx, "", "shared"); members != nil {
		t.Errorf("ChannelMembers without token = %v, want nil", members)
	}
}
