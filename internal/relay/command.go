package relay

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bridgeworks/slackrelay/internal/directory"
)

// InfoCommand is the reserved message body that is answered locally
// instead of being forwarded.
const InfoCommand = "!info"

type sideReport struct {
	alias   string
	channel string
	members []string
}

// buildInfoReport summarizes both sides of the bridge the endpoint
// belongs to: broadcast alias, channel and sorted member names per
// side. Values that cannot be resolved show the unset placeholder; a
// missing pair leaves the whole peer side unset.
func buildInfoReport(ctx context.Context, table *Table, cache *directory.Cache, ep *Endpoint) string {
	peer, hasPeer := table.Peer(ep)

	local := sideReport{alias: directory.UnsetName, channel: directory.UnsetName}
	remote := sideReport{alias: ep.PeerAlias, channel: directory.UnsetName}

	if hasPeer {
		if peer.PeerAlias != "" {
			local.alias = peer.PeerAlias
		}
		// The peer delivers into our workspace, so its destination
		// override names our channel.
		local.channel = resolveChannelName(ctx, cache, ep, peer.Channel)
	}
	remote.channel = resolveChannelName(ctx, cache, peer, ep.Channel)

	local.members = channelMemberNames(ctx, cache, ep, local.channel)
	if hasPeer {
		remote.members = channelMemberNames(ctx, cache, peer, remote.channel)
	}

	sides := []sideReport{local, remote}
	sort.Slice(sides, func(i, j int) bool { return sides[i].channel < sides[j].channel })

	lines := make([]string, 0, len(sides)+1)
	lines = append(lines, "(local reply only)")
	for _, side := range sides {
		lines = append(lines, fmt.Sprintf("@%s #%s: %s",
			side.alias, side.channel, strings.Join(side.members, ", ")))
	}
	return strings.Join(lines, "\n")
}

// resolveChannelName turns a destination override into a display name:
// literal "#name" overrides strip the prefix, raw channel ids go
// through the owning endpoint's channel cache. owner may be nil when
// the bridge has no second side.
func resolveChannelName(ctx context.Context, cache *directory.Cache, owner *Endpoint, override string) string {
	if strings.HasPrefix(override, "#") {
		return strings.TrimPrefix(override, "#")
	}
	if override == "" || owner == nil {
		return directory.UnsetName
	}
	channels := cache.Channels(ctx, owner.Token, owner.DirectoryToken)
	if ch, ok := channels[override]; ok {
		return ch.Name
	}
	return directory.UnsetName
}

// channelMemberNames lists the resolvable member names of a channel on
// the endpoint's workspace, sorted. Members without a directory entry
// are dropped (most likely deleted accounts).
func channelMemberNames(ctx context.Context, cache *directory.Cache, ep *Endpoint, channelName string) []string {
	if ep == nil || ep.DirectoryToken == "" || channelName == directory.UnsetName {
		return nil
	}

	memberIDs := cache.ChannelMembers(ctx, ep.DirectoryToken, channelName)
	if len(memberIDs) == 0 {
		return nil
	}

	users := cache.Users(ctx, ep.Token, ep.DirectoryToken)
	names := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		if u, ok := users[id]; ok {
			names = append(names, u.Name)
		}
	}
	sort.Strings(names)
	return names
}
