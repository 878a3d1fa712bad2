package relay

import (
	"fmt"

	"github.com/bridgeworks/slackrelay/internal/delivery"
	"github.com/bridgeworks/slackrelay/internal/directory"
)

// Translate turns an inbound outgoing-webhook event into the payload
// for the peer side's incoming webhook. The destination channel comes
// from the endpoint configuration (literal "#name" or raw id, passed
// through unmodified), the username stays the original poster's, and
// link_names is always on so unresolved plain @names still expand on
// the receiving client. Configured literal overrides are merged last.
func Translate(ev Event, ep *Endpoint, users map[string]directory.User, channels map[string]directory.Channel) delivery.Payload {
	p := delivery.Payload{
		Text:      Rewrite(ev.Text, users, channels, ep.PeerAlias),
		Channel:   ep.Channel,
		Username:  ev.UserName,
		LinkNames: true,
	}
	if u, ok := users[ev.UserID]; ok && u.AvatarURL != "" {
		p.IconURL = u.AvatarURL
	}
	if len(ep.Overrides) > 0 {
		p.Extra = ep.Overrides
	}
	return p
}

// NonTextNotice is the substitute body for events whose text is empty
// after translation, which is what attachments and photos look like to
// an outgoing webhook: those cannot be forwarded.
func NonTextNotice(username string) string {
	return fmt.Sprintf("(%s tried to send non-text; slackrelay cannot forward)", username)
}

// localNotice builds a plain, local-only reply into the channel the
// event originated from.
func localNotice(text, originChannel string) delivery.Payload {
	return delivery.Payload{
		Text:    text,
		Channel: "#" + originChannel,
		Plain:   true,
	}
}
