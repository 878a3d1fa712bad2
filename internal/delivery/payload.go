// Package delivery posts translated payloads to incoming-webhook
// endpoints with bounded retry and escalation on exhaustion.
package delivery

import (
	"encoding/json"
	"net/url"
)

// Payload is one outbound incoming-webhook message. It is built fresh
// per delivery and never mutated afterwards.
type Payload struct {
	Text      string
	Channel   string // "#name" or raw channel id, passed through as configured
	Username  string // original poster's name, shown on the peer side
	IconURL   string // avatar, empty when unresolvable
	LinkNames bool   // let the receiving side expand @name and @channel
	Plain     bool   // disable markdown rendering (diagnostic and notice replies)
	Extra     map[string]string
}

// MarshalJSON renders the wire shape of an incoming-webhook post.
// Extra fields are merged last and override computed ones.
func (p Payload) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"text":    p.Text,
		"channel": p.Channel,
	}
	if p.Username != "" {
		m["username"] = p.Username
	}
	if p.IconURL != "" {
		m["icon_url"] = p.IconURL
	}
	if p.LinkNames {
		m["link_names"] = 1
	}
	if p.Plain {
		m["mrkdwn"] = false
	}
	for k, v := range p.Extra {
		m[k] = v
	}
	return json.Marshal(m)
}

// Values encodes the payload the way incoming webhooks expect it:
// a single url-encoded "payload" field holding the JSON document.
func (p Payload) Values() (url.Values, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return url.Values{"payload": []string{string(doc)}}, nil
}
