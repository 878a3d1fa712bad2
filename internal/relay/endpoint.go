// Package relay implements the translation-and-delivery engine that
// forwards messages between paired Slack channels on independent
// workspaces: the endpoint table, the inbound event queue, the mention
// rewriter, the payload translator and the single relay worker that
// owns all mutable state.
package relay

import (
	"fmt"
	"sort"
)

// Endpoint is one side of a bridge, keyed by the outgoing-webhook token
// that identifies it as an event source. All fields are fixed at startup.
type Endpoint struct {
	Token          string            // outgoing-webhook token (primary key)
	DeliveryURL    string            // peer incoming-webhook URL messages are posted to
	Channel        string            // destination channel override: "#name" or a raw channel id
	PeerAlias      string            // local "@name" that broadcasts to the peer channel
	DirectoryToken string            // optional Web API token for directory lookups
	LinkedToken    string            // token of the paired endpoint, empty for one-way bridges
	Overrides      map[string]string // extra literal payload fields, merged last on delivery
}

// Table is the process-wide endpoint registry. It is built once at
// startup and read-only afterwards, so no locking is needed.
type Table struct {
	endpoints map[string]*Endpoint
}

// NewTable validates the endpoints and indexes them by token.
func NewTable(endpoints []*Endpoint) (*Table, error) {
	t := &Table{endpoints: make(map[string]*Endpoint, len(endpoints))}
	for _, ep := range endpoints {
		if ep.Token == "" {
			return nil, fmt.Errorf("endpoint with empty token (delivery url %q)", ep.DeliveryURL)
		}
		if ep.DeliveryURL == "" {
			return nil, fmt.Errorf("endpoint %s: missing delivery url", ep.Token)
		}
		if ep.Channel == "" {
			return nil, fmt.Errorf("endpoint %s: missing destination channel", ep.Token)
		}
		if _, dup := t.endpoints[ep.Token]; dup {
			return nil, fmt.Errorf("duplicate endpoint token %s", ep.Token)
		}
		t.endpoints[ep.Token] = ep
	}
	for _, ep := range endpoints {
		if ep.LinkedToken == "" {
			continue
		}
		if _, ok := t.endpoints[ep.LinkedToken]; !ok {
			return nil, fmt.Errorf("endpoint %s: linked token %s not in table", ep.Token, ep.LinkedToken)
		}
	}
	return t, nil
}

// Lookup returns the endpoint registered for an inbound token.
func (t *Table) Lookup(token string) (*Endpoint, bool) {
	ep, ok := t.endpoints[token]
	return ep, ok
}

// Peer returns the endpoint paired with ep, if any.
func (t *Table) Peer(ep *Endpoint) (*Endpoint, bool) {
	if ep.LinkedToken == "" {
		return nil, false
	}
	peer, ok := t.endpoints[ep.LinkedToken]
	return peer, ok
}

// Tokens returns all registered tokens, sorted.
func (t *Table) Tokens() []string {
	tokens := make([]string, 0, len(t.endpoints))
	for token := range t.endpoints {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// Len returns the number of registered endpoints.
func (t *Table) Len() int {
	return len(t.endpoints)
}
