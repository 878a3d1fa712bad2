package bridgefile

import (
	"fmt"

	"github.com/bridgeworks/slackrelay/internal/relay"
)

// Mapper converts bridge definitions to relay endpoints.
type Mapper struct{}

// NewMapper creates a new mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapEndpoints flattens the bridge pairs into endpoints. Each side that
// can emit events (has an outgoing-webhook token) becomes one endpoint
// whose delivery target is the OTHER side: its incoming-webhook URL,
// its channel and its payload overrides.
func (m *Mapper) MapEndpoints(config BridgesConfig) ([]*relay.Endpoint, error) {
	var endpoints []*relay.Endpoint
	for i, bridge := range config.Bridges {
		a := endpointFor(bridge.SideA, bridge.SideB)
		b := endpointFor(bridge.SideB, bridge.SideA)
		if a == nil && b == nil {
			return nil, fmt.Errorf("bridge %d: no outgoing-webhook token on either side", i)
		}
		if a != nil {
			endpoints = append(endpoints, a)
		}
		if b != nil {
			endpoints = append(endpoints, b)
		}
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no bridges configured")
	}
	return endpoints, nil
}

func endpointFor(self, other Side) *relay.Endpoint {
	if self.WebhookOutToken == "" {
		return nil
	}
	return &relay.Endpoint{
		Token:          self.WebhookOutToken,
		DeliveryURL:    other.WebhookInURL,
		Channel:        other.Channel,
		PeerAlias:      self.Peername,
		DirectoryToken: self.WebAPIToken,
		LinkedToken:    other.WebhookOutToken,
		Overrides:      other.Overrides,
	}
}
