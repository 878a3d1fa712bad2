// Package bridgefile loads bridge definitions from bridges.yaml or
// from numbered environment variable groups and maps them onto relay
// endpoints.
package bridgefile

// BridgesConfig is the top-level structure of bridges.yaml.
type BridgesConfig struct {
	Bridges []Bridge `yaml:"bridges"`
}

// Bridge describes one channel pair. A side without an outgoing token
// can still receive, which makes the bridge one-way.
type Bridge struct {
	SideA Side `yaml:"side_a"`
	SideB Side `yaml:"side_b"`
}

// Side holds one workspace's credentials for the pair.
type Side struct {
	WebhookOutToken string            `yaml:"webhook_out_token"`
	WebhookInURL    string            `yaml:"webhook_in_url"`
	Channel         string            `yaml:"channel"`
	Peername        string            `yaml:"peername,omitempty"`
	WebAPIToken     string            `yaml:"webapi_token,omitempty"`
	Overrides       map[string]string `yaml:"overrides,omitempty"`
}

func (s Side) empty() bool {
	return s.WebhookOutToken == "" && s.WebhookInURL == "" && s.Channel == "" &&
		s.Peername == "" && s.WebAPIToken == "" && len(s.Overrides) == 0
}
