package bridgefile

import "fmt"

// Environment variable groups describing bridges, numbered from 1,
// with the variable names existing deployments already use:
//
//	PORTAL_1_SIDE_A_WEBHOOK_OUT_TOKEN, PORTAL_1_SIDE_A_WEBHOOK_IN_URL,
//	PORTAL_1_SIDE_A_CHANNEL_NAME, PORTAL_1_SIDE_A_GROUP_NAME,
//	PORTAL_1_SIDE_A_WEB_API_TOKEN, PORTAL_1_SIDE_B_...
//
// Scanning stops at the first index with no variables set at all.

// FromEnv builds the bridge set from PORTAL_* variable groups. lookup
// is os.Getenv in production; tests inject a map.
func FromEnv(lookup func(string) string) (BridgesConfig, error) {
	var config BridgesConfig
	for n := 1; ; n++ {
		prefix := fmt.Sprintf("PORTAL_%d_", n)
		a := sideFromEnv(lookup, prefix+"SIDE_A_")
		b := sideFromEnv(lookup, prefix+"SIDE_B_")
		if a.empty() && b.empty() {
			break
		}
		if a.WebhookOutToken == "" && b.WebhookOutToken == "" {
			return BridgesConfig{}, fmt.Errorf("%s: no outgoing-webhook token on either side", prefix)
		}
		config.Bridges = append(config.Bridges, Bridge{SideA: a, SideB: b})
	}
	return config, nil
}

func sideFromEnv(lookup func(string) string, prefix string) Side {
	return Side{
		WebhookOutToken: lookup(prefix + "WEBHOOK_OUT_TOKEN"),
		WebhookInURL:    lookup(prefix + "WEBHOOK_IN_URL"),
		Channel:         lookup(prefix + "CHANNEL_NAME"),
		Peername:        lookup(prefix + "GROUP_NAME"),
		WebAPIToken:     lookup(prefix + "WEB_API_TOKEN"),
	}
}
