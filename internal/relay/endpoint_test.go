package relay

import "testing"

func validEndpoints() []*Endpoint {
	return []*Endpoint{
		{Token: "ta", DeliveryURL: "https://hooks.example/b", Channel: "#b", LinkedToken: "tb"},
		{Token: "tb", DeliveryURL: "https://hooks.example/a", Channel: "#a", LinkedToken: "ta"},
	}
}

func TestNewTable(t *testing.T) {
	table, err := NewTable(validEndpoints())
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if table.Len() != 2 {
		t.Errorf("Len = %d, want 2", table.Len())
	}

	ep, ok := table.Lookup("ta")
	if !ok || ep.Channel != "#b" {
		t.Fatalf("Lookup(ta) = %+v, %v", ep, ok)
	}
	peer, ok := table.Peer(ep)
	if !ok || peer.Token != "tb" {
		t.Errorf("Peer(ta) = %+v, %v", peer, ok)
	}

	tokens := table.Tokens()
	if len(tokens) != 2 || tokens[0] != "ta" || tokens[1] != "tb" {
		t.Errorf("Tokens = %v, want sorted", tokens)
	}
}

func TestNewTableValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]*Endpoint) []*Endpoint
	}{
		{
			name:   "empty token",
			mutate: func(eps []*Endpoint) []*Endpoint { eps[0].Token = ""; return eps },
		},
		{
			name:   "missing delivery url",
			mutate: func(eps []*Endpoint) []*Endpoint { eps[0].DeliveryURL = ""; return eps },
		},
		{
			name:   "missing channel",
			mutate: func(eps []*Endpoint) []*Endpoint { eps[1].Channel = ""; return eps },
		},
		{
			name:   "duplicate token",
			mutate: func(eps []*Endpoint) []*Endpoint { eps[1].Token = "ta"; return eps },
		},
		{
			name:   "dangling linked token",
			mutate: func(eps []*Endpoint) []*Endpoint { eps[0].LinkedToken = "missing"; return eps },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.mutate(validEndpoints())); err == nil {
				t.Error("NewTable should reject the configuration")
			}
		})
	}
}

func TestPeerUnlinked(t *testing.T) {
	table, err := NewTable([]*Endpoint{
		{Token: "ts", DeliveryURL: "https://hooks.example/x", Channel: "#x"},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	ep, _ := table.Lookup("ts")
	if _, ok := table.Peer(ep); ok {
		t.Error("Peer should report no pair for an unlinked endpoint")
	}
}
