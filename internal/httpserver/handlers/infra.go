package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bridgeworks/slackrelay/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                       `json:"mode"`
	Endpoints  int                          `json:"endpoints"`
	QueueDepth int                          `json:"queue_depth"`
	Components map[string]componentStatus   `json:"components"`
	Stats      map[string]map[string]string `json:"stats,omitempty"`
}

// Infra reports the state of the relay's supporting pieces: mail
// escalation, the statistics store, and per-endpoint relay counters.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		components := map[string]componentStatus{
			"mail":  checkMail(d),
			"redis": checkRedis(d),
		}

		response := infraResponse{
			Mode:       determineMode(components),
			Endpoints:  d.Table.Len(),
			QueueDepth: d.Queue.Depth(),
			Components: components,
			Stats:      collectStats(r.Context(), d),
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// determineMode flags degraded operation: the relay still forwards, but
// lost messages may go unnoticed or uncounted.
func determineMode(components map[string]componentStatus) string {
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "full"
}

func checkMail(d deps.Deps) componentStatus {
	if d.Notifier == nil {
		return componentStatus{
			OK:     false,
			Impact: "failure-escalation-disabled",
			Error:  "mail not configured",
		}
	}
	return componentStatus{OK: true, Impact: "failure-escalation-enabled"}
}

func checkRedis(d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Impact: "relay-counters-disabled",
			Error:  "store not configured",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Impact: "relay-counters-disabled",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Impact: "relay-counters-enabled"}
}

func collectStats(ctx context.Context, d deps.Deps) map[string]map[string]string {
	if d.Stats == nil {
		return nil
	}
	stats := make(map[string]map[string]string)
	for _, token := range d.Table.Tokens() {
		counters, err := d.Stats.Counters(ctx, token)
		if err != nil || len(counters) == 0 {
			continue
		}
		stats[token] = counters
	}
	return stats
}
