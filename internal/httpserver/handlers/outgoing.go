package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bridgeworks/slackrelay/internal/httpserver/deps"
	"github.com/bridgeworks/slackrelay/internal/logger"
	"github.com/bridgeworks/slackrelay/internal/relay"
)

// Outgoing receives Slack outgoing-webhook POSTs and queues them for
// the relay worker. The response body is always an empty JSON object so
// the posting workspace never echoes anything back into the channel;
// actual relaying happens asynchronously.
func Outgoing(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "unparseable form body", http.StatusBadRequest)
			return
		}

		ev := relay.EventFromForm(r.PostForm)
		switch err := d.Queue.Enqueue(ev); {
		case errors.Is(err, relay.ErrQueueFull):
			d.Logger.Error("relay queue full, dropping event",
				logger.String("channel", ev.ChannelName),
				logger.String("user", ev.UserName))
			if d.Notifier != nil {
				d.Notifier.SendError("slack relay queue full",
					ev.ChannelName, ev.UserName, ev.Text)
			}
			if d.Stats != nil {
				if _, ok := d.Table.Lookup(ev.Token); ok {
					d.Stats.Incr(r.Context(), ev.Token, relay.OutcomeDropped)
				}
			}
			http.Error(w, "queue full", http.StatusServiceUnavailable)
			return
		case errors.Is(err, relay.ErrQueueClosed):
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}
}

// Ping answers GETs on the webhook path with a debug marker that rides
// the queue, proving the worker is alive and consuming.
func Ping(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Queue.Ping(r.RemoteAddr); err != nil {
			http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "ping queued, depth=%d\n", d.Queue.Depth())
	}
}
