package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/bridgeworks/slackrelay/internal/httpserver/deps"
	"github.com/bridgeworks/slackrelay/internal/httpserver/handlers"
)

func init() { Register(registerOutgoing) }

func registerOutgoing(r chi.Router, d deps.Deps) {
	r.Post("/outgoing", handlers.Outgoing(d))
	r.Get("/outgoing", handlers.Ping(d))
}
