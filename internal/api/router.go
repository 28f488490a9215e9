/**
 * @description
 * This file sets up the HTTP router for the slack-health-bot. It defines the
 * webhook endpoints, associates them with their handlers, and applies
 * standard middleware.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes creates and returns the router for the webhook endpoints.
func Routes(h *WebhookHandlers) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Slack webhook surfaces: JSON event callbacks, form-encoded interactive
	// actions, and form-encoded slash commands.
	r.Post("/slack/events", h.EventsHandler)
	r.Post("/slack/interactions", h.InteractionsHandler)
	r.Post("/slack/commands", h.CommandsHandler)

	return r
}
