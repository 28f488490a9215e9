/**
 * @description
 * This file contains the HTTP handlers for the Slack webhook endpoints.
 * Handlers are responsible for parsing incoming payloads into the tagged
 * inbound event variant, calling the event router, and executing the outbound
 * action it returns against the messaging client. They act as the bridge
 * between the web layer and the questionnaire logic.
 *
 * @dependencies
 * - encoding/json, errors, io, net/http, time: Standard Go libraries.
 * - github.com/google/uuid: Per-request ids for log correlation.
 * - github.com/rs/zerolog/log: Structured logging.
 * - internal/app, internal/domain, internal/store: For routing logic, models,
 *   and custom errors.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jmickey/slack-health-bot/internal/app"
	"github.com/jmickey/slack-health-bot/internal/domain"
	"github.com/jmickey/slack-health-bot/internal/store"
)

// Messenger is the outbound messaging surface the handlers execute actions
// against. *slackclient.Client satisfies it.
type Messenger interface {
	PostMessage(ctx context.Context, channelID, text string, attachments []domain.Attachment) error
	UpdateMessage(ctx context.Context, channelID, timestamp, text string, attachments []domain.Attachment) error
}

// RateLimiter is the optional per-user event throttle applied to the
// interactive-action endpoint. A zero count means the event is not limited.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// WebhookHandlers holds the event router and collaborators the handlers use.
type WebhookHandlers struct {
	router    *app.Router
	messenger Messenger

	limiter          RateLimiter
	interactionLimit int
}

// NewWebhookHandlers creates the handler set for the Slack webhook endpoints.
// The limiter may be nil, which disables rate limiting.
func NewWebhookHandlers(router *app.Router, messenger Messenger, limiter RateLimiter, interactionLimit int) *WebhookHandlers {
	return &WebhookHandlers{
		router:           router,
		messenger:        messenger,
		limiter:          limiter,
		interactionLimit: interactionLimit,
	}
}

// EventsHandler receives Slack event callbacks: URL verification challenges
// and message events, as JSON.
func (h *WebhookHandlers) EventsHandler(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	ev, err := domain.ParseEventCallback(body)
	if err != nil {
		h.rejectUnparsable(w, requestID, ev, err, "invalid event payload")
		return
	}

	h.routeAndRespond(w, r, requestID, ev)
}

// InteractionsHandler receives interactive button/select actions. Slack posts
// these form-encoded with the JSON payload under the `payload` field.
func (h *WebhookHandlers) InteractionsHandler(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, "cannot parse form body")
		return
	}

	ev, err := domain.ParseInteraction([]byte(r.PostForm.Get("payload")))
	if err != nil {
		h.rejectUnparsable(w, requestID, ev, err, "invalid interaction payload")
		return
	}

	// Verify the token before consuming rate-limit quota, so requests without
	// the credential cannot burn a real user's window.
	if err := h.router.VerifyToken(ev.Token); err != nil {
		log.Warn().Str("component", "api").Str("request_id", requestID).
			Str("user_id", ev.UserID).Msg("rejected interaction with bad token")
		h.writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	if h.limiter != nil && h.interactionLimit > 0 {
		count, retryAfter, err := h.limiter.ConsumeRateLimit(r.Context(), "interaction", ev.UserID, h.interactionLimit, time.Minute)
		if err != nil {
			// Limiter trouble must not take the bot down; log and continue.
			log.Warn().Str("component", "api").Str("request_id", requestID).Err(err).Msg("rate limiter unavailable")
		} else if count > h.interactionLimit {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			h.writeError(w, http.StatusTooManyRequests, "too many actions, slow down")
			return
		}
	}

	h.routeAndRespond(w, r, requestID, ev)
}

// CommandsHandler receives slash command invocations, form-encoded.
func (h *WebhookHandlers) CommandsHandler(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, "cannot parse form body")
		return
	}

	ev, err := domain.ParseSlashCommand(r.PostForm)
	if err != nil {
		h.rejectUnparsable(w, requestID, ev, err, "invalid command payload")
		return
	}

	h.routeAndRespond(w, r, requestID, ev)
}

// rejectUnparsable reports a payload that failed structural validation. The
// token carried out of the parser still decides the status: a wrong token is
// reported as 401 even when the payload is also malformed.
func (h *WebhookHandlers) rejectUnparsable(w http.ResponseWriter, requestID string, ev domain.InboundEvent, parseErr error, message string) {
	if err := h.router.VerifyToken(ev.Token); err != nil {
		log.Warn().Str("component", "api").Str("request_id", requestID).Err(parseErr).Msg("rejected payload with bad token")
		h.writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}
	log.Warn().Str("component", "api").Str("request_id", requestID).Err(parseErr).Msg("rejected malformed payload")
	h.writeError(w, http.StatusBadRequest, message)
}

// routeAndRespond runs one event through the router and executes the
// resulting action. Store failures suppress the outbound action and surface
// as the mapped HTTP status; the end user never sees them.
func (h *WebhookHandlers) routeAndRespond(w http.ResponseWriter, r *http.Request, requestID string, ev domain.InboundEvent) {
	action, err := h.router.Route(r.Context(), ev)
	if err != nil {
		status := routeErrorStatus(err)
		if status >= http.StatusInternalServerError {
			log.Error().Str("component", "api").Str("request_id", requestID).
				Str("user_id", ev.UserID).Err(err).Msg("event processing failed")
		} else {
			log.Warn().Str("component", "api").Str("request_id", requestID).
				Str("user_id", ev.UserID).Err(err).Msg("event rejected")
		}
		h.writeError(w, status, http.StatusText(status))
		return
	}

	switch action.Kind {
	case domain.ActionReplyChallenge:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"challenge": action.Challenge})
		return
	case domain.ActionPostMessage:
		err = h.messenger.PostMessage(r.Context(), action.ChannelID, action.Text, action.Attachments)
	case domain.ActionUpdateMessage:
		err = h.messenger.UpdateMessage(r.Context(), action.ChannelID, action.Timestamp, action.Text, action.Attachments)
	case domain.ActionNone:
		// Nothing to deliver.
	}

	if err != nil {
		log.Error().Str("component", "api").Str("request_id", requestID).
			Str("user_id", ev.UserID).Err(err).Msg("outbound delivery failed")
		h.writeError(w, http.StatusInternalServerError, "message delivery failed")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// routeErrorStatus maps the routing error taxonomy onto HTTP statuses: the
// token check maps to 401, malformed payloads and invalid interactive values
// to 400, and a missing user record at the questionnaire stage to 500 since a
// record must exist by then.
func routeErrorStatus(err error) int {
	switch {
	case errors.Is(err, app.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrMalformedEvent),
		errors.Is(err, app.ErrInvalidQuestion),
		errors.Is(err, app.ErrInvalidAnswer):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrUserNotFound):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (h *WebhookHandlers) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
