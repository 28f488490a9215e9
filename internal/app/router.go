/**
 * @description
 * This file contains the event router: pure classification and dispatch of
 * parsed inbound events. The router verifies the shared verification token
 * before any other interpretation, answers URL verification challenges
 * immediately, and otherwise delegates to the onboarding flow or the
 * questionnaire engine.
 *
 * @dependencies
 * - context, crypto/subtle, fmt: Standard Go libraries.
 * - internal/domain: The tagged event and action variants.
 */

package app

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/jmickey/slack-health-bot/internal/domain"
)

// Router classifies inbound events and dispatches them to the right flow. It
// holds no per-event state.
type Router struct {
	verificationToken string
	onboarding        *Onboarding
	engine            *Engine
}

// NewRouter creates a new event router instance.
func NewRouter(verificationToken string, onboarding *Onboarding, engine *Engine) *Router {
	return &Router{
		verificationToken: verificationToken,
		onboarding:        onboarding,
		engine:            engine,
	}
}

// VerifyToken compares the supplied token against the shared verification
// token in constant time. It returns ErrUnauthorized on mismatch.
func (r *Router) VerifyToken(token string) error {
	if subtle.ConstantTimeCompare([]byte(token), []byte(r.verificationToken)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Route processes one inbound event and returns the outbound action the
// caller should execute. The token check happens before challenge handling
// and classification.
func (r *Router) Route(ctx context.Context, ev domain.InboundEvent) (domain.OutboundAction, error) {
	if err := r.VerifyToken(ev.Token); err != nil {
		return domain.NoAction(), err
	}

	switch ev.Type {
	case domain.EventChallenge:
		return domain.ReplyChallenge(ev.Challenge), nil
	case domain.EventMessage:
		return r.onboarding.HandleIncomingMessage(ctx, ev)
	case domain.EventInteraction:
		return r.engine.SubmitAnswer(ctx, ev)
	case domain.EventCommand:
		return r.onboarding.HandleNameSubmission(ctx, ev)
	default:
		return domain.NoAction(), fmt.Errorf("%w: unknown event type %q", domain.ErrMalformedEvent, ev.Type)
	}
}
