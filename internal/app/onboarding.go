/**
 * @description
 * This file contains the onboarding flow: the logic that gates questionnaire
 * access behind name collection. It decides whether an incoming direct
 * message should trigger the welcome prompt, a name reprompt, or the first
 * question, and it handles the slash-command name submission.
 *
 * @dependencies
 * - context, errors, fmt, strings: Standard Go libraries.
 * - github.com/rs/zerolog/log: Structured logging.
 * - internal/domain, internal/store: For domain models and data access.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jmickey/slack-health-bot/internal/domain"
	"github.com/jmickey/slack-health-bot/internal/store"
)

const (
	welcomeText = "Hi, I'm Dr Gut :wave: I'd like to ask you a few quick questions about your gut health.\n" +
		"Before we start, what's your full name? Set it with `/myname Your Name`."
	namePromptText = "I still need your full name before we can start. Set it with `/myname Your Name`."
	nameUsageText  = "That didn't look like a name. Usage: `/myname Your Name`."
	nameFailedText = "Failed"
)

// subtypeMessageChanged marks Slack edit notifications, which must be ignored
// alongside bot echoes to avoid reply loops.
const subtypeMessageChanged = "message_changed"

// Onboarding gates questionnaire access behind identity collection.
type Onboarding struct {
	repo    store.Repository
	catalog *Catalog
}

// NewOnboarding creates a new onboarding flow instance.
func NewOnboarding(repo store.Repository, catalog *Catalog) *Onboarding {
	return &Onboarding{repo: repo, catalog: catalog}
}

// HandleIncomingMessage processes a plain message event from a user. Bot
// echoes and edit notifications yield no action; an unseen user gets the
// welcome prompt; a user without a name gets the reprompt; everyone else gets
// the first question. Any plain message after onboarding restarts the
// questionnaire at question zero.
func (o *Onboarding) HandleIncomingMessage(ctx context.Context, ev domain.InboundEvent) (domain.OutboundAction, error) {
	if ev.IsBot || ev.Subtype == subtypeMessageChanged {
		return domain.NoAction(), nil
	}

	record, err := o.repo.FindUserByID(ctx, ev.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			return domain.NoAction(), fmt.Errorf("find user %s: %w", ev.UserID, err)
		}

		record = domain.NewUserRecord(ev.UserID)
		if err := o.repo.CreateUser(ctx, record); err != nil {
			return domain.NoAction(), fmt.Errorf("create user %s: %w", ev.UserID, err)
		}
		log.Info().Str("component", "onboarding").Str("user_id", ev.UserID).Msg("new user registered")
		return domain.PostMessage(ev.ChannelID, welcomeText, nil), nil
	}

	if record.NeedsName {
		return domain.PostMessage(ev.ChannelID, namePromptText, nil), nil
	}

	if record.Completed() {
		log.Info().Str("component", "onboarding").Str("user_id", ev.UserID).Msg("questionnaire restarted")
	}

	first, err := o.catalog.QuestionAt(0)
	if err != nil {
		return domain.NoAction(), fmt.Errorf("first question: %w", err)
	}
	return domain.PostMessage(ev.ChannelID, o.catalog.questionNumberPrefix(0), first.Attachments), nil
}

// HandleNameSubmission records the name supplied via the slash command and
// confirms it. A submission for a user with no record is a caller error and
// surfaces store.ErrUserNotFound rather than silently creating a record.
func (o *Onboarding) HandleNameSubmission(ctx context.Context, ev domain.InboundEvent) (domain.OutboundAction, error) {
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		return domain.PostMessage(ev.ChannelID, nameUsageText, nil), nil
	}

	if err := o.repo.UpdateUserName(ctx, ev.UserID, name); err != nil {
		return domain.NoAction(), fmt.Errorf("update name for user %s: %w", ev.UserID, err)
	}

	// Re-read to verify the write landed; a mismatch is surfaced to the user
	// rather than silently dropped.
	record, err := o.repo.FindUserByID(ctx, ev.UserID)
	if err != nil {
		return domain.NoAction(), fmt.Errorf("re-read user %s: %w", ev.UserID, err)
	}
	if record.FullName != name {
		log.Error().Str("component", "onboarding").Str("user_id", ev.UserID).
			Str("expected", name).Str("stored", record.FullName).
			Msg("name write verification mismatch")
		return domain.PostMessage(ev.ChannelID, nameFailedText, nil), nil
	}

	confirmation := fmt.Sprintf("Thanks, %s! Send me any message when you're ready to start the questionnaire.", name)
	return domain.PostMessage(ev.ChannelID, confirmation, nil), nil
}
