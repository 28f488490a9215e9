/**
 * @description
 * This file contains the questionnaire engine: the state machine that
 * advances a user through the catalog one answer at a time. Interactive
 * action submissions land here after the event router has classified them.
 *
 * Key features:
 * - Answer writes are idempotent per question key, so duplicate deliveries of
 *   the same action are safe.
 * - The position advance is keyed by the resolved question index rather than
 *   the record's prior state, making replays last-write-wins.
 * - Answering the final question marks the record complete and publishes a
 *   questionnaire.completed event for the downstream scoring pipeline.
 *
 * @dependencies
 * - context, fmt, strconv, time: Standard Go libraries.
 * - github.com/google/uuid: Event ids on published completion events.
 * - github.com/rs/zerolog/log: Structured logging.
 * - internal/domain, internal/store, pkg/rabbitmq: Models, data access, and
 *   the completion event producer.
 */

package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jmickey/slack-health-bot/internal/domain"
	"github.com/jmickey/slack-health-bot/internal/store"
	"github.com/jmickey/slack-health-bot/pkg/rabbitmq"
)

const completionText = "That's everything! Thanks for completing the questionnaire. We'll be in touch with your results."

// Engine advances users through the questionnaire catalog.
type Engine struct {
	repo     store.Repository
	catalog  *Catalog
	producer rabbitmq.Publisher
}

// NewEngine creates a new questionnaire engine instance.
func NewEngine(repo store.Repository, catalog *Catalog, producer rabbitmq.Publisher) *Engine {
	return &Engine{repo: repo, catalog: catalog, producer: producer}
}

// SubmitAnswer validates and records one answer, then returns the message
// update that replaces the answered question card: either the next question
// or the completion text with all interactive controls cleared.
func (e *Engine) SubmitAnswer(ctx context.Context, ev domain.InboundEvent) (domain.OutboundAction, error) {
	position, ok := e.catalog.IndexOf(ev.QuestionKey)
	if !ok {
		return domain.NoAction(), fmt.Errorf("%w: %q", ErrInvalidQuestion, ev.QuestionKey)
	}

	value, err := strconv.Atoi(ev.AnswerValue)
	if err != nil {
		return domain.NoAction(), fmt.Errorf("%w: %q", ErrInvalidAnswer, ev.AnswerValue)
	}

	// A record is expected to exist by the time a question card is answered;
	// a miss here surfaces as a server-side error.
	record, err := e.repo.FindUserByID(ctx, ev.UserID)
	if err != nil {
		return domain.NoAction(), fmt.Errorf("find user %s: %w", ev.UserID, err)
	}

	if err := e.repo.SaveAnswer(ctx, ev.UserID, ev.QuestionKey, value); err != nil {
		return domain.NoAction(), fmt.Errorf("save answer %s for user %s: %w", ev.QuestionKey, ev.UserID, err)
	}
	record.Answers[ev.QuestionKey] = value

	if e.catalog.IsLastIndex(position) {
		if err := e.repo.UpdateCurrentQuestion(ctx, ev.UserID, domain.QuestionnaireComplete); err != nil {
			return domain.NoAction(), fmt.Errorf("mark user %s complete: %w", ev.UserID, err)
		}
		e.publishCompletion(ctx, record)
		return domain.UpdateMessage(ev.ChannelID, ev.MessageTS, completionText, []domain.Attachment{}), nil
	}

	next := position + 1
	if err := e.repo.UpdateCurrentQuestion(ctx, ev.UserID, next); err != nil {
		return domain.NoAction(), fmt.Errorf("advance user %s: %w", ev.UserID, err)
	}

	question, err := e.catalog.QuestionAt(next)
	if err != nil {
		return domain.NoAction(), fmt.Errorf("question at %d: %w", next, err)
	}
	return domain.UpdateMessage(ev.ChannelID, ev.MessageTS, e.catalog.questionNumberPrefix(next), question.Attachments), nil
}

// publishCompletion emits the questionnaire.completed event. Publish failures
// are logged and do not fail the user's interaction; the completed record in
// the store remains the source of truth.
func (e *Engine) publishCompletion(ctx context.Context, record *domain.UserRecord) {
	event := rabbitmq.QuestionnaireCompletedEvent{
		EventID:     uuid.NewString(),
		UserID:      record.UserID,
		FullName:    record.FullName,
		Answers:     record.Answers,
		CompletedAt: time.Now().UTC(),
	}

	if err := e.producer.PublishQuestionnaireCompleted(ctx, event); err != nil {
		log.Warn().Str("component", "engine").Str("user_id", record.UserID).Err(err).
			Msg("failed to publish questionnaire completion event")
		return
	}

	log.Info().Str("component", "engine").Str("user_id", record.UserID).
		Str("event_id", event.EventID).Msg("questionnaire completed")
}
