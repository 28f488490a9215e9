/**
 * @description
 * This file defines the Go structs that model the inbound webhook payloads
 * from Slack, and the parsers that convert raw transport payloads into the
 * tagged InboundEvent variant exactly once at the boundary. Downstream code
 * never inspects raw payload maps again.
 *
 * @notes
 * - Three transport shapes exist: JSON event callbacks (URL verification
 *   challenges and message events), form-encoded interactive actions (JSON
 *   nested under the `payload` field), and form-encoded slash commands.
 * - Parsers validate structure only; token verification belongs to the
 *   event router. The partially-populated event returned alongside a
 *   structural error still carries the token, so callers can run the
 *   credential check before reporting the payload as malformed.
 */

package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

// ErrMalformedEvent indicates an inbound payload that does not match any of
// the expected event shapes.
var ErrMalformedEvent = errors.New("malformed event payload")

// EventType tags the InboundEvent variant.
type EventType string

const (
	EventChallenge   EventType = "challenge"
	EventMessage     EventType = "message"
	EventInteraction EventType = "interaction"
	EventCommand     EventType = "command"
)

// InboundEvent is the tagged variant handed to the event router. Only the
// fields relevant to the tagged Type are populated.
type InboundEvent struct {
	Type  EventType
	Token string

	// EventChallenge
	Challenge string

	// EventMessage
	UserID    string
	ChannelID string
	Text      string
	IsBot     bool
	Subtype   string

	// EventInteraction
	QuestionKey string
	MessageTS   string
	AnswerValue string
}

type eventCallbackPayload struct {
	Token     string `json:"token"`
	Challenge string `json:"challenge"`
	Event     *struct {
		Type    string `json:"type"`
		User    string `json:"user"`
		Channel string `json:"channel"`
		Text    string `json:"text"`
		BotID   string `json:"bot_id"`
		Subtype string `json:"subtype"`
	} `json:"event"`
}

// ParseEventCallback parses the JSON body posted to the events endpoint into
// either a Challenge or a Message event.
func ParseEventCallback(body []byte) (InboundEvent, error) {
	var payload eventCallbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return InboundEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if payload.Challenge != "" {
		return InboundEvent{
			Type:      EventChallenge,
			Token:     payload.Token,
			Challenge: payload.Challenge,
		}, nil
	}

	if payload.Event == nil || payload.Event.User == "" || payload.Event.Channel == "" {
		return InboundEvent{Token: payload.Token}, fmt.Errorf("%w: missing event details", ErrMalformedEvent)
	}

	return InboundEvent{
		Type:      EventMessage,
		Token:     payload.Token,
		UserID:    payload.Event.User,
		ChannelID: payload.Event.Channel,
		Text:      payload.Event.Text,
		IsBot:     payload.Event.BotID != "",
		Subtype:   payload.Event.Subtype,
	}, nil
}

type interactionPayload struct {
	Token      string `json:"token"`
	CallbackID string `json:"callback_id"`
	User       struct {
		ID string `json:"id"`
	} `json:"user"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
	MessageTS string `json:"message_ts"`
	Actions   []struct {
		Type            string `json:"type"`
		Value           string `json:"value"`
		SelectedOptions []struct {
			Value string `json:"value"`
		} `json:"selected_options"`
	} `json:"actions"`
}

// ParseInteraction parses the JSON carried in the `payload` form field of an
// interactive action. The submitted answer value is normalized here: buttons
// carry it directly, select menus nest it in the chosen option.
func ParseInteraction(payload []byte) (InboundEvent, error) {
	var p interactionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return InboundEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if p.CallbackID == "" || p.User.ID == "" || len(p.Actions) == 0 {
		return InboundEvent{Token: p.Token}, fmt.Errorf("%w: missing interaction details", ErrMalformedEvent)
	}

	action := p.Actions[0]
	value := action.Value
	if action.Type == string(AnswerKindSelect) {
		if len(action.SelectedOptions) == 0 {
			return InboundEvent{Token: p.Token}, fmt.Errorf("%w: select action without selected option", ErrMalformedEvent)
		}
		value = action.SelectedOptions[0].Value
	}

	return InboundEvent{
		Type:        EventInteraction,
		Token:       p.Token,
		UserID:      p.User.ID,
		ChannelID:   p.Channel.ID,
		QuestionKey: p.CallbackID,
		MessageTS:   p.MessageTS,
		AnswerValue: value,
	}, nil
}

// ParseSlashCommand converts the form values of a slash command invocation.
func ParseSlashCommand(form url.Values) (InboundEvent, error) {
	userID := form.Get("user_id")
	channelID := form.Get("channel_id")
	if userID == "" || channelID == "" {
		return InboundEvent{Token: form.Get("token")}, fmt.Errorf("%w: missing command details", ErrMalformedEvent)
	}

	return InboundEvent{
		Type:      EventCommand,
		Token:     form.Get("token"),
		UserID:    userID,
		ChannelID: channelID,
		Text:      form.Get("text"),
	}, nil
}
