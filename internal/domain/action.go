package domain

// ActionKind tags the OutboundAction variant produced by the core.
type ActionKind string

const (
	ActionNone           ActionKind = "none"
	ActionReplyChallenge ActionKind = "reply_challenge"
	ActionPostMessage    ActionKind = "post_message"
	ActionUpdateMessage  ActionKind = "update_message"
)

// OutboundAction describes what the caller should do with the chat platform
// after an event has been processed. The core only produces these; the api
// layer executes them against the messaging client.
type OutboundAction struct {
	Kind        ActionKind
	Challenge   string
	ChannelID   string
	Timestamp   string
	Text        string
	Attachments []Attachment
}

// NoAction is returned for events the bot deliberately ignores.
func NoAction() OutboundAction {
	return OutboundAction{Kind: ActionNone}
}

// ReplyChallenge echoes a URL verification challenge back to the platform.
func ReplyChallenge(challenge string) OutboundAction {
	return OutboundAction{Kind: ActionReplyChallenge, Challenge: challenge}
}

// PostMessage sends a new message to a channel.
func PostMessage(channelID, text string, attachments []Attachment) OutboundAction {
	return OutboundAction{
		Kind:        ActionPostMessage,
		ChannelID:   channelID,
		Text:        text,
		Attachments: attachments,
	}
}

// UpdateMessage edits an existing message identified by its timestamp.
// Attachments may be empty, which clears any interactive controls from the
// original message.
func UpdateMessage(channelID, timestamp, text string, attachments []Attachment) OutboundAction {
	return OutboundAction{
		Kind:        ActionUpdateMessage,
		ChannelID:   channelID,
		Timestamp:   timestamp,
		Text:        text,
		Attachments: attachments,
	}
}
