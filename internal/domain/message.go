/**
 * @description
 * This file defines the Slack message attachment structures rendered by the
 * bot. The core treats a question's attachment set as an opaque payload: it is
 * built once when the catalog is assembled and passed through unmodified to
 * the messaging client.
 *
 * @notes
 * - The shapes follow Slack's legacy interactive attachments API
 *   (callback_id + actions), which is the scheme the verification-token
 *   webhook model pairs with.
 */

package domain

// Attachment is a Slack message attachment carrying interactive controls.
type Attachment struct {
	Text       string       `json:"text,omitempty"`
	Fallback   string       `json:"fallback,omitempty"`
	CallbackID string       `json:"callback_id,omitempty"`
	Color      string       `json:"color,omitempty"`
	Actions    []ActionItem `json:"actions,omitempty"`
}

// ActionItem is a single button or select menu inside an attachment.
type ActionItem struct {
	Name    string         `json:"name"`
	Text    string         `json:"text"`
	Type    string         `json:"type"`
	Value   string         `json:"value,omitempty"`
	Options []ActionOption `json:"options,omitempty"`
}

// ActionOption is one entry of a select menu.
type ActionOption struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}
