/**
 * @description
 * This package provides a client for the Slack Web API methods the bot needs:
 * chat.postMessage to send a new message and chat.update to edit an existing
 * one. It encapsulates the logic for making authenticated HTTP requests,
 * request body construction, and response parsing.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 * - internal/domain: For the attachment payload types.
 */

package slackclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmickey/slack-health-bot/internal/domain"
)

// DefaultBaseURL is the production Slack Web API endpoint.
const DefaultBaseURL = "https://slack.com/api"

// Client is a client for the Slack Web API.
type Client struct {
	BaseURL    string
	BotToken   string
	HTTPClient *http.Client
}

// NewClient creates a new Slack API client. An empty baseURL selects the
// production endpoint.
func NewClient(baseURL, botToken string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:  baseURL,
		BotToken: botToken,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// postMessageRequest is the payload for chat.postMessage.
type postMessageRequest struct {
	Channel     string              `json:"channel"`
	Text        string              `json:"text,omitempty"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
	AsUser      bool                `json:"as_user"`
}

// updateMessageRequest is the payload for chat.update. Attachments are always
// serialized so an empty set clears the interactive controls of the original
// message.
type updateMessageRequest struct {
	Channel     string              `json:"channel"`
	Timestamp   string              `json:"ts"`
	Text        string              `json:"text,omitempty"`
	Attachments []domain.Attachment `json:"attachments"`
	AsUser      bool                `json:"as_user"`
}

// apiResponse is the envelope every Slack Web API method returns.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// APIError represents an error reported by the Slack API.
type APIError struct {
	Method string
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack api error: %s - %s", e.Method, e.Code)
}

// PostMessage sends a new message to a channel.
func (c *Client) PostMessage(ctx context.Context, channelID, text string, attachments []domain.Attachment) error {
	return c.call(ctx, "chat.postMessage", postMessageRequest{
		Channel:     channelID,
		Text:        text,
		Attachments: attachments,
		AsUser:      true,
	})
}

// UpdateMessage edits an existing message identified by channel and timestamp.
func (c *Client) UpdateMessage(ctx context.Context, channelID, timestamp, text string, attachments []domain.Attachment) error {
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	return c.call(ctx, "chat.update", updateMessageRequest{
		Channel:     channelID,
		Timestamp:   timestamp,
		Text:        text,
		Attachments: attachments,
		AsUser:      true,
	})
}

func (c *Client) call(ctx context.Context, method string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/"+method, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.BotToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack api %s returned status %d", method, resp.StatusCode)
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !parsed.OK {
		return &APIError{Method: method, Code: parsed.Error}
	}

	return nil
}
