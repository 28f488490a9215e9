package slackclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmickey/slack-health-bot/internal/domain"
)

func TestPostMessageSendsAuthorizedRequest(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	client := NewClient(server.URL, "xoxb-test")
	err := client.PostMessage(context.Background(), "D1", "hello", []domain.Attachment{{CallbackID: "q1"}})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if gotPath != "/chat.postMessage" {
		t.Fatalf("expected chat.postMessage, got %q", gotPath)
	}
	if gotAuth != "Bearer xoxb-test" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotBody["channel"] != "D1" || gotBody["text"] != "hello" {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestUpdateMessageAlwaysSerializesAttachments(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	client := NewClient(server.URL, "xoxb-test")
	if err := client.UpdateMessage(context.Background(), "D1", "123.456", "done", nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	attachments, present := gotBody["attachments"]
	if !present {
		t.Fatal("expected attachments field to be present so controls are cleared")
	}
	if list, ok := attachments.([]any); !ok || len(list) != 0 {
		t.Fatalf("expected empty attachments array, got %+v", attachments)
	}
	if gotBody["ts"] != "123.456" {
		t.Fatalf("expected target timestamp, got %+v", gotBody["ts"])
	}
}

func TestCallReturnsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "xoxb-test")
	err := client.PostMessage(context.Background(), "nope", "hello", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "channel_not_found" {
		t.Fatalf("expected channel_not_found, got %q", apiErr.Code)
	}
}

func TestCallRejectsNon200Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "xoxb-test")
	if err := client.PostMessage(context.Background(), "D1", "hello", nil); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
