package app

import (
	"context"
	"errors"
	"testing"

	"github.com/jmickey/slack-health-bot/internal/domain"
)

func newTestRouter(t *testing.T) (*Router, *engineRepoStub) {
	t.Helper()
	catalog, err := NewCatalog(DefaultQuestions())
	if err != nil {
		t.Fatalf("NewCatalog returned error: %v", err)
	}
	repo := &engineRepoStub{record: onboardedRecord()}
	onboarding := NewOnboarding(repo, catalog)
	engine := NewEngine(repo, catalog, &producerStub{})
	return NewRouter("T", onboarding, engine), repo
}

func TestRouteRejectsTokenMismatchBeforeClassification(t *testing.T) {
	router, _ := newTestRouter(t)

	// Even a challenge payload is rejected when the token is wrong.
	ev := domain.InboundEvent{Type: domain.EventChallenge, Token: "wrong", Challenge: "abc"}
	if _, err := router.Route(context.Background(), ev); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerifyToken(t *testing.T) {
	router, _ := newTestRouter(t)

	if err := router.VerifyToken("T"); err != nil {
		t.Fatalf("expected matching token to verify, got %v", err)
	}
	if err := router.VerifyToken("wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRouteAnswersChallenge(t *testing.T) {
	router, _ := newTestRouter(t)

	ev := domain.InboundEvent{Type: domain.EventChallenge, Token: "T", Challenge: "abc"}
	action, err := router.Route(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if action.Kind != domain.ActionReplyChallenge || action.Challenge != "abc" {
		t.Fatalf("expected ReplyChallenge(abc), got %+v", action)
	}
}

func TestRouteDispatchesInteractionToEngine(t *testing.T) {
	router, repo := newTestRouter(t)

	ev := domain.InboundEvent{
		Type:        domain.EventInteraction,
		Token:       "T",
		UserID:      "U1",
		ChannelID:   "D1",
		QuestionKey: "bowel_movements_normal",
		MessageTS:   "1503435956.000247",
		AnswerValue: "1",
	}
	action, err := router.Route(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if action.Kind != domain.ActionUpdateMessage {
		t.Fatalf("expected UpdateMessage, got %s", action.Kind)
	}
	if repo.savedAnswers["bowel_movements_normal"] != 1 {
		t.Fatalf("expected answer recorded via router dispatch, got %v", repo.savedAnswers)
	}
	if repo.currentQuestion == nil || *repo.currentQuestion != 1 {
		t.Fatalf("expected position advanced to 1, got %v", repo.currentQuestion)
	}
}

func TestRouteDispatchesMessageToOnboarding(t *testing.T) {
	router, _ := newTestRouter(t)

	ev := domain.InboundEvent{
		Type:      domain.EventMessage,
		Token:     "T",
		UserID:    "U1",
		ChannelID: "D1",
		Text:      "hi",
	}
	action, err := router.Route(context.Background(), ev)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	// U1 is already onboarded in this fixture, so any plain message restarts
	// the questionnaire at the first question.
	if action.Kind != domain.ActionPostMessage {
		t.Fatalf("expected PostMessage, got %s", action.Kind)
	}
	if len(action.Attachments) == 0 || action.Attachments[0].CallbackID != "bowel_movements_normal" {
		t.Fatalf("expected first question, got %+v", action.Attachments)
	}
}

func TestRouteRejectsUnknownEventType(t *testing.T) {
	router, _ := newTestRouter(t)

	ev := domain.InboundEvent{Type: domain.EventType("mystery"), Token: "T"}
	if _, err := router.Route(context.Background(), ev); !errors.Is(err, domain.ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent, got %v", err)
	}
}
