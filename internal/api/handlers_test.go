package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jmickey/slack-health-bot/internal/app"
	"github.com/jmickey/slack-health-bot/internal/domain"
	"github.com/jmickey/slack-health-bot/internal/store"
	"github.com/jmickey/slack-health-bot/pkg/rabbitmq"
)

type apiRepoStub struct {
	store.Repository

	record *domain.UserRecord

	createCalled    bool
	savedAnswers    map[string]int
	currentQuestion *int
}

func (s *apiRepoStub) FindUserByID(ctx context.Context, userID string) (*domain.UserRecord, error) {
	if s.record == nil {
		return nil, store.ErrUserNotFound
	}
	rec := *s.record
	rec.Answers = map[string]int{}
	return &rec, nil
}

func (s *apiRepoStub) CreateUser(ctx context.Context, record *domain.UserRecord) error {
	s.createCalled = true
	s.record = record
	return nil
}

func (s *apiRepoStub) UpdateUserName(ctx context.Context, userID string, fullName string) error {
	if s.record == nil {
		return store.ErrUserNotFound
	}
	s.record.FullName = fullName
	s.record.NeedsName = false
	return nil
}

func (s *apiRepoStub) SaveAnswer(ctx context.Context, userID string, questionKey string, value int) error {
	if s.savedAnswers == nil {
		s.savedAnswers = map[string]int{}
	}
	s.savedAnswers[questionKey] = value
	return nil
}

func (s *apiRepoStub) UpdateCurrentQuestion(ctx context.Context, userID string, position int) error {
	s.currentQuestion = &position
	return nil
}

type messengerStub struct {
	posts   []string
	updates []string
	err     error
}

func (m *messengerStub) PostMessage(ctx context.Context, channelID, text string, attachments []domain.Attachment) error {
	if m.err != nil {
		return m.err
	}
	m.posts = append(m.posts, text)
	return nil
}

func (m *messengerStub) UpdateMessage(ctx context.Context, channelID, timestamp, text string, attachments []domain.Attachment) error {
	if m.err != nil {
		return m.err
	}
	m.updates = append(m.updates, text)
	return nil
}

type limiterStub struct {
	count      int
	retryAfter int
	err        error

	calls int
}

func (l *limiterStub) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	l.calls++
	return l.count, l.retryAfter, l.err
}

func newTestHandler(t *testing.T, repo store.Repository, messenger Messenger, limiter RateLimiter) http.Handler {
	t.Helper()
	catalog, err := app.NewCatalog(app.DefaultQuestions())
	if err != nil {
		t.Fatalf("NewCatalog returned error: %v", err)
	}
	onboarding := app.NewOnboarding(repo, catalog)
	engine := app.NewEngine(repo, catalog, &rabbitmq.EventProducerFallback{})
	router := app.NewRouter("T", onboarding, engine)
	return Routes(NewWebhookHandlers(router, messenger, limiter, 5))
}

func TestEventsHandlerAnswersChallenge(t *testing.T) {
	handler := newTestHandler(t, &apiRepoStub{}, &messengerStub{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/slack/events",
		strings.NewReader(`{"token":"T","challenge":"abc"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["challenge"] != "abc" {
		t.Fatalf("expected challenge echoed, got %+v", body)
	}
}

func TestEventsHandlerRejectsBadToken(t *testing.T) {
	handler := newTestHandler(t, &apiRepoStub{}, &messengerStub{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/slack/events",
		strings.NewReader(`{"token":"wrong","challenge":"abc"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandlersCheckTokenBeforeStructure(t *testing.T) {
	badEventBody := strings.NewReader(`{"token":"wrong"}`)
	badInteractionForm := url.Values{"payload": {`{"token":"wrong"}`}}
	badCommandForm := url.Values{"token": {"wrong"}, "text": {"Jane Doe"}}

	for name, req := range map[string]*http.Request{
		"events":       httptest.NewRequest(http.MethodPost, "/slack/events", badEventBody),
		"interactions": formRequest("/slack/interactions", badInteractionForm),
		"commands":     formRequest("/slack/commands", badCommandForm),
	} {
		t.Run(name, func(t *testing.T) {
			handler := newTestHandler(t, &apiRepoStub{}, &messengerStub{}, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401 for bad token regardless of payload structure, got %d", rec.Code)
			}
		})
	}
}

func formRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestEventsHandlerRejectsMalformedBody(t *testing.T) {
	handler := newTestHandler(t, &apiRepoStub{}, &messengerStub{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(`{"token":"T"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEventsHandlerWelcomesNewUser(t *testing.T) {
	repo := &apiRepoStub{}
	messenger := &messengerStub{}
	handler := newTestHandler(t, repo, messenger, nil)

	req := httptest.NewRequest(http.MethodPost, "/slack/events",
		strings.NewReader(`{"token":"T","event":{"type":"message","user":"U1","channel":"D1","text":"hi"}}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !repo.createCalled {
		t.Fatal("expected record creation for unseen user")
	}
	if len(messenger.posts) != 1 {
		t.Fatalf("expected one posted message, got %d", len(messenger.posts))
	}
}

func TestInteractionsHandlerAdvancesQuestionnaire(t *testing.T) {
	repo := &apiRepoStub{record: &domain.UserRecord{UserID: "U1", FullName: "Jane Doe"}}
	messenger := &messengerStub{}
	handler := newTestHandler(t, repo, messenger, nil)

	payload := `{"token":"T","callback_id":"bowel_movements_normal","user":{"id":"U1"},` +
		`"channel":{"id":"D1"},"message_ts":"1503435956.000247",` +
		`"actions":[{"type":"button","value":"1"}]}`
	form := url.Values{"payload": {payload}}

	req := httptest.NewRequest(http.MethodPost, "/slack/interactions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", rec.Code, rec.Body.String())
	}
	if repo.savedAnswers["bowel_movements_normal"] != 1 {
		t.Fatalf("expected answer persisted, got %v", repo.savedAnswers)
	}
	if repo.currentQuestion == nil || *repo.currentQuestion != 1 {
		t.Fatalf("expected advance to question 1, got %v", repo.currentQuestion)
	}
	if len(messenger.updates) != 1 {
		t.Fatalf("expected one message update, got %d", len(messenger.updates))
	}
}

func TestInteractionsHandlerAppliesRateLimit(t *testing.T) {
	repo := &apiRepoStub{record: &domain.UserRecord{UserID: "U1", FullName: "Jane Doe"}}
	handler := newTestHandler(t, repo, &messengerStub{}, &limiterStub{count: 6, retryAfter: 30})

	payload := `{"token":"T","callback_id":"bowel_movements_normal","user":{"id":"U1"},` +
		`"channel":{"id":"D1"},"message_ts":"1","actions":[{"type":"button","value":"1"}]}`
	form := url.Values{"payload": {payload}}

	req := httptest.NewRequest(http.MethodPost, "/slack/interactions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "30" {
		t.Fatalf("expected Retry-After 30, got %q", rec.Header().Get("Retry-After"))
	}
	if repo.savedAnswers != nil {
		t.Fatal("rate-limited action must not mutate the store")
	}
}

func TestInteractionsHandlerSkipsLimiterForBadToken(t *testing.T) {
	limiter := &limiterStub{count: 1}
	handler := newTestHandler(t, &apiRepoStub{}, &messengerStub{}, limiter)

	payload := `{"token":"wrong","callback_id":"bowel_movements_normal","user":{"id":"U1"},` +
		`"channel":{"id":"D1"},"message_ts":"1","actions":[{"type":"button","value":"1"}]}`
	form := url.Values{"payload": {payload}}

	req := httptest.NewRequest(http.MethodPost, "/slack/interactions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if limiter.calls != 0 {
		t.Fatalf("expected no quota consumed for an unauthenticated request, got %d calls", limiter.calls)
	}
}

func TestInteractionsHandlerIgnoresLimiterFailure(t *testing.T) {
	repo := &apiRepoStub{record: &domain.UserRecord{UserID: "U1", FullName: "Jane Doe"}}
	handler := newTestHandler(t, repo, &messengerStub{}, &limiterStub{err: errors.New("redis down")})

	payload := `{"token":"T","callback_id":"bowel_movements_normal","user":{"id":"U1"},` +
		`"channel":{"id":"D1"},"message_ts":"1","actions":[{"type":"button","value":"1"}]}`
	form := url.Values{"payload": {payload}}

	req := httptest.NewRequest(http.MethodPost, "/slack/interactions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected limiter failure to be ignored, got %d", rec.Code)
	}
}

func TestInteractionsHandlerMapsMissingUserToServerError(t *testing.T) {
	handler := newTestHandler(t, &apiRepoStub{}, &messengerStub{}, nil)

	payload := `{"token":"T","callback_id":"bowel_movements_normal","user":{"id":"U1"},` +
		`"channel":{"id":"D1"},"message_ts":"1","actions":[{"type":"button","value":"1"}]}`
	form := url.Values{"payload": {payload}}

	req := httptest.NewRequest(http.MethodPost, "/slack/interactions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for missing record at questionnaire stage, got %d", rec.Code)
	}
}

func TestCommandsHandlerRecordsName(t *testing.T) {
	repo := &apiRepoStub{record: &domain.UserRecord{UserID: "U1", NeedsName: true}}
	messenger := &messengerStub{}
	handler := newTestHandler(t, repo, messenger, nil)

	form := url.Values{}
	form.Set("token", "T")
	form.Set("user_id", "U1")
	form.Set("channel_id", "D1")
	form.Set("text", "Jane Doe")

	req := httptest.NewRequest(http.MethodPost, "/slack/commands", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", rec.Code, rec.Body.String())
	}
	if len(messenger.posts) != 1 || !strings.Contains(messenger.posts[0], "Jane Doe") {
		t.Fatalf("expected confirmation post, got %v", messenger.posts)
	}
}

func TestDeliveryFailureSurfacesAsServerError(t *testing.T) {
	repo := &apiRepoStub{}
	handler := newTestHandler(t, repo, &messengerStub{err: errors.New("slack 500")}, nil)

	req := httptest.NewRequest(http.MethodPost, "/slack/events",
		strings.NewReader(`{"token":"T","event":{"type":"message","user":"U1","channel":"D1","text":"hi"}}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(t, &apiRepoStub{}, &messengerStub{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
