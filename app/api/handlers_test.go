package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/feedgram/feedgram/app/bot"
	"github.com/feedgram/feedgram/app/database"
	"github.com/feedgram/feedgram/app/tasks"
)

type fakeScheduler struct {
	cycles int
	err    error
}

func (s *fakeScheduler) Start()                                {}
func (s *fakeScheduler) Stop()                                 {}
func (s *fakeScheduler) EnqueueTask(tasks.TaskInterface) error { return nil }
func (s *fakeScheduler) EnqueueFullCycle() error {
	s.cycles++
	return s.err
}

func newTestServer(t *testing.T, webhookSecret string) (http.Handler, *fakeScheduler) {
	t.Helper()

	db, err := database.NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	channelRepo := database.NewChannelRepository(db)
	itemRepo := database.NewItemRepository(db)
	accountRepo := database.NewAccountConfigRepository(db)

	botHandler := bot.NewHandler(nil, channelRepo, itemRepo, accountRepo, nil, nil, "", "")
	scheduler := &fakeScheduler{}
	handler := NewHandler(channelRepo, itemRepo, scheduler, botHandler, webhookSecret)

	return NewServer(handler, "test-key"), scheduler
}

func TestWebhookAlwaysReturnsOK(t *testing.T) {
	srv, _ := newTestServer(t, "")

	tests := []struct {
		name string
		body string
	}{
		{"empty update", `{}`},
		{"unrelated message", `{"update_id":1,"message":{"chat":{"id":1},"text":"hello"}}`},
		{"malformed json", `{"update_id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/telegram/webhook", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("Expected 200, got %d", w.Code)
			}
		})
	}
}

func TestWebhookSecretCheck(t *testing.T) {
	srv, _ := newTestServer(t, "s3cret")

	req := httptest.NewRequest("POST", "/telegram/webhook", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 without secret header, got %d", w.Code)
	}

	req = httptest.NewRequest("POST", "/telegram/webhook", strings.NewReader(`{}`))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "s3cret")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with correct secret, got %d", w.Code)
	}
}

func TestTriggerPollRequiresAPIKey(t *testing.T) {
	srv, scheduler := newTestServer(t, "")

	req := httptest.NewRequest("POST", "/api/poll", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", w.Code)
	}
	if scheduler.cycles != 0 {
		t.Errorf("Expected no cycle enqueued, got %d", scheduler.cycles)
	}

	req = httptest.NewRequest("POST", "/api/poll", nil)
	req.Header.Set("X-API-Key", "test-key")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Errorf("Expected 202 with key, got %d", w.Code)
	}
	if scheduler.cycles != 1 {
		t.Errorf("Expected 1 cycle enqueued, got %d", scheduler.cycles)
	}
}

func TestTriggerPollBearerAuth(t *testing.T) {
	srv, scheduler := newTestServer(t, "")

	req := httptest.NewRequest("POST", "/api/poll", nil)
	req.Header.Set("Authorization", "Bearer test-key")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("Expected 202 with bearer token, got %d", w.Code)
	}
	if scheduler.cycles != 1 {
		t.Errorf("Expected 1 cycle enqueued, got %d", scheduler.cycles)
	}
}

func TestListChannels(t *testing.T) {
	srv, _ := newTestServer(t, "")

	req := httptest.NewRequest("GET", "/api/channels", nil)
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"total":0`) {
		t.Errorf("Expected empty channel list, got %s", w.Body.String())
	}
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t, "")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"channels":0`) {
		t.Errorf("Expected channel count in health payload, got %s", w.Body.String())
	}
}
