package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.Client(), "Test Agent", srv.URL)
	err := c.SendMessage(context.Background(), "token123", "42", "<b>hello</b>", true)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if gotPath != "/bottoken123/sendMessage" {
		t.Errorf("Unexpected path: %s", gotPath)
	}
	if gotBody.ChatID != "42" {
		t.Errorf("Expected chat id '42', got: %s", gotBody.ChatID)
	}
	if gotBody.Text != "<b>hello</b>" {
		t.Errorf("Unexpected text: %s", gotBody.Text)
	}
	if gotBody.ParseMode != "HTML" {
		t.Errorf("Expected HTML parse mode, got: %s", gotBody.ParseMode)
	}
}

func TestSendMessageErrorCarriesResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.Client(), "Test Agent", srv.URL)
	err := c.SendMessage(context.Background(), "token123", "42", "hello", false)
	if err == nil {
		t.Fatal("Expected error for HTTP 400")
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("Expected response body in error, got: %v", err)
	}
}

func TestSetWebhook(t *testing.T) {
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/setWebhook") {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.Client(), "Test Agent", srv.URL)
	err := c.SetWebhook(context.Background(), "token123", "https://example.com/telegram/webhook", "s3cret")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if gotBody["url"] != "https://example.com/telegram/webhook" {
		t.Errorf("Unexpected webhook url: %s", gotBody["url"])
	}
	if gotBody["secret_token"] != "s3cret" {
		t.Errorf("Unexpected secret token: %s", gotBody["secret_token"])
	}
}

func TestUpdateUnmarshal(t *testing.T) {
	payload := `{
		"update_id": 7,
		"message": {
			"message_id": 100,
			"from": {"id": 1, "username": "alice"},
			"chat": {"id": 42},
			"text": "total",
			"reply_to_message": {
				"message_id": 99,
				"chat": {"id": 42},
				"text": "🎬 New video\nhttps://www.youtube.com/watch?v=abc"
			}
		}
	}`

	var upd Update
	if err := json.Unmarshal([]byte(payload), &upd); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if upd.Message == nil || upd.Message.ReplyToMessage == nil {
		t.Fatal("Expected message with reply")
	}
	if upd.Message.Chat.ID != 42 {
		t.Errorf("Expected chat id 42, got: %d", upd.Message.Chat.ID)
	}
	if !strings.Contains(upd.Message.ReplyToMessage.Text, "youtube.com/watch") {
		t.Errorf("Unexpected parent text: %s", upd.Message.ReplyToMessage.Text)
	}
}
