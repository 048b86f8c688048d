package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boden-crm/inbox-service/internal/media"
	conversationRepo "github.com/boden-crm/inbox-service/internal/repository/conversation"
	"github.com/boden-crm/inbox-service/internal/service"
	memoryStorage "github.com/boden-crm/inbox-service/internal/storage/memory"
	"github.com/gin-gonic/gin"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := conversationRepo.NewConversationRepository(memoryStorage.NewMemoryKV())
	inbox := service.NewInboxService(repo, logger)

	maxRetry := 1
	resolver, err := media.NewResolver(logger, "https://app.builderbot.cloud", "", "", &maxRetry)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	return NewHTTPHandler(":0", inbox, resolver, []string{"http://localhost:3000"}, logger)
}

func doRequest(h *Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.server.Handler.ServeHTTP(w, req)
	return w
}

func TestWebhookRequiresEventName(t *testing.T) {
	h := newTestHandler(t)

	w := doRequest(h, http.MethodPost, "/webhooks/builderbot", `{"data":{"body":"Hola"}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestWebhookAcknowledgesUnhandledEvent(t *testing.T) {
	h := newTestHandler(t)

	w := doRequest(h, http.MethodPost, "/webhooks/builderbot", `{"eventName":"message.calling","data":{"from":"+5491133788190"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	conversations := doRequest(h, http.MethodGet, "/api/whatsapp/conversations", "")
	var list []map[string]any
	if err := json.Unmarshal(conversations.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode conversations: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("got %d conversations, want 0", len(list))
	}
}

func TestWebhookIngestsAndReadsBack(t *testing.T) {
	h := newTestHandler(t)

	w := doRequest(h, http.MethodPost, "/webhooks/events",
		`{"eventName":"message.incoming","data":{"from":"+5491133788190","body":"Hola","messageTimestamp":1717171700}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("webhook status = %d, want 200", w.Code)
	}

	resp := doRequest(h, http.MethodGet, "/api/whatsapp/messages?conversationId=%2B5491133788190", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("messages status = %d, want 200", resp.Code)
	}
	var messages []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &messages); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	if messages[0]["text"] != "Hola" {
		t.Errorf("text = %v", messages[0]["text"])
	}
	if messages[0]["from"] != "customer" {
		t.Errorf("from = %v", messages[0]["from"])
	}
}

func TestWebhookEventAliasFields(t *testing.T) {
	h := newTestHandler(t)

	// "event" + "payload" aliases must be tolerated
	w := doRequest(h, http.MethodPost, "/webhooks/builderbot",
		`{"event":"message.incoming","payload":{"from":"+5491144556677","body":"Buenas"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	resp := doRequest(h, http.MethodGet, "/api/whatsapp/conversations", "")
	var list []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode conversations: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d conversations, want 1", len(list))
	}
}

func TestGetMessagesRequiresConversationID(t *testing.T) {
	h := newTestHandler(t)

	w := doRequest(h, http.MethodGet, "/api/whatsapp/messages", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestMediaRequiresReference(t *testing.T) {
	h := newTestHandler(t)

	w := doRequest(h, http.MethodGet, "/api/whatsapp/media", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestResetEndpoint(t *testing.T) {
	h := newTestHandler(t)

	doRequest(h, http.MethodPost, "/webhooks/builderbot",
		`{"eventName":"message.incoming","data":{"from":"+5491133788190","body":"Hola"}}`)

	w := doRequest(h, http.MethodPost, "/api/whatsapp/reset", "")
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d, want 200", w.Code)
	}

	resp := doRequest(h, http.MethodGet, "/api/whatsapp/conversations", "")
	var list []map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode conversations: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("got %d conversations after reset, want 0", len(list))
	}
}
