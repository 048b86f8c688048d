package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boden-crm/inbox-service/internal/domain"
)

func newTestResolver(t *testing.T, baseURL, botID, apiKey string) *Resolver {
	t.Helper()
	maxRetry := 1
	resolver, err := NewResolver(slog.New(slog.NewTextHandler(io.Discard, nil)), baseURL, botID, apiKey, &maxRetry)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return resolver
}

func TestResolveDirectURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png bytes"))
	}))
	defer server.Close()

	resolver := newTestResolver(t, "https://app.builderbot.cloud", "", "")

	body, contentType, err := resolver.Resolve(context.Background(), Ref{URL: server.URL + "/cdn/file.png"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if string(body) != "png bytes" {
		t.Errorf("body = %q", body)
	}
	if contentType != "image/png" {
		t.Errorf("contentType = %q", contentType)
	}
}

func TestResolveWhatsAppURLDecrypts(t *testing.T) {
	key := testMediaKey()
	keyB64 := base64.StdEncoding.EncodeToString(key)
	plaintext := []byte("\x89PNG\r\n\x1a\n decrypted image body")
	encrypted := encryptForTest(t, plaintext, key, domain.MediaImage)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(encrypted)
	}))
	defer server.Close()

	resolver := newTestResolver(t, "https://app.builderbot.cloud", "", "")

	// the path carries the whatsapp.net marker the resolver keys on
	body, _, err := resolver.Resolve(context.Background(), Ref{
		URL:  server.URL + "/mmg.whatsapp.net/v/abc.enc",
		Key:  keyB64,
		Type: domain.MediaImage,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !bytes.Equal(body, plaintext) {
		t.Fatalf("body = %q, want decrypted plaintext", body)
	}
}

func TestResolveWhatsAppURLFallsBackToCiphertext(t *testing.T) {
	raw := []byte("not really encrypted")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(raw)
	}))
	defer server.Close()

	resolver := newTestResolver(t, "https://app.builderbot.cloud", "", "")

	body, _, err := resolver.Resolve(context.Background(), Ref{
		URL:  server.URL + "/mmg.whatsapp.net/v/bad.enc",
		Key:  base64.StdEncoding.EncodeToString(testMediaKey()),
		Type: domain.MediaImage,
	})
	if err != nil {
		t.Fatalf("Resolve should not fail when decryption does: %v", err)
	}
	if !bytes.Equal(body, raw) {
		t.Fatalf("body = %q, want undecrypted payload", body)
	}
}

func TestResolveMediaKeyTriesBuilderbotEndpoints(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/download/") {
			http.NotFound(w, r)
			return
		}
		gotHeader = r.Header.Get("x-api-builderbot")
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg bytes"))
	}))
	defer server.Close()

	resolver := newTestResolver(t, server.URL, "bot-1", "secret")

	body, contentType, err := resolver.Resolve(context.Background(), Ref{
		URL:       builderbotMediaPrefix + "a2V5a2V5",
		MessageID: "wamid.1",
		Type:      domain.MediaImage,
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if string(body) != "jpeg bytes" {
		t.Errorf("body = %q", body)
	}
	if contentType != "image/jpeg" {
		t.Errorf("contentType = %q", contentType)
	}
	if gotHeader != "secret" {
		t.Errorf("x-api-builderbot = %q, want api key", gotHeader)
	}
}

func TestResolveMediaKeyWithoutCredentials(t *testing.T) {
	resolver := newTestResolver(t, "https://app.builderbot.cloud", "", "")

	if _, _, err := resolver.Resolve(context.Background(), Ref{Key: "a2V5a2V5"}); err == nil {
		t.Fatal("expected error without builderbot credentials")
	}
}

func TestResolveEmptyReference(t *testing.T) {
	resolver := newTestResolver(t, "https://app.builderbot.cloud", "bot-1", "secret")

	if _, _, err := resolver.Resolve(context.Background(), Ref{}); err == nil {
		t.Fatal("expected error for empty reference")
	}
}
