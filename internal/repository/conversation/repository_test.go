package repository

import (
	"context"
	"testing"
	"time"

	"github.com/boden-crm/inbox-service/internal/domain"
	memoryStorage "github.com/boden-crm/inbox-service/internal/storage/memory"
)

func newTestRepo() Repository {
	return NewConversationRepository(memoryStorage.NewMemoryKV())
}

func testConversation(id string) *domain.Conversation {
	return &domain.Conversation{
		ID:                 id,
		ContactName:        "María González",
		ContactPhone:       id,
		LastMessagePreview: "Hola",
		LastMessageAt:      time.UnixMilli(1717171700000).UTC(),
		UnreadCount:        1,
		Status:             domain.StatusOpen,
		Channel:            domain.ChannelWhatsApp,
	}
}

func testMessage(id, conversationID string) *domain.Message {
	return &domain.Message{
		ID:             id,
		ConversationID: conversationID,
		From:           domain.FromCustomer,
		Text:           "Hola",
		SentAt:         time.UnixMilli(1717171700000).UTC(),
		Delivered:      true,
	}
}

func TestConversationRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	missing, err := repo.GetConversation(ctx, "+5491133788190")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for a missing conversation")
	}

	want := testConversation("+5491133788190")
	if err := repo.SaveConversation(ctx, want); err != nil {
		t.Fatalf("SaveConversation: %v", err)
	}

	got, err := repo.GetConversation(ctx, "+5491133788190")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if got == nil || got.ID != want.ID || got.ContactName != want.ContactName || got.UnreadCount != want.UnreadCount {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if !got.LastMessageAt.Equal(want.LastMessageAt) {
		t.Errorf("lastMessageAt = %v, want %v", got.LastMessageAt, want.LastMessageAt)
	}
}

func TestAppendMessageDeduplicates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	msg := testMessage("wamid.1", "+5491133788190")

	appended, err := repo.AppendMessage(ctx, msg)
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if !appended {
		t.Fatal("first append should store the message")
	}

	appended, err = repo.AppendMessage(ctx, msg)
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if appended {
		t.Fatal("second append of the same id should be skipped")
	}

	messages, err := repo.ListMessages(ctx, "+5491133788190")
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
}

func TestListConversations(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	for _, id := range []string{"+5491133788190", "+5491144556677"} {
		if err := repo.SaveConversation(ctx, testConversation(id)); err != nil {
			t.Fatalf("SaveConversation(%s): %v", id, err)
		}
	}

	conversations, err := repo.ListConversations(ctx)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(conversations) != 2 {
		t.Fatalf("got %d conversations, want 2", len(conversations))
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo()

	if err := repo.SaveConversation(ctx, testConversation("+5491133788190")); err != nil {
		t.Fatalf("SaveConversation: %v", err)
	}
	if _, err := repo.AppendMessage(ctx, testMessage("wamid.1", "+5491133788190")); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	conversations, err := repo.ListConversations(ctx)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(conversations) != 0 {
		t.Fatalf("got %d conversations after reset, want 0", len(conversations))
	}

	messages, err := repo.ListMessages(ctx, "+5491133788190")
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("got %d messages after reset, want 0", len(messages))
	}
}
