package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/boden-crm/inbox-service/internal/domain"
	"github.com/boden-crm/inbox-service/internal/storage"
)

const (
	conversationsKey  = "boden:whatsapp:conversations"
	messagesKeyPrefix = "boden:whatsapp:messages:"
	messageIndexKey   = "boden:whatsapp:message-index"
)

type Repository interface {
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
	SaveConversation(ctx context.Context, conversation *domain.Conversation) error
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
	AppendMessage(ctx context.Context, msg *domain.Message) (bool, error)
	ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error)
	Reset(ctx context.Context) error
}

type repo struct {
	kv storage.KV
}

func NewConversationRepository(kv storage.KV) Repository {
	return &repo{kv: kv}
}

func messagesKey(conversationID string) string {
	return messagesKeyPrefix + conversationID
}

// GetConversation loads one conversation aggregate by its canonical id.
// A missing conversation is not an error; it returns (nil, nil).
func (r *repo) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	raw, err := r.kv.HGet(ctx, conversationsKey, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation %q: %w", id, err)
	}

	conversation := new(domain.Conversation)
	if err := json.Unmarshal([]byte(raw), conversation); err != nil {
		return nil, fmt.Errorf("decode conversation %q: %w", id, err)
	}
	return conversation, nil
}

func (r *repo) SaveConversation(ctx context.Context, conversation *domain.Conversation) error {
	raw, err := json.Marshal(conversation)
	if err != nil {
		return fmt.Errorf("encode conversation %q: %w", conversation.ID, err)
	}
	return r.kv.HSet(ctx, conversationsKey, conversation.ID, string(raw))
}

// ListConversations returns every stored conversation as-is. Legacy entries
// written under non-normalized keys may coexist with normalized ones; the
// caller deduplicates.
func (r *repo) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	raw, err := r.kv.HVals(ctx, conversationsKey)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	conversations := make([]domain.Conversation, 0, len(raw))
	for _, value := range raw {
		var conversation domain.Conversation
		if err := json.Unmarshal([]byte(value), &conversation); err != nil {
			continue
		}
		conversations = append(conversations, conversation)
	}
	return conversations, nil
}

// AppendMessage appends the message to its conversation's log unless a message
// with the same id is already stored, and registers the conversation in the
// message index. It reports whether the message was actually appended. The
// existence check and the push are separate commands, so a duplicate may slip
// through under concurrent redelivery; that is preferred over blocking ingestion.
func (r *repo) AppendMessage(ctx context.Context, msg *domain.Message) (bool, error) {
	key := messagesKey(msg.ConversationID)

	existing, err := r.kv.LRange(ctx, key)
	if err != nil {
		return false, fmt.Errorf("scan messages for %q: %w", msg.ConversationID, err)
	}
	for _, value := range existing {
		var stored domain.Message
		if err := json.Unmarshal([]byte(value), &stored); err != nil {
			continue
		}
		if stored.ID == msg.ID {
			return false, nil
		}
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return false, fmt.Errorf("encode message %q: %w", msg.ID, err)
	}
	if err := r.kv.RPush(ctx, key, string(raw)); err != nil {
		return false, fmt.Errorf("append message %q: %w", msg.ID, err)
	}
	if err := r.kv.SAdd(ctx, messageIndexKey, msg.ConversationID); err != nil {
		return true, fmt.Errorf("index conversation %q: %w", msg.ConversationID, err)
	}
	return true, nil
}

func (r *repo) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	raw, err := r.kv.LRange(ctx, messagesKey(conversationID))
	if err != nil {
		return nil, fmt.Errorf("list messages for %q: %w", conversationID, err)
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, value := range raw {
		var msg domain.Message
		if err := json.Unmarshal([]byte(value), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Reset deletes all conversations, message logs and the message index.
// Only used for test/dev reseeding.
func (r *repo) Reset(ctx context.Context) error {
	indexed, err := r.kv.SMembers(ctx, messageIndexKey)
	if err != nil {
		return fmt.Errorf("read message index: %w", err)
	}

	keys := make([]string, 0, len(indexed)+2)
	for _, id := range indexed {
		keys = append(keys, messagesKey(id))
	}
	keys = append(keys, conversationsKey, messageIndexKey)

	return r.kv.Del(ctx, keys...)
}
