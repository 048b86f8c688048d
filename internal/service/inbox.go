package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/boden-crm/inbox-service/internal/domain"
	conversationRepo "github.com/boden-crm/inbox-service/internal/repository/conversation"
	"github.com/boden-crm/inbox-service/internal/storage"
	"github.com/google/uuid"
)

const (
	eventMessageIncoming = "message.incoming"
	eventMessageOutgoing = "message.outgoing"
)

// ErrEmptyMessage is returned by Upsert when the message carries neither text
// nor media-derived fallback text.
var ErrEmptyMessage = errors.New("message has no text or media")

// UpsertInput carries one normalized message into the store. Optional booleans
// are pointers so their defaults (delivered=true, read=from==agent) apply when
// the caller has no explicit value.
type UpsertInput struct {
	ConversationID string
	From           domain.Direction
	Text           string
	SentAt         time.Time
	Delivered      *bool
	Read           *bool
	ID             string
	ContactName    string
	ContactPhone   string
	Status         domain.ConversationStatus
	Media          *domain.Media
}

type Inbox interface {
	Ingest(ctx context.Context, event domain.Event) error
	Upsert(ctx context.Context, input UpsertInput) (*domain.Message, error)
	GetConversations(ctx context.Context) []domain.Conversation
	GetMessages(ctx context.Context, conversationID string) []domain.Message
	Reset(ctx context.Context) error
}

type inbox struct {
	repo   conversationRepo.Repository
	logger *slog.Logger
}

func NewInboxService(repo conversationRepo.Repository, logger *slog.Logger) Inbox {
	return &inbox{
		repo:   repo,
		logger: logger,
	}
}

// Ingest normalizes one provider webhook event and upserts it into the store.
// Events other than message.incoming/message.outgoing are a no-op; events
// without extractable text/media or conversation id are logged and dropped.
func (s *inbox) Ingest(ctx context.Context, event domain.Event) error {
	if event.EventName == "" || event.Data == nil {
		s.logger.Warn("ignoring malformed event", "eventName", event.EventName, "hasData", event.Data != nil)
		return nil
	}
	if event.EventName != eventMessageIncoming && event.EventName != eventMessageOutgoing {
		return nil
	}

	data := event.Data
	text := extractText(data)
	media := extractMedia(data)
	conversationID := extractConversationID(data)

	if (text == "" && media == nil) || conversationID == "" {
		s.logger.Warn("event has no text/media or conversation id",
			"eventName", event.EventName,
			"hasText", text != "",
			"hasMedia", media != nil,
			"conversationId", conversationID,
			"payloadKeys", mapKeys(data))
		return nil
	}

	from := domain.FromAgent
	if event.EventName == eventMessageIncoming || data["fromMe"] == false {
		from = domain.FromCustomer
	}

	phone := domain.NormalizePhone(firstString(
		stringField(nested(data, "key"), "remoteJid"),
		stringField(data, "remoteJid"),
		stringField(data, "from"),
	))
	if phone == domain.UnknownContact {
		// let the contact phone default to the canonical conversation id
		phone = ""
	}
	name := firstString(stringField(data, "name"), stringField(data, "contactName"), phone)

	sentAt, ok := extractTimestamp(data)
	if !ok {
		sentAt = time.Now().UTC()
	}

	// Media-only messages fall back to the caption or a per-kind label.
	if text == "" && media != nil {
		text = firstString(media.Caption, media.Type.Label())
	}

	msg, err := s.Upsert(ctx, UpsertInput{
		ConversationID: conversationID,
		From:           from,
		Text:           text,
		SentAt:         sentAt,
		ID:             stringField(nested(data, "key"), "id"),
		ContactName:    name,
		ContactPhone:   phone,
		Media:          media,
	})
	if err != nil {
		return fmt.Errorf("ingest %s event: %w", event.EventName, err)
	}

	s.logger.Info("event ingested",
		"eventName", event.EventName,
		"conversationId", msg.ConversationID,
		"messageId", msg.ID,
		"from", msg.From,
		"hasMedia", media != nil)
	return nil
}

// Upsert appends one message and updates its conversation aggregate. The
// conversation is created on first contact; re-ingesting a message id already
// stored is an idempotent no-op for the message list.
func (s *inbox) Upsert(ctx context.Context, input UpsertInput) (*domain.Message, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" && input.Media != nil {
		text = strings.TrimSpace(firstString(input.Media.Caption, input.Media.Type.Label()))
	}
	if text == "" {
		return nil, ErrEmptyMessage
	}

	// Normalization is idempotent; callers may pass already-canonical ids.
	conversationID := normalizeConversationID(input.ConversationID)
	preview := buildPreview(text, input.Media)

	existing, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		s.logger.Error("failed to load conversation, treating as first message",
			"conversationId", conversationID,
			"error", err.Error(),
			"hint", storage.Diagnose(err))
		existing = nil
	}

	fallbackPhone := firstString(input.ContactPhone, conversationID)

	conversation := &domain.Conversation{
		ID:           conversationID,
		ContactName:  firstString(input.ContactName, fallbackPhone),
		ContactPhone: fallbackPhone,
		UnreadCount:  0,
		Status:       domain.StatusOpen,
		Channel:      domain.ChannelWhatsApp,
	}
	if existing != nil {
		conversation.ContactName = firstString(input.ContactName, existing.ContactName, fallbackPhone)
		conversation.ContactPhone = firstString(input.ContactPhone, existing.ContactPhone, fallbackPhone)
		conversation.UnreadCount = existing.UnreadCount
		conversation.Status = existing.Status
	}
	if input.Status != "" {
		conversation.Status = input.Status
	}

	// The latest-arriving message wins the preview unconditionally.
	conversation.LastMessagePreview = preview
	conversation.LastMessageAt = input.SentAt
	if input.From == domain.FromCustomer {
		conversation.UnreadCount++
	} else {
		conversation.UnreadCount = 0
	}

	msg := &domain.Message{
		ID:             buildMessageID(input.ID),
		ConversationID: conversationID,
		From:           input.From,
		Text:           text,
		SentAt:         input.SentAt,
		Delivered:      boolOrDefault(input.Delivered, true),
		Read:           boolOrDefault(input.Read, input.From == domain.FromAgent),
	}
	if input.Media != nil {
		msg.MediaURL = input.Media.URL
		msg.MediaType = input.Media.Type
		msg.MediaMimeType = input.Media.MimeType
		msg.Caption = input.Media.Caption
		msg.MediaKey = input.Media.Key
	}

	if err := s.repo.SaveConversation(ctx, conversation); err != nil {
		return nil, fmt.Errorf("save conversation %q: %w", conversationID, err)
	}

	appended, err := s.repo.AppendMessage(ctx, msg)
	if err != nil {
		return nil, err
	}
	if !appended {
		s.logger.Info("message already stored, skipping duplicate", "messageId", msg.ID, "conversationId", conversationID)
	}
	return msg, nil
}

// GetConversations returns all conversations sorted by last activity,
// newest first, deduplicated by normalized id. Read failures degrade to an
// empty list so the dashboard treats them as "no data yet".
func (s *inbox) GetConversations(ctx context.Context) []domain.Conversation {
	stored, err := s.repo.ListConversations(ctx)
	if err != nil {
		s.logger.Error("failed to list conversations", "error", err.Error(), "hint", storage.Diagnose(err))
		return []domain.Conversation{}
	}

	// Legacy entries written before id normalization may coexist with
	// normalized ones; keep whichever saw activity last.
	unique := make(map[string]domain.Conversation, len(stored))
	for _, conversation := range stored {
		conversation.ID = normalizeConversationID(conversation.ID)
		if existing, ok := unique[conversation.ID]; ok && !conversation.LastMessageAt.After(existing.LastMessageAt) {
			continue
		}
		unique[conversation.ID] = conversation
	}

	conversations := make([]domain.Conversation, 0, len(unique))
	for _, conversation := range unique {
		conversations = append(conversations, conversation)
	}
	sort.Slice(conversations, func(i, j int) bool {
		if conversations[i].LastMessageAt.Equal(conversations[j].LastMessageAt) {
			return conversations[i].ID < conversations[j].ID
		}
		return conversations[i].LastMessageAt.After(conversations[j].LastMessageAt)
	})
	return conversations
}

// GetMessages returns the conversation's messages deduplicated by id and
// sorted ascending by sentAt, ties broken by id for determinism.
func (s *inbox) GetMessages(ctx context.Context, conversationID string) []domain.Message {
	normalized := normalizeConversationID(conversationID)

	stored, err := s.repo.ListMessages(ctx, normalized)
	if err != nil {
		s.logger.Error("failed to list messages",
			"conversationId", normalized,
			"error", err.Error(),
			"hint", storage.Diagnose(err))
		return []domain.Message{}
	}

	seen := make(map[string]struct{}, len(stored))
	messages := make([]domain.Message, 0, len(stored))
	for _, msg := range stored {
		if _, ok := seen[msg.ID]; ok {
			continue
		}
		seen[msg.ID] = struct{}{}
		messages = append(messages, msg)
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].SentAt.Equal(messages[j].SentAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].SentAt.Before(messages[j].SentAt)
	})
	return messages
}

func (s *inbox) Reset(ctx context.Context) error {
	return s.repo.Reset(ctx)
}

// normalizeConversationID canonicalizes conversation ids, leaving
// provider-project-scoped composite keys untouched.
func normalizeConversationID(id string) string {
	if strings.Contains(id, ":") {
		return id
	}
	return domain.NormalizePhone(id)
}

func buildPreview(text string, media *domain.Media) string {
	if media == nil {
		return text
	}
	if text != "" {
		return media.Type.Emoji() + " " + text
	}
	return media.Type.Emoji() + " " + media.Type.Label()
}

func buildMessageID(explicitID string) string {
	if explicitID != "" {
		return explicitID
	}
	return fmt.Sprintf("msg_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value != nil {
		return *value
	}
	return fallback
}

func mapKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
