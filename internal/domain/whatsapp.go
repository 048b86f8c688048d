package domain

import (
	"time"
)

// ChannelWhatsApp is the only transport tag in use today.
const ChannelWhatsApp = "whatsapp"

type ConversationStatus string

const (
	StatusOpen    ConversationStatus = "open"
	StatusClosed  ConversationStatus = "closed"
	StatusPending ConversationStatus = "pending"
)

type Direction string

const (
	FromAgent    Direction = "agent"
	FromCustomer Direction = "customer"
)

type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaDocument MediaType = "document"
	MediaAudio    MediaType = "audio"
	MediaSticker  MediaType = "sticker"
)

// Emoji returns the preview tag shown in the conversation list for this media kind.
func (m MediaType) Emoji() string {
	switch m {
	case MediaImage:
		return "📷"
	case MediaVideo:
		return "🎥"
	case MediaDocument:
		return "📄"
	case MediaAudio:
		return "🎵"
	default:
		return "📎"
	}
}

// Label returns the placeholder text used when a media message carries no caption.
func (m MediaType) Label() string {
	switch m {
	case MediaImage:
		return "Imagen"
	case MediaVideo:
		return "Video"
	case MediaDocument:
		return "Documento"
	case MediaAudio:
		return "Audio"
	default:
		return "Archivo"
	}
}

// Conversation is the aggregate of all messages exchanged with one contact,
// keyed by the normalized phone number (or composite provider key).
type Conversation struct {
	ID                 string             `json:"id"`
	ContactName        string             `json:"contactName"`
	ContactPhone       string             `json:"contactPhone"`
	LastMessagePreview string             `json:"lastMessagePreview"`
	LastMessageAt      time.Time          `json:"lastMessageAt"`
	UnreadCount        int                `json:"unreadCount"`
	Status             ConversationStatus `json:"status"`
	Channel            string             `json:"channel"`
}

// Message is a single inbound or outbound message. Messages are append-only
// and never mutated after creation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	From           Direction `json:"from"`
	Text           string    `json:"text"`
	SentAt         time.Time `json:"sentAt"`
	Delivered      bool      `json:"delivered"`
	Read           bool      `json:"read"`
	MediaURL       string    `json:"mediaUrl,omitempty"`
	MediaType      MediaType `json:"mediaType,omitempty"`
	MediaMimeType  string    `json:"mediaMimeType,omitempty"`
	Caption        string    `json:"caption,omitempty"`
	MediaKey       string    `json:"mediaKey,omitempty"`
}

// Media is the result of extracting a media attachment from a webhook payload.
type Media struct {
	URL      string
	Type     MediaType
	MimeType string
	Caption  string
	Key      string
}

// Event is an inbound webhook event from the chatbot provider. Data has no
// shared schema; its shape varies by provider message kind.
type Event struct {
	EventName string         `json:"eventName"`
	Data      map[string]any `json:"data"`
}
