package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/boden-crm/inbox-service/internal/domain"
)

// builderbotMediaPrefix tags a provider-internal media key as a placeholder
// URL until the media proxy resolves it.
const builderbotMediaPrefix = "builderbot:mediaKey:"

// nestedMediaShapes describes the provider's nested media payload shapes in
// detection order. New provider shapes only need a new table row.
var nestedMediaShapes = []struct {
	field       string
	kind        domain.MediaType
	defaultMime string
}{
	{"imageMessage", domain.MediaImage, "image/jpeg"},
	{"videoMessage", domain.MediaVideo, "video/mp4"},
	{"documentMessage", domain.MediaDocument, "application/pdf"},
	{"audioMessage", domain.MediaAudio, "audio/ogg"},
	{"stickerMessage", domain.MediaSticker, "image/webp"},
}

// extractText scans the payload for message text: media captions first, then
// the conversation/extended-text shapes, then the generic flat fields.
func extractText(data map[string]any) string {
	if caption := firstString(
		stringField(nested(data, "message", "imageMessage"), "caption"),
		stringField(nested(data, "message", "videoMessage"), "caption"),
		stringField(nested(data, "message", "documentMessage"), "caption"),
		stringField(data, "caption"),
	); caption != "" {
		return caption
	}

	return firstString(
		stringField(nested(data, "message", "extendedTextMessage"), "text"),
		stringField(nested(data, "message"), "conversation"),
		stringField(data, "answer"),
		stringField(data, "body"),
		stringField(data, "text"),
		stringField(nested(data, "message", "extendedTextMessage"), "caption"),
	)
}

// extractMedia detects a media attachment in the payload, either as one of the
// nested provider shapes or as a flat mediaUrl/media field with a MIME type
// inferred kind. Returns nil when no media is present.
func extractMedia(data map[string]any) *domain.Media {
	for _, shape := range nestedMediaShapes {
		m := nested(data, "message", shape.field)
		if m == nil {
			continue
		}

		media := &domain.Media{
			URL:      firstString(stringField(m, "url"), stringField(m, "directPath"), stringField(m, "mediaUrl")),
			Type:     shape.kind,
			MimeType: firstString(stringField(m, "mimetype"), shape.defaultMime),
			Caption:  stringField(m, "caption"),
			Key:      stringField(m, "mediaKey"),
		}
		if shape.kind == domain.MediaDocument && media.Caption == "" {
			media.Caption = stringField(m, "fileName")
		}
		// Images without a usable URL keep only a key; tag it so the media
		// proxy can resolve it later.
		if shape.kind == domain.MediaImage && media.URL == "" && media.Key != "" {
			media.URL = builderbotMediaPrefix + media.Key
		}
		return media
	}

	url := firstString(
		stringField(data, "mediaUrl"),
		stringField(data, "media_url"),
		stringField(nested(data, "media"), "url"),
		stringField(data, "media"),
	)
	if url == "" {
		return nil
	}

	mime := firstString(stringField(data, "mimeType"), stringField(data, "mimetype"), stringField(data, "mediaType"))
	kind := domain.MediaImage
	switch {
	case strings.HasPrefix(mime, "image/"):
		kind = domain.MediaImage
	case strings.HasPrefix(mime, "video/"):
		kind = domain.MediaVideo
	case strings.HasPrefix(mime, "audio/"):
		kind = domain.MediaAudio
	case strings.Contains(mime, "pdf") || strings.Contains(mime, "document"):
		kind = domain.MediaDocument
	case strings.Contains(mime, "sticker") || strings.Contains(mime, "webp"):
		kind = domain.MediaSticker
	}

	return &domain.Media{
		URL:      url,
		Type:     kind,
		MimeType: mime,
		Caption:  firstString(stringField(data, "caption"), stringField(data, "text")),
	}
}

// extractConversationID derives the canonical conversation key from the
// payload: an explicit conversationId, a remote-address-like field, a contact
// id, or a provider-project-scoped composite. Returns "" when nothing usable
// is found.
func extractConversationID(data map[string]any) string {
	if id := stringField(data, "conversationId"); id != "" {
		return domain.NormalizePhone(id)
	}

	remote := firstString(
		stringField(nested(data, "key"), "remoteJid"),
		stringField(data, "remoteJid"),
		stringField(data, "from"),
		stringField(data, "to"),
	)
	if remote != "" {
		return domain.NormalizePhone(remote)
	}

	if contactID := stringField(nested(data, "contact"), "id"); contactID != "" {
		return domain.NormalizePhone(contactID)
	}

	projectID := stringField(data, "projectId")
	refID := stringField(nested(data, "ref"), "id")
	if projectID != "" && refID != "" {
		return projectID + ":" + domain.NormalizePhone(refID)
	}
	return ""
}

// extractTimestamp converts a provider epoch timestamp (seconds or
// milliseconds, numeric or string) to a time. Reports false when absent or
// unparseable.
func extractTimestamp(data map[string]any) (time.Time, bool) {
	raw, ok := data["messageTimestamp"]
	if !ok {
		return time.Time{}, false
	}

	var epoch float64
	switch v := raw.(type) {
	case float64:
		epoch = v
	case int64:
		epoch = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return time.Time{}, false
		}
		epoch = parsed
	default:
		return time.Time{}, false
	}
	if epoch <= 0 {
		return time.Time{}, false
	}

	ms := int64(epoch)
	if epoch < 1e12 {
		ms = int64(epoch * 1000)
	}
	return time.UnixMilli(ms).UTC(), true
}

// nested walks a chain of map fields, returning nil if any hop is missing or
// not an object.
func nested(data map[string]any, path ...string) map[string]any {
	current := data
	for _, field := range path {
		if current == nil {
			return nil
		}
		next, ok := current[field].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

func stringField(data map[string]any, field string) string {
	if data == nil {
		return ""
	}
	value, _ := data[field].(string)
	return value
}

func firstString(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
