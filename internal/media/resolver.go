package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aniladanir/retry"
	"github.com/boden-crm/inbox-service/internal/domain"
	"github.com/google/uuid"
)

const builderbotMediaPrefix = "builderbot:mediaKey:"

// Ref is a media reference as stored on a message: a direct URL, a
// provider-internal media key, or both.
type Ref struct {
	URL       string
	Key       string
	MessageID string
	Type      domain.MediaType
}

// Resolver turns media references into raw bytes plus a content type,
// downloading from the Builderbot API or from WhatsApp's media transport and
// decrypting when a media key is available.
type Resolver struct {
	baseURL    string
	botID      string
	apiKey     string
	httpClient *http.Client
	retrier    *retry.Retrier
	logger     *slog.Logger
}

func NewResolver(logger *slog.Logger, baseURL, botID, apiKey string, maxRetryOnFail *int) (*Resolver, error) {
	retrierOpts := make([]retry.Option, 0)
	if maxRetryOnFail != nil {
		retrierOpts = append(retrierOpts, retry.WithMaxAttemps(*maxRetryOnFail))
	}
	retrier, err := retry.New(retrierOpts...)
	if err != nil {
		return nil, fmt.Errorf("encountered error when initializing retrier: %w", err)
	}

	return &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		botID:   botID,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: time.Second * 30,
		},
		retrier: retrier,
		logger:  logger,
	}, nil
}

// Resolve fetches the media behind ref. WhatsApp-hosted blobs are decrypted
// transparently when a key is present; if decryption fails the raw ciphertext
// is returned instead of failing the request.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) ([]byte, string, error) {
	url := strings.TrimSpace(ref.URL)
	key := strings.TrimSpace(ref.Key)

	if strings.HasPrefix(url, builderbotMediaPrefix) {
		if key == "" {
			key = strings.TrimPrefix(url, builderbotMediaPrefix)
		}
		url = ""
	}

	if url == "" {
		if key == "" {
			return nil, "", errors.New("media reference has neither url nor key")
		}
		return r.fetchFromBuilderbot(ctx, key, ref.MessageID)
	}

	switch {
	case strings.Contains(url, "whatsapp.net"):
		body, contentType, err := r.fetch(ctx, url, false)
		if err != nil {
			return nil, "", err
		}
		if key == "" {
			r.logger.Warn("whatsapp media has no key, returning payload as delivered", "messageId", ref.MessageID)
			return body, contentType, nil
		}
		plain, err := Decrypt(body, key, ref.Type)
		if err != nil {
			// A broken-but-present file beats no response for debugging.
			r.logger.Error("failed to decrypt whatsapp media, returning ciphertext",
				"messageId", ref.MessageID,
				"error", err.Error())
			return body, contentType, nil
		}
		return plain, http.DetectContentType(plain), nil

	case strings.Contains(url, "builderbot"):
		return r.fetch(ctx, url, true)

	default:
		return r.fetch(ctx, url, false)
	}
}

// fetchFromBuilderbot tries the known Builderbot media endpoints in order and
// returns the first successful download.
func (r *Resolver) fetchFromBuilderbot(ctx context.Context, mediaKey, messageID string) ([]byte, string, error) {
	if r.botID == "" || r.apiKey == "" {
		return nil, "", errors.New("builderbot credentials are not configured")
	}

	endpoints := []string{
		fmt.Sprintf("%s/api/v2/%s/media/%s", r.baseURL, r.botID, mediaKey),
		fmt.Sprintf("%s/api/v2/%s/messages/%s/media", r.baseURL, r.botID, messageID),
		fmt.Sprintf("%s/api/v2/%s/download/%s", r.baseURL, r.botID, mediaKey),
	}

	var lastErr error
	for _, endpoint := range endpoints {
		body, contentType, err := r.fetch(ctx, endpoint, true)
		if err != nil {
			r.logger.Warn("builderbot media endpoint failed", "endpoint", endpoint, "error", err.Error())
			lastErr = err
			continue
		}
		return body, contentType, nil
	}
	return nil, "", fmt.Errorf("all builderbot media endpoints failed: %w", lastErr)
}

func (r *Resolver) fetch(ctx context.Context, url string, authed bool) (body []byte, contentType string, err error) {
	var lastErr error

	retryFunc := func(attempt int) (terminate bool) {
		resp, reqErr := r.doMediaRequest(ctx, url, authed)
		if reqErr != nil {
			r.logger.Warn("media request failed", "url", url, "attempt", attempt, "error", reqErr.Error())
			lastErr = reqErr
			return false
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			// 5XX may be transient, try retry
			lastErr = fmt.Errorf("media request to %s returned status %d", url, resp.StatusCode)
			return false
		}
		if resp.StatusCode >= http.StatusBadRequest {
			// 4XX indicates client error, no need to retry
			lastErr = fmt.Errorf("media request to %s returned status %d", url, resp.StatusCode)
			return true
		}

		payload, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			lastErr = readErr
			return false
		}

		body = payload
		contentType = resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		lastErr = nil
		return true
	}

	if success := <-r.retrier.Retry(ctx, retryFunc, true); !success && lastErr == nil {
		lastErr = fmt.Errorf("media request to %s gave up after retries", url)
	}
	if lastErr != nil {
		return nil, "", lastErr
	}
	return body, contentType, nil
}

func (r *Resolver) doMediaRequest(ctx context.Context, url string, authed bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("X-Request-ID", uuid.NewString())
	if authed {
		req.Header.Add("x-api-builderbot", r.apiKey)
	}

	return r.httpClient.Do(req)
}
