package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/boden-crm/inbox-service/docs"
	"github.com/boden-crm/inbox-service/internal/domain"
	"github.com/boden-crm/inbox-service/internal/media"
	"github.com/boden-crm/inbox-service/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handler struct {
	inbox    service.Inbox
	resolver *media.Resolver
	logger   *slog.Logger
	server   *http.Server
}

// @title Boden Inbox API
// @version 1.0
// @description WhatsApp event ingestion and conversation read API for the CRM dashboard
// @host localhost:8080
// @BasePath /
func NewHTTPHandler(addr string, inbox service.Inbox, resolver *media.Resolver, corsOrigins []string, logger *slog.Logger) *Handler {
	h := &Handler{
		inbox:    inbox,
		resolver: resolver,
		logger:   logger,
	}

	// create router
	router := gin.Default()

	// the dashboard polls the read API from the browser
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// register routes
	router.GET("/", h.root)
	router.GET("/health", h.health)
	router.POST("/webhooks/builderbot", h.handleWebhook)
	router.POST("/webhooks/events", h.handleWebhook)
	router.GET("/api/whatsapp/conversations", h.getConversations)
	router.GET("/api/whatsapp/messages", h.getMessages)
	router.GET("/api/whatsapp/media", h.getMedia)
	router.POST("/api/whatsapp/reset", h.resetStore)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// create http server
	h.server = &http.Server{
		Addr:    addr,
		Handler: router.Handler(),
	}

	return h
}

func (h *Handler) Run() error {
	return h.server.ListenAndServe()
}

func (h *Handler) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": "boden-inbox", "version": "0.1.0"})
}

// Health godoc
// @Summary Health check
// @Tags Health
// @Success 200
// @Router /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

// HandleWebhook godoc
// @Summary Receive a Builderbot webhook event
// @Description Ingests message.incoming/message.outgoing events; other events are acknowledged and ignored
// @Tags Webhooks
// @Accept json
// @Success 200
// @Failure 400
// @Router /webhooks/builderbot [post]
func (h *Handler) handleWebhook(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid json body"})
		return
	}

	eventName, _ := body["eventName"].(string)
	if eventName == "" {
		eventName, _ = body["event"].(string)
	}
	if eventName == "" {
		h.logger.Warn("webhook without eventName")
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "eventName is required"})
		return
	}

	data, _ := body["data"].(map[string]any)
	if data == nil {
		data, _ = body["payload"].(map[string]any)
	}
	if data == nil {
		data = body
	}

	// At-least-once delivery: acknowledge even when ingestion fails so the
	// provider does not redeliver in a retry storm. The loss is logged.
	if err := h.inbox.Ingest(c.Request.Context(), domain.Event{EventName: eventName, Data: data}); err != nil {
		h.logger.Error("failed to ingest webhook event", "eventName", eventName, "error", err.Error())
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "eventName": eventName})
}

// GetConversations godoc
// @Summary List conversations
// @Description Returns all conversations sorted by last activity, newest first
// @Tags WhatsApp
// @Success 200 {array} domain.Conversation
// @Router /api/whatsapp/conversations [get]
func (h *Handler) getConversations(c *gin.Context) {
	c.JSON(http.StatusOK, h.inbox.GetConversations(c.Request.Context()))
}

// GetMessages godoc
// @Summary List messages of a conversation
// @Tags WhatsApp
// @Param conversationId query string true "Conversation id"
// @Success 200 {array} domain.Message
// @Failure 400
// @Router /api/whatsapp/messages [get]
func (h *Handler) getMessages(c *gin.Context) {
	conversationID := c.Query("conversationId")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
		return
	}
	c.JSON(http.StatusOK, h.inbox.GetMessages(c.Request.Context(), conversationID))
}

// GetMedia godoc
// @Summary Resolve a media reference to raw bytes
// @Description Proxies media downloads for the dashboard, decrypting WhatsApp-hosted media when a key is available
// @Tags WhatsApp
// @Param url query string false "Media URL or placeholder"
// @Param key query string false "Base64 media key"
// @Param messageId query string false "Provider message id"
// @Param mediaType query string false "image|video|document|audio|sticker"
// @Success 200
// @Failure 400
// @Failure 404
// @Router /api/whatsapp/media [get]
func (h *Handler) getMedia(c *gin.Context) {
	ref := media.Ref{
		URL:       c.Query("url"),
		Key:       c.Query("key"),
		MessageID: c.Query("messageId"),
		Type:      domain.MediaType(c.Query("mediaType")),
	}
	if ref.Type == "" {
		ref.Type = domain.MediaImage
	}
	if ref.URL == "" && ref.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url or key is required"})
		return
	}

	body, contentType, err := h.resolver.Resolve(c.Request.Context(), ref)
	if err != nil {
		h.logger.Error("failed to resolve media", "messageId", ref.MessageID, "error", err.Error())
		c.JSON(http.StatusNotFound, gin.H{"error": "media could not be resolved"})
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, contentType, body)
}

// ResetStore godoc
// @Summary Reset the store
// @Description Deletes all conversations and messages; used for test/dev reseeding
// @Tags WhatsApp
// @Success 200
// @Failure 500
// @Router /api/whatsapp/reset [post]
func (h *Handler) resetStore(c *gin.Context) {
	if err := h.inbox.Reset(c.Request.Context()); err != nil {
		h.logger.Error("failed to reset store", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
