package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/boden-crm/inbox-service/internal/domain"
	httpHandler "github.com/boden-crm/inbox-service/internal/handler/http"
	"github.com/boden-crm/inbox-service/internal/media"
	conversationRepo "github.com/boden-crm/inbox-service/internal/repository/conversation"
	"github.com/boden-crm/inbox-service/internal/service"
	"github.com/boden-crm/inbox-service/internal/storage"
	memoryStorage "github.com/boden-crm/inbox-service/internal/storage/memory"
	redisStorage "github.com/boden-crm/inbox-service/internal/storage/redis"
	"github.com/joho/godotenv"
)

func main() {
	// create root context
	appCtx, appCtxCancel := context.WithCancel(context.Background())
	defer appCtxCancel()

	// listen for terminate signal
	notifyCtx, stop := signal.NotifyContext(appCtx, syscall.SIGTERM)
	defer stop()

	// parse config
	_ = godotenv.Load()
	config := LoadConfig()

	// setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// select persistence backend
	kv, volatile, err := selectStorage(notifyCtx, config, logger)
	if err != nil {
		log.Fatalf("failed to initialize storage backend: %v", err)
	}

	// init conversation repository and inbox service
	repo := conversationRepo.NewConversationRepository(kv)
	inbox := service.NewInboxService(repo, logger.With(slog.String("component", "inbox")))

	// init media resolver
	resolver, err := media.NewResolver(
		logger.With(slog.String("component", "mediaResolver")),
		config.BuilderbotBaseURL,
		config.BuilderbotBotID,
		config.BuilderbotAPIKey,
		&config.MediaMaxRetry,
	)
	if err != nil {
		log.Fatalf("failed to initiate media resolver: %v", err)
	}

	// seed the volatile backend so the dashboard has data in local dev
	if volatile {
		if err := seedInbox(notifyCtx, inbox); err != nil {
			log.Fatalf("failed to seed inbox: %v", err)
		}
	}

	// init http handler
	handler := httpHandler.NewHTTPHandler(
		fmt.Sprintf(":%d", config.HTTPPort),
		inbox,
		resolver,
		config.CORSOrigins,
		logger.With(slog.String("component", "http")),
	)

	wg := sync.WaitGroup{}
	// run http handler
	wg.Go(func() {
		if err := handler.Run(); err != nil {
			logger.Error("http server encountered with an error and closed", "error", err.Error())
		}
		// cancel app context if http handler fails
		appCtxCancel()
	})

	// graceful shutdown
	wg.Go(func() {
		<-notifyCtx.Done()
		logger.Info("application shutting down...")

		shutDownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		handler.Shutdown(shutDownCtx)
	})

	wg.Wait()
	os.Exit(0)
}

// selectStorage picks the durable Redis backend when its credential pair is
// configured. Without it, hosted production deployments fail fast; local runs
// fall back to the process-lifetime in-memory map.
func selectStorage(ctx context.Context, config *Config, logger *slog.Logger) (kv storage.KV, volatile bool, err error) {
	if config.HasRedis() {
		rkv, err := redisStorage.NewRedisKV(ctx, config.RedisAddr, config.RedisPassword)
		if err != nil {
			return nil, false, err
		}
		logger.Info("using redis storage backend", "addr", config.RedisAddr)
		return rkv, false, nil
	}

	if IsHostedProduction() {
		return nil, false, errors.New("redis is not configured in production: set REDIS_ADDR and REDIS_PASSWORD")
	}

	logger.Warn("REDIS_ADDR/REDIS_PASSWORD not set, using volatile in-memory storage; all data is lost on restart")
	return memoryStorage.NewMemoryKV(), true, nil
}

// seedInbox populates the in-memory backend with a few mock conversations.
func seedInbox(ctx context.Context, inbox service.Inbox) error {
	now := time.Now().UTC()
	seed := []service.UpsertInput{
		{
			ConversationID: "+5491112345678",
			From:           domain.FromCustomer,
			Text:           "Hola, necesito información sobre sus productos",
			SentAt:         now.Add(-10 * time.Minute),
			ContactName:    "María González",
		},
		{
			ConversationID: "+5491112345678",
			From:           domain.FromAgent,
			Text:           "¡Hola María! Claro, con gusto te ayudo. ¿Qué producto te interesa?",
			SentAt:         now.Add(-8 * time.Minute),
		},
		{
			ConversationID: "+5491112345678",
			From:           domain.FromCustomer,
			Text:           "Me interesa el plan premium",
			SentAt:         now.Add(-5 * time.Minute),
		},
		{
			ConversationID: "+5491123456789",
			From:           domain.FromCustomer,
			Text:           "Perfecto, gracias por la ayuda",
			SentAt:         now.Add(-2 * time.Hour),
			ContactName:    "Juan Pérez",
		},
		{
			ConversationID: "+5491134567890",
			From:           domain.FromCustomer,
			Text:           "¿Cuál es el precio del plan premium?",
			SentAt:         now.Add(-30 * time.Minute),
			ContactName:    "Ana Martínez",
		},
	}

	for _, input := range seed {
		if _, err := inbox.Upsert(ctx, input); err != nil {
			return err
		}
	}
	return nil
}
