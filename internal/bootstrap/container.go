package bootstrap

import (
	"context"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"org-diagnostics-be/internal/config"
	"org-diagnostics-be/internal/constant"
	"org-diagnostics-be/internal/controller"
	"org-diagnostics-be/internal/handler"
	"org-diagnostics-be/internal/pkg/logger"
	"org-diagnostics-be/internal/pkg/serverutils"
	"org-diagnostics-be/internal/repository/unitofwork"
	"org-diagnostics-be/internal/service"
	"org-diagnostics-be/internal/websocket"
	"org-diagnostics-be/pkg/embedding"
	"org-diagnostics-be/pkg/llm/factory"
	pktNats "org-diagnostics-be/pkg/nats"
	"org-diagnostics-be/pkg/rag/retriever"
)

type Container struct {
	// Controllers
	DiagnosisController controller.IDiagnosisController
	ChatController      controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	embeddingProvider, err := embedding.NewEmbeddingProvider(
		cfg.Ai.EmbeddingProvider,
		embeddingApiKey(cfg),
		cfg.Ai.EmbeddingModel,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Embedding Provider: %v", err)
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		llmApiKey(cfg),
		cfg.Ai.StreamTimeout,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis (cross-instance websocket fanout; optional)
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Services
	rtr := retriever.NewRetriever(embeddingProvider, service.NewKnowledgeMatcher(uowFactory))

	publisherService := service.NewPublisherService(constant.ExtractInsightsTopic, pubSub)
	extractionService := service.NewExtractionService(uowFactory, llmProvider, natsPub, sysLogger)
	consumerService := service.NewConsumerService(
		pubSub,
		constant.ExtractInsightsTopic,
		extractionService,
		cfg.Ai.ExtractionTimeout,
	)

	diagnosisService := service.NewDiagnosisService(uowFactory)
	chatService := service.NewChatService(
		uowFactory,
		rtr,
		llmProvider,
		publisherService,
		sysLogger,
		cfg.Ai.StreamTimeout,
		cfg.Ai.MaxTokens,
	)

	notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go notifService.Start()
	}

	notifHandler := handler.NewNotificationHandler(wsHub, wsLogger, cfg.App.JWTSecret)

	// 5. Controllers
	authMiddleware := serverutils.NewJwtMiddleware(cfg.App.JWTSecret)
	return &Container{
		DiagnosisController: controller.NewDiagnosisController(diagnosisService, extractionService, authMiddleware),
		ChatController:      controller.NewChatController(chatService, sysLogger, authMiddleware),

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,

		ConsumerService: consumerService,
	}
}

// Query and document vectors must come from the same account, so the key
// follows the embedding provider, not the completion provider.
func embeddingApiKey(cfg *config.Config) string {
	if cfg.Ai.EmbeddingProvider == "zhipu" {
		return cfg.Keys.Zhipu
	}
	return cfg.Keys.OpenAI
}

func llmApiKey(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "openai" {
		return cfg.Keys.OpenAI
	}
	return cfg.Keys.Zhipu
}
