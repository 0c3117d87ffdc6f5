package bootstrap

import (
	"context"
	"log"
	"os"

	"nutriplan-llm-be/internal/config"
	"nutriplan-llm-be/internal/controller"
	"nutriplan-llm-be/internal/pkg/logger"
	"nutriplan-llm-be/internal/repository/implementation"
	"nutriplan-llm-be/internal/websocket"
	"nutriplan-llm-be/pkg/agent"
	"nutriplan-llm-be/pkg/dataset"
	"nutriplan-llm-be/pkg/embedding"
	"nutriplan-llm-be/pkg/embedding/jina"
	"nutriplan-llm-be/pkg/llm/factory"
	"nutriplan-llm-be/pkg/rag/food"
	"nutriplan-llm-be/pkg/rag/manual"
	"nutriplan-llm-be/pkg/rag/reasoning"
	"nutriplan-llm-be/pkg/rerank"
	"nutriplan-llm-be/pkg/tools/backend"
	"nutriplan-llm-be/pkg/tools/websearch"

	pkgNats "nutriplan-llm-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AiController     controller.IAiController
	SearchController controller.ISearchController
	HealthController controller.IHealthController

	// WebSocket chat transport
	ChatWsHandler *websocket.ChatHandler

	// Background consumers (exposed for main.go to run)
	DatasetWriter *dataset.Writer

	SysLogger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	stdLogger := log.New(os.Stdout, "", log.LstdFlags)

	foodRepo := implementation.NewFoodRepository(db)
	manualRepo := implementation.NewManualRepository(db)

	// 2. Event Bus + Dataset Capture
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	datasetLogger := dataset.NewLogger(pubSub, stdLogger)
	datasetWriter := dataset.NewWriter(pubSub, cfg.Dataset.RefinementLog, cfg.Dataset.GenerationLog, stdLogger)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Ai.JinaAPIKey, cfg.Ai.JinaModel)
		log.Printf("[INFO] Using Embedding Provider: JINA AI (%s)", cfg.Ai.JinaModel)
	} else {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}
	// Queries repeat across turns, cache the vectors
	embeddingProvider = embedding.NewCachedProvider(embeddingProvider, 0)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.LLMAPIKey,
		cfg.Ai.LLMTemperature,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	var reranker rerank.Reranker
	if cfg.Ai.RerankerURL != "" {
		reranker = rerank.NewHTTPReranker(cfg.Ai.RerankerURL)
		log.Printf("[INFO] Using Reranker: %s", cfg.Ai.RerankerURL)
	} else {
		log.Printf("[INFO] Reranker disabled (RERANKER_URL not set)")
	}

	// 3.5 Infrastructure
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

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
		rdb = nil
	}

	// 4. RAG + Tools
	foodRAG := food.NewPipeline(foodRepo, embeddingProvider, reranker, stdLogger)
	manualRAG := manual.NewPipeline(manualRepo, embeddingProvider, stdLogger)
	reasoner := reasoning.NewReasoner(llmProvider, datasetLogger, stdLogger)
	backendClient := backend.NewClient(cfg.Tools.BackendURL, stdLogger)
	webSearchClient := websearch.NewClient(cfg.Tools.WebSearchEndpoint, rdb, stdLogger)

	// 5. Agent
	var analytics agent.AnalyticsPublisher
	if natsPub != nil {
		analytics = natsPub
	}
	mealPlannerAgent := agent.NewMealPlannerAgent(
		foodRAG,
		manualRAG,
		reasoner,
		llmProvider,
		backendClient,
		webSearchClient,
		datasetLogger,
		analytics,
		stdLogger,
	)

	return &Container{
		AiController:     controller.NewAiController(mealPlannerAgent),
		SearchController: controller.NewSearchController(foodRAG, manualRAG),
		HealthController: controller.NewHealthController(db),
		ChatWsHandler:    websocket.NewChatHandler(mealPlannerAgent, sysLogger),
		DatasetWriter:    datasetWriter,
		SysLogger:        sysLogger,
	}
}
