package bootstrap

import (
	"log"
	"os"

	"ai-tutoring-be/internal/config"
	"ai-tutoring-be/internal/controller"
	"ai-tutoring-be/internal/corpus"
	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/internal/repository/contract"
	"ai-tutoring-be/internal/repository/implementation"
	"ai-tutoring-be/internal/repository/memory"
	"ai-tutoring-be/internal/service"
	"ai-tutoring-be/pkg/embedding"
	"ai-tutoring-be/pkg/llm/factory"
	"ai-tutoring-be/pkg/rag/answer"
	"ai-tutoring-be/pkg/rag/expand"
	"ai-tutoring-be/pkg/rag/pipeline"
	"ai-tutoring-be/pkg/rag/search"

	pktNats "ai-tutoring-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AskController     controller.IAskController
	ContentController controller.IContentController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	ragLogger := initRagLogger()

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	embeddingProvider, err := embedding.NewProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Keys.GoogleGemini,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OllamaEmbeddingModel,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Embedding Provider: %v", err)
	}
	log.Printf("[INFO] Using Embedding Provider: %s", cfg.Ai.EmbeddingProvider)

	// Query embeddings repeat across variants, so cache them
	cachedEmbedding := embedding.NewCachedProvider(embeddingProvider, cfg.Ask.AnswerCacheTTL)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Retrieval Backends
	// Without a database the service still answers from the bundled
	// corpus; only content management and the embedding consumer need
	// Postgres.
	var (
		chunkRepo contract.ChunkRepository
		remote    search.Searcher
	)
	if db != nil {
		chunkRepo = implementation.NewChunkRepository(db)
		remote = search.NewRemoteIndex(chunkRepo, cachedEmbedding, ragLogger)
	} else {
		log.Printf("[WARN] Database not configured, retrieval falls back to the in-memory corpus")
	}
	memoryCorpus := search.NewMemoryCorpus(corpus.Demo(), cachedEmbedding, ragLogger)
	retriever := search.NewRetriever(remote, memoryCorpus, cfg.Ask.PerQueryTopK, cfg.Ask.FinalTopK, ragLogger)

	// 5. RAG Pipeline
	expander := expand.NewExpander(llmProvider, ragLogger)
	generator := answer.NewGenerator(llmProvider, cfg.Ai.FallbackModels, cfg.Ask.BaseRetryDelay, ragLogger)
	ragPipeline := pipeline.NewPipeline(expander, retriever, generator, pipeline.Config{
		MaxContextChars:   cfg.Ask.MaxContextChars,
		ExpansionTimeout:  cfg.Ask.ExpansionTimeout,
		RetrievalTimeout:  cfg.Ask.RetrievalTimeout,
		GenerationTimeout: cfg.Ask.GenerationTimeout,
	}, ragLogger)

	// 6. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis answer cache
	answerCache, err := memory.NewAnswerCache(cfg.App.RedisURL, cfg.Ask.AnswerCacheTTL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to Redis answer cache: %v", err)
	}

	// 7. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Ask.EmbedTopic)

	var (
		consumerService   service.IConsumerService
		contentController controller.IContentController
	)
	if chunkRepo != nil {
		consumerService = service.NewConsumerService(
			pubSub,
			cfg.Ask.EmbedTopic,
			chunkRepo,
			cachedEmbedding,
		)
		contentService := service.NewContentService(chunkRepo, publisherService)
		contentController = controller.NewContentController(contentService)
	}

	askService := service.NewAskService(ragPipeline, answerCache, natsPub, sysLogger)

	// 8. Controllers
	return &Container{
		AskController:     controller.NewAskController(askService),
		ContentController: contentController,

		ConsumerService: consumerService,
	}
}

func initRagLogger() *log.Logger {
	file, err := os.OpenFile("logs/rag.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
