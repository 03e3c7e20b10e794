package bootstrap

import (
	"context"
	"fmt"
	"log"

	"ai-policydesk-be/internal/config"
	"ai-policydesk-be/internal/controller"
	"ai-policydesk-be/internal/metrics"
	"ai-policydesk-be/internal/pkg/logger"
	"ai-policydesk-be/internal/repository/contract"
	"ai-policydesk-be/internal/repository/memory"
	"ai-policydesk-be/internal/repository/postgres"
	redisRepo "ai-policydesk-be/internal/repository/redis"
	"ai-policydesk-be/internal/repository/unitofwork"
	"ai-policydesk-be/internal/service"
	"ai-policydesk-be/internal/websocket"
	"ai-policydesk-be/pkg/embedding"
	"ai-policydesk-be/pkg/events"
	"ai-policydesk-be/pkg/llm"
	"ai-policydesk-be/pkg/llm/factory"
	pktNats "ai-policydesk-be/pkg/nats"
	"ai-policydesk-be/pkg/rag/classifier"
	"ai-policydesk-be/pkg/rag/generator"
	"ai-policydesk-be/pkg/rag/ingest"
	"ai-policydesk-be/pkg/rag/retriever"
	"ai-policydesk-be/pkg/rag/workflow"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	Version = "1.0.0"

	turnEventsTopic = "policydesk.turn_events"
	auditDurable    = "policydesk-audit"
	bootModule      = "BOOT"
)

// policyRetriever is what both retriever backends offer.
type policyRetriever interface {
	workflow.Retriever
	service.Readiness
}

type Container struct {
	// Controllers
	HealthController  controller.IHealthController
	SessionController controller.ISessionController
	ChatController    controller.IChatController

	// Background Services (started by Start)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub
	Metrics         *metrics.PrometheusRecorder

	cfg        *config.Config
	logger     *logger.ZapLogger
	audit      *logger.ZapLogger
	embedder   embedding.EmbeddingProvider
	memIndex   *retriever.MemoryIndex
	pgRetr     *retriever.PgvectorRetriever
	pubSub     *gochannel.GoChannel
	natsPub    *pktNats.Publisher
	natsSub    *pktNats.Subscriber
	redis      *redis.Client
}

// NewContainer wires the application. db may be nil when neither the
// retriever nor the session store is backed by Postgres.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{cfg: cfg}

	// 1. Core Facades
	c.logger = logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c.audit = logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	}

	// 2. AI providers
	embedder, err := newEmbeddingProvider(cfg.Ai)
	if err != nil {
		return nil, err
	}
	c.embedder = embedder
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	llmBaseURL := cfg.Ai.LLMBaseURL
	if llmBaseURL == "" && cfg.Ai.LLMProvider == "ollama" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  llmBaseURL,
		APIKey:   cfg.Ai.LLMAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3. Retriever
	var policies policyRetriever
	switch cfg.Rag.Retriever {
	case "memory":
		c.memIndex = retriever.NewMemoryIndex(embedder)
		policies = c.memIndex
	case "pgvector":
		if uowFactory == nil {
			return nil, fmt.Errorf("pgvector retriever requires DB_CONNECTION_STRING")
		}
		c.pgRetr = retriever.NewPgvectorRetriever(uowFactory, embedder, c.logger)
		policies = c.pgRetr
	default:
		return nil, fmt.Errorf("unsupported retriever: %s", cfg.Rag.Retriever)
	}

	// 4. Session store
	sessionRepo, err := c.newSessionRepository(ctx, uowFactory)
	if err != nil {
		return nil, err
	}

	// 5. Event Bus
	c.pubSub = gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	var publisher events.Publisher = events.NewChannelPublisher(turnEventsTopic, c.pubSub)
	if cfg.App.NatsURL != "" {
		if natsPub, err := pktNats.NewPublisher(ctx, cfg.App.NatsURL); err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher, using in-process events: %v", err)
		} else {
			c.natsPub = natsPub
			publisher = natsPub
			if c.natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL, c.logger); err != nil {
				log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			}
		}
	}

	// 6. Workflow
	c.Metrics = metrics.NewPrometheusRecorder(nil)
	executor := workflow.NewExecutor(
		classifier.NewLLMClassifier(llmProvider),
		policies,
		generator.NewLLMGenerator(llmProvider, llm.WithMaxTokens(cfg.Ai.LLMMaxTokens)),
		c.logger,
		workflow.WithObserver(c.Metrics),
	)

	// 7. Services
	chatService := service.NewChatService(sessionRepo, executor, policies, publisher, c.Metrics, c.logger)
	sessionService := service.NewSessionService(sessionRepo, publisher, c.logger)
	c.ConsumerService = service.NewConsumerService(c.pubSub, turnEventsTopic, c.audit, c.logger)

	c.WebSocketHub = websocket.NewHub(c.logger)

	// 8. Controllers
	c.HealthController = controller.NewHealthController(chatService, Version)
	c.SessionController = controller.NewSessionController(sessionService)
	c.ChatController = controller.NewChatController(chatService, c.WebSocketHub, c.logger)

	return c, nil
}

func newEmbeddingProvider(cfg config.AIConfig) (embedding.EmbeddingProvider, error) {
	switch cfg.EmbeddingProvider {
	case "ollama":
		baseURL := cfg.EmbeddingBaseURL
		if baseURL == "" {
			baseURL = cfg.OllamaBaseURL
		}
		return embedding.NewOllamaProvider(baseURL, cfg.EmbeddingModel), nil
	case "openai":
		if cfg.EmbeddingAPIKey == "" {
			return nil, fmt.Errorf("openai embeddings require EMBEDDING_API_KEY")
		}
		return embedding.NewOpenAIProvider(cfg.EmbeddingAPIKey, cfg.EmbeddingBaseURL, cfg.EmbeddingModel), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}
}

func (c *Container) newSessionRepository(ctx context.Context, uowFactory unitofwork.RepositoryFactory) (contract.SessionRepository, error) {
	switch c.cfg.Session.Store {
	case "memory":
		return memory.NewSessionRepository(c.cfg.Session.TTL), nil
	case "redis":
		opt, err := redis.ParseURL(c.cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: c.cfg.App.RedisURL}
		}
		c.redis = redis.NewClient(opt)
		if err := c.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return redisRepo.NewSessionRepository(c.redis, c.cfg.Session.TTL), nil
	case "postgres":
		if uowFactory == nil {
			return nil, fmt.Errorf("postgres session store requires DB_CONNECTION_STRING")
		}
		return postgres.NewSessionRepository(uowFactory), nil
	default:
		return nil, fmt.Errorf("unsupported session store: %s", c.cfg.Session.Store)
	}
}

// Start launches the hub, the audit consumer and index preparation. The
// server accepts requests right away and reports unhealthy until the
// retriever is ready.
func (c *Container) Start(ctx context.Context) {
	go c.WebSocketHub.Run()

	if c.natsSub != nil {
		if err := c.natsSub.Subscribe(ctx, pktNats.SubjectPrefix+".>", auditDurable, c.ConsumerService.Handle); err != nil {
			c.logger.Error(bootModule, "Failed to subscribe audit consumer", map[string]interface{}{"error": err.Error()})
		}
	} else {
		go func() {
			if err := c.ConsumerService.Consume(ctx); err != nil {
				c.logger.Error(bootModule, "Audit consumer stopped", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	go c.prepareRetriever(ctx)
}

func (c *Container) prepareRetriever(ctx context.Context) {
	if c.pgRetr != nil {
		count, err := c.pgRetr.Refresh(ctx)
		if err != nil {
			c.logger.Error(bootModule, "Policy index unavailable", map[string]interface{}{"error": err.Error()})
			return
		}
		c.logger.Info(bootModule, "Policy index ready", map[string]interface{}{"passages": count})
		return
	}

	ingester := ingest.NewIngester(c.embedder, c.memIndex, c.logger,
		ingest.WithChunking(c.cfg.Rag.ChunkSize, c.cfg.Rag.ChunkOverlap),
	)
	report, err := ingester.IngestDir(ctx, c.cfg.Rag.DocsDir)
	if err != nil {
		c.logger.Error(bootModule, "Failed to index policy documents", map[string]interface{}{
			"docs_dir": c.cfg.Rag.DocsDir,
			"error":    err.Error(),
		})
		return
	}
	c.memIndex.MarkReady()
	c.logger.Info(bootModule, "Policy index ready", map[string]interface{}{
		"documents": report.Documents,
		"pages":     report.Pages,
		"chunks":    report.Chunks,
		"skipped":   report.Skipped,
	})
}

// Close releases connections. It runs after the HTTP server has stopped.
func (c *Container) Close() {
	c.WebSocketHub.Shutdown()
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if err := c.pubSub.Close(); err != nil {
		log.Printf("[WARN] Failed to close event bus: %v", err)
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
	_ = c.audit.Sync()
	_ = c.logger.Sync()
}
