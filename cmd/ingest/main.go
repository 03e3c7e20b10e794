// Command ingest loads the policy documents under DOCS_DIR into the
// pgvector table. Re-running replaces the passages of each document.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"ai-policydesk-be/internal/config"
	"ai-policydesk-be/internal/pkg/logger"
	"ai-policydesk-be/internal/repository/unitofwork"
	"ai-policydesk-be/pkg/database"
	"ai-policydesk-be/pkg/embedding"
	"ai-policydesk-be/pkg/rag/ingest"
	"ai-policydesk-be/pkg/rag/retriever"
)

func main() {
	cfg := config.Load()

	docsDir := flag.String("docs", cfg.Rag.DocsDir, "policy documents root, one sub-directory per category")
	concurrency := flag.Int("concurrency", 4, "parallel embedding requests")
	flag.Parse()

	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := database.EnsureExtensions(ctx, cfg.Database.Connection); err != nil {
		log.Fatalf("Error: Failed to create extensions: %v", err)
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	var embedder embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "openai":
		embedder = embedding.NewOpenAIProvider(cfg.Ai.EmbeddingAPIKey, cfg.Ai.EmbeddingBaseURL, cfg.Ai.EmbeddingModel)
	default:
		baseURL := cfg.Ai.EmbeddingBaseURL
		if baseURL == "" {
			baseURL = cfg.Ai.OllamaBaseURL
		}
		embedder = embedding.NewOllamaProvider(baseURL, cfg.Ai.EmbeddingModel)
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	sink := retriever.NewPgvectorRetriever(unitofwork.NewRepositoryFactory(db), embedder, sysLogger)
	ingester := ingest.NewIngester(embedder, sink, sysLogger,
		ingest.WithChunking(cfg.Rag.ChunkSize, cfg.Rag.ChunkOverlap),
		ingest.WithConcurrency(*concurrency),
	)

	report, err := ingester.IngestDir(ctx, *docsDir)
	if err != nil {
		log.Fatalf("Error: Ingestion failed: %v", err)
	}

	log.Printf("✅ Ingested %d documents (%d pages, %d chunks), skipped %d files",
		report.Documents, report.Pages, report.Chunks, len(report.Skipped))
}
