package retriever

import (
	"context"
	"fmt"
	"sync/atomic"

	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/internal/pkg/logger"
	"ai-policydesk-be/internal/repository/unitofwork"
	"ai-policydesk-be/pkg/embedding"
	"ai-policydesk-be/pkg/rag/ingest"
	"ai-policydesk-be/pkg/store"
)

const moduleName = "RETRIEVER"

// PgvectorRetriever searches policy passages stored in Postgres. It is
// also the ingest.Sink used by the ingest command.
type PgvectorRetriever struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	logger     logger.ILogger
	ready      atomic.Bool
}

func NewPgvectorRetriever(uowFactory unitofwork.RepositoryFactory, embedder embedding.EmbeddingProvider, log logger.ILogger) *PgvectorRetriever {
	return &PgvectorRetriever{
		uowFactory: uowFactory,
		embedder:   embedder,
		logger:     log,
	}
}

// Refresh checks the passage table and marks the retriever ready when
// the table can be read. An empty table is reported but still ready.
func (r *PgvectorRetriever) Refresh(ctx context.Context) (int64, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)

	count, err := uow.PolicyPassageRepository().Count(ctx)
	if err != nil {
		r.ready.Store(false)
		return 0, fmt.Errorf("count passages: %w", err)
	}

	if count == 0 {
		r.logger.Warn(moduleName, "No policy passages stored, run the ingest command", nil)
	}
	r.ready.Store(true)
	return count, nil
}

func (r *PgvectorRetriever) Ready() bool {
	return r.ready.Load()
}

func (r *PgvectorRetriever) Retrieve(ctx context.Context, query, category string, numResults int) ([]store.Passage, error) {
	if !r.Ready() {
		return nil, ErrNotReady
	}

	res, err := r.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	uow := r.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.PolicyPassageRepository().SearchSimilar(ctx, res.Embedding.Values, category, numResults)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	passages := make([]store.Passage, 0, len(scored))
	for i, s := range scored {
		passages = append(passages, store.Passage{
			Content:        s.Passage.Content,
			SourceDocument: s.Passage.SourceDocument,
			PageNumber:     s.Passage.PageNumber,
			Rank:           i + 1,
			Score:          float32(s.Similarity),
		})
	}

	r.logger.Debug(moduleName, "Vector search done", map[string]interface{}{
		"category": category,
		"results":  len(passages),
	})
	return passages, nil
}

// Replace swaps a document's stored passages in one transaction.
func (r *PgvectorRetriever) Replace(ctx context.Context, category, source string, chunks []ingest.Chunk) error {
	uow := r.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.PolicyPassageRepository().DeleteBySourceDocument(ctx, category, source); err != nil {
		return err
	}

	passages := make([]*entity.PolicyPassage, 0, len(chunks))
	for _, c := range chunks {
		passages = append(passages, &entity.PolicyPassage{
			Category:       c.Category,
			SourceDocument: c.SourceDocument,
			PageNumber:     c.PageNumber,
			ChunkIndex:     c.ChunkIndex,
			Content:        c.Content,
			Embedding:      c.Embedding,
		})
	}
	if err := uow.PolicyPassageRepository().CreateBulk(ctx, passages); err != nil {
		return err
	}

	return uow.Commit()
}
