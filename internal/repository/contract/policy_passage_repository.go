package contract

import (
	"context"

	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/internal/repository/specification"
)

// ScoredPolicyPassage wraps a PolicyPassage with its cosine similarity.
type ScoredPolicyPassage struct {
	Passage    *entity.PolicyPassage
	Similarity float64 // 1.0 = identical
}

type PolicyPassageRepository interface {
	CreateBulk(ctx context.Context, passages []*entity.PolicyPassage) error
	DeleteBySourceDocument(ctx context.Context, category, source string) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar orders by cosine distance; an empty category searches everything.
	SearchSimilar(ctx context.Context, embedding []float32, category string, limit int) ([]*ScoredPolicyPassage, error)
}
