package implementation

import (
	"context"

	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/internal/mapper"
	"ai-policydesk-be/internal/model"
	"ai-policydesk-be/internal/repository/contract"
	"ai-policydesk-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PolicyPassageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PolicyPassageMapper
}

func NewPolicyPassageRepository(db *gorm.DB) contract.PolicyPassageRepository {
	return &PolicyPassageRepositoryImpl{
		db:     db,
		mapper: mapper.NewPolicyPassageMapper(),
	}
}

func (r *PolicyPassageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PolicyPassageRepositoryImpl) CreateBulk(ctx context.Context, passages []*entity.PolicyPassage) error {
	if len(passages) == 0 {
		return nil
	}
	models := r.mapper.ToModels(passages)

	if err := r.db.WithContext(ctx).CreateInBatches(models, 100).Error; err != nil {
		return err
	}

	for i, m := range models {
		*passages[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

// DeleteBySourceDocument removes a document's chunks so re-ingesting it
// replaces them.
func (r *PolicyPassageRepositoryImpl) DeleteBySourceDocument(ctx context.Context, category, source string) error {
	return r.applySpecifications(r.db.WithContext(ctx),
		specification.ByCategory{Category: category},
		specification.BySourceDocument{SourceDocument: source},
	).Delete(&model.PolicyPassage{}).Error
}

func (r *PolicyPassageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.PolicyPassage{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PolicyPassageRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, category string, limit int) ([]*contract.ScoredPolicyPassage, error) {
	if limit <= 0 {
		limit = 4
	}

	// pgvector cosine distance is 1 - cosine_similarity
	type result struct {
		model.PolicyPassage
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("policy_passages").
		Select("policy_passages.*, 1 - (embedding <=> ?) AS similarity", queryVector)
	if category != "" {
		query = specification.ByCategory{Category: category}.Apply(query)
	}

	err := query.
		Order(gorm.Expr("embedding <=> ?", queryVector)).
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredPolicyPassage, len(results))
	for i := range results {
		scored[i] = &contract.ScoredPolicyPassage{
			Passage:    r.mapper.ToEntity(&results[i].PolicyPassage),
			Similarity: results[i].Similarity,
		}
	}
	return scored, nil
}
