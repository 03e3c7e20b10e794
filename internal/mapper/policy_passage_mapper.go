package mapper

import (
	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type PolicyPassageMapper struct{}

func NewPolicyPassageMapper() *PolicyPassageMapper {
	return &PolicyPassageMapper{}
}

func (m *PolicyPassageMapper) ToEntity(p *model.PolicyPassage) *entity.PolicyPassage {
	if p == nil {
		return nil
	}

	return &entity.PolicyPassage{
		Id:             p.Id,
		Category:       p.Category,
		SourceDocument: p.SourceDocument,
		PageNumber:     p.PageNumber,
		ChunkIndex:     p.ChunkIndex,
		Content:        p.Content,
		Embedding:      p.Embedding.Slice(),
		CreatedAt:      p.CreatedAt,
	}
}

func (m *PolicyPassageMapper) ToModel(p *entity.PolicyPassage) *model.PolicyPassage {
	if p == nil {
		return nil
	}

	return &model.PolicyPassage{
		Id:             p.Id,
		Category:       p.Category,
		SourceDocument: p.SourceDocument,
		PageNumber:     p.PageNumber,
		ChunkIndex:     p.ChunkIndex,
		Content:        p.Content,
		Embedding:      pgvector.NewVector(p.Embedding),
		CreatedAt:      p.CreatedAt,
	}
}

func (m *PolicyPassageMapper) ToModels(passages []*entity.PolicyPassage) []*model.PolicyPassage {
	models := make([]*model.PolicyPassage, len(passages))
	for i, p := range passages {
		models[i] = m.ToModel(p)
	}
	return models
}
