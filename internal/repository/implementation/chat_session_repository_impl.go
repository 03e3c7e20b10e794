package implementation

import (
	"context"
	"errors"
	"time"

	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/internal/mapper"
	"ai-policydesk-be/internal/model"
	"ai-policydesk-be/internal/repository/contract"
	"ai-policydesk-be/internal/repository/specification"
	"ai-policydesk-be/pkg/rag/agent"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatSessionRepository(db *gorm.DB) contract.ChatSessionRepository {
	return &ChatSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatSessionRepositoryImpl) Create(ctx context.Context, session *entity.ChatSession) error {
	m := r.mapper.ChatSessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ChatSessionToEntity(m)
	return nil
}

func (r *ChatSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	var m model.ChatSession
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatSessionToEntity(&m), nil
}

// Touch bumps updated_at. Inside a transaction it also holds the row lock
// until commit, which orders concurrent appends to one session.
func (r *ChatSessionRepositoryImpl) Touch(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.updateColumn(ctx, id, "updated_at", time.Now())
}

func (r *ChatSessionRepositoryImpl) SetActiveAgent(ctx context.Context, id uuid.UUID, kind agent.Kind) (bool, error) {
	return r.updateColumn(ctx, id, "active_agent", string(kind))
}

func (r *ChatSessionRepositoryImpl) updateColumn(ctx context.Context, id uuid.UUID, column string, value interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.ChatSession{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ChatSessionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&model.ChatSession{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
