package postgres

import (
	"context"
	"fmt"

	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/internal/repository/contract"
	"ai-policydesk-be/internal/repository/specification"
	"ai-policydesk-be/internal/repository/unitofwork"
	"ai-policydesk-be/pkg/rag/agent"

	"github.com/google/uuid"
)

// SessionRepository persists sessions and their messages through gorm.
type SessionRepository struct {
	uowFactory unitofwork.RepositoryFactory
}

var _ contract.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(uowFactory unitofwork.RepositoryFactory) *SessionRepository {
	return &SessionRepository{uowFactory: uowFactory}
}

func (r *SessionRepository) Create(ctx context.Context) (*entity.ChatSession, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)

	session := &entity.ChatSession{ActiveAgent: agent.General}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Messages = []entity.ChatMessage{}
	return session, nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil || session == nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	session.Messages = messages
	return session, nil
}

func (r *SessionRepository) AppendMessage(ctx context.Context, id uuid.UUID, message *entity.ChatMessage) (bool, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}
	defer uow.Rollback()

	// Touch first so the session row stays locked until the message is in.
	found, err := uow.ChatSessionRepository().Touch(ctx, id)
	if err != nil || !found {
		return false, err
	}

	message.ChatSessionId = id
	if err := uow.ChatMessageRepository().Create(ctx, message); err != nil {
		return false, fmt.Errorf("append message: %w", err)
	}

	return true, uow.Commit()
}

func (r *SessionRepository) SetActiveAgent(ctx context.Context, id uuid.UUID, kind agent.Kind) (bool, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)

	found, err := uow.ChatSessionRepository().SetActiveAgent(ctx, id, kind)
	if err != nil {
		return false, fmt.Errorf("set active agent: %w", err)
	}
	return found, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}
	defer uow.Rollback()

	found, err := uow.ChatSessionRepository().Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	if !found {
		return false, nil
	}
	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, id); err != nil {
		return false, fmt.Errorf("delete messages: %w", err)
	}

	return true, uow.Commit()
}
