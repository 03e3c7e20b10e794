package service

import (
	"context"
	"fmt"

	"ai-policydesk-be/internal/dto"
	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/internal/pkg/logger"
	"ai-policydesk-be/internal/repository/contract"
	"ai-policydesk-be/pkg/events"

	"github.com/google/uuid"
)

const sessionModule = "SESSION"

type ISessionService interface {
	CreateSession(ctx context.Context) (*dto.SessionInfoResponse, error)
	GetSession(ctx context.Context, id uuid.UUID) (*dto.SessionInfoResponse, error)
	GetHistory(ctx context.Context, id uuid.UUID) ([]*dto.ChatHistoryResponse, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

type sessionService struct {
	sessionRepo contract.SessionRepository
	publisher   events.Publisher
	logger      logger.ILogger
}

func NewSessionService(sessionRepo contract.SessionRepository, publisher events.Publisher, log logger.ILogger) ISessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		publisher:   publisher,
		logger:      log,
	}
}

func (ss *sessionService) CreateSession(ctx context.Context) (*dto.SessionInfoResponse, error) {
	session, err := ss.sessionRepo.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	ss.logger.Info(sessionModule, "Session created", map[string]interface{}{
		"session_id": session.Id.String(),
	})
	return toSessionInfo(session), nil
}

func (ss *sessionService) GetSession(ctx context.Context, id uuid.UUID) (*dto.SessionInfoResponse, error) {
	session, err := ss.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSessionInfo(session), nil
}

func (ss *sessionService) GetHistory(ctx context.Context, id uuid.UUID) ([]*dto.ChatHistoryResponse, error) {
	session, err := ss.find(ctx, id)
	if err != nil {
		return nil, err
	}

	history := make([]*dto.ChatHistoryResponse, 0, len(session.Messages))
	for _, m := range session.Messages {
		item := &dto.ChatHistoryResponse{
			Id:        m.Id,
			Sender:    string(m.Sender),
			Text:      m.Text,
			Agent:     string(m.Agent),
			Timestamp: m.CreatedAt,
		}
		if m.Sender == entity.SenderAgent {
			item.Sources = toSourceDTOs(m.Citations)
			item.WorkflowPath = m.ExecutedSteps
		}
		history = append(history, item)
	}
	return history, nil
}

func (ss *sessionService) DeleteSession(ctx context.Context, id uuid.UUID) error {
	ok, err := ss.sessionRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}

	if ss.publisher != nil {
		if err := ss.publisher.Publish(ctx, events.NewSessionDeleted(id.String())); err != nil {
			ss.logger.Warn(sessionModule, "Failed to publish event", map[string]interface{}{
				"type":  events.TypeSessionDeleted,
				"error": err.Error(),
			})
		}
	}
	return nil
}

func (ss *sessionService) find(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error) {
	session, err := ss.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func toSessionInfo(s *entity.ChatSession) *dto.SessionInfoResponse {
	return &dto.SessionInfoResponse{
		SessionId:    s.Id,
		CreatedAt:    s.CreatedAt,
		MessageCount: len(s.Messages),
		CurrentAgent: string(s.ActiveAgent),
	}
}
