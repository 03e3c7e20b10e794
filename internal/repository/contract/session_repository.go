package contract

import (
	"context"

	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/pkg/rag/agent"

	"github.com/google/uuid"
)

// SessionRepository is the conversation store used by the chat services.
// Backends: memory (go-cache), redis and postgres.
//
// FindByID returns nil, nil for an unknown id. The bool results report
// whether the session existed.
type SessionRepository interface {
	Create(ctx context.Context) (*entity.ChatSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error)
	AppendMessage(ctx context.Context, id uuid.UUID, message *entity.ChatMessage) (bool, error)
	SetActiveAgent(ctx context.Context, id uuid.UUID, kind agent.Kind) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
