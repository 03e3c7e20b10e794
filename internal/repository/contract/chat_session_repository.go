package contract

import (
	"context"

	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/internal/repository/specification"
	"ai-policydesk-be/pkg/rag/agent"

	"github.com/google/uuid"
)

// ChatSessionRepository reports a missing session as false rather than an
// error on the mutating calls.
type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	Touch(ctx context.Context, id uuid.UUID) (bool, error)
	SetActiveAgent(ctx context.Context, id uuid.UUID, kind agent.Kind) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
