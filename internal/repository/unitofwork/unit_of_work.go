package unitofwork

import (
	"context"

	"ai-policydesk-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	PolicyPassageRepository() contract.PolicyPassageRepository
}
