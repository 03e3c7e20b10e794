package service

import (
	"context"
	"testing"
	"time"

	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/internal/repository/memory"
	"ai-policydesk-be/pkg/events"
	"ai-policydesk-be/pkg/rag/agent"
	"ai-policydesk-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository(time.Hour)
	publisher := &recordingPublisher{}
	svc := NewSessionService(repo, publisher, &recordingLogger{})

	info, err := svc.CreateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "personal", info.CurrentAgent)
	assert.Zero(t, info.MessageCount)

	_, err = repo.AppendMessage(ctx, info.SessionId, &entity.ChatMessage{Sender: entity.SenderUser, Text: "leave?"})
	require.NoError(t, err)
	_, err = repo.AppendMessage(ctx, info.SessionId, &entity.ChatMessage{
		Sender:        entity.SenderAgent,
		Text:          "[HR Agent] 20 days.",
		Agent:         agent.HR,
		Citations:     []store.Citation{{SourceDocument: "annual.txt", PageNumber: 2, Rank: 1, Preview: "20 days"}},
		ExecutedSteps: []string{"HR Entry", "HR Retrieval"},
	})
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, info.SessionId)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MessageCount)

	history, err := svc.GetHistory(ctx, info.SessionId)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Sender)
	assert.Empty(t, history[0].Sources)
	assert.Equal(t, "hr", history[1].Agent)
	assert.Equal(t, 2, history[1].Sources[0].Page)
	assert.Equal(t, []string{"HR Entry", "HR Retrieval"}, history[1].WorkflowPath)

	require.NoError(t, svc.DeleteSession(ctx, info.SessionId))
	assert.Equal(t, []string{events.TypeSessionDeleted}, publisher.types())

	_, err = svc.GetSession(ctx, info.SessionId)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewSessionService(memory.NewSessionRepository(time.Hour), nil, &recordingLogger{})

	_, err := svc.GetHistory(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, svc.DeleteSession(ctx, uuid.New()), ErrSessionNotFound)
}
