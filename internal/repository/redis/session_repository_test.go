package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/pkg/rag/agent"
	"ai-policydesk-be/pkg/store"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	sessionID := uuid.New()
	in := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionID,
		Sender:        entity.SenderAgent,
		Text:          "[IT Support] Use the VPN.",
		Agent:         agent.IT,
		Citations:     []store.Citation{{SourceDocument: "vpn.md", PageNumber: 1, Rank: 1, Preview: "Use"}},
		ExecutedSteps: []string{"IT Entry"},
		CreatedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	out := recordToMessage(sessionID, messageToRecord(in))
	assert.Equal(t, *in, out)

	empty := recordToMessage(sessionID, messageRecord{Sender: "user"})
	assert.NotNil(t, empty.Citations)
	assert.NotNil(t, empty.ExecutedSteps)
}

// Needs a running Redis: REDIS_TEST_URL=redis://localhost:6379/15
func TestSessionRepository_Redis(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opt, err := goredis.ParseURL(url)
	require.NoError(t, err)
	rdb := goredis.NewClient(opt)
	defer rdb.Close()

	ctx := context.Background()
	repo := NewSessionRepository(rdb, time.Minute)

	session, err := repo.Create(ctx)
	require.NoError(t, err)
	defer repo.Delete(ctx, session.Id)

	ok, err := repo.AppendMessage(ctx, session.Id, &entity.ChatMessage{Sender: entity.SenderUser, Text: "hello"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetActiveAgent(ctx, session.Id, agent.IT)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.FindByID(ctx, session.Id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, agent.IT, got.ActiveAgent)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hello", got.Messages[0].Text)

	ok, err = repo.SetActiveAgent(ctx, uuid.New(), agent.HR)
	require.NoError(t, err)
	assert.False(t, ok)

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSessionRepository_RedisWritesDoNotResurrectDeleted(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opt, err := goredis.ParseURL(url)
	require.NoError(t, err)
	rdb := goredis.NewClient(opt)
	defer rdb.Close()

	ctx := context.Background()
	repo := NewSessionRepository(rdb, time.Minute)

	session, err := repo.Create(ctx)
	require.NoError(t, err)
	deleted, err := repo.Delete(ctx, session.Id)
	require.NoError(t, err)
	require.True(t, deleted)

	ok, err := repo.AppendMessage(ctx, session.Id, &entity.ChatMessage{Sender: entity.SenderUser, Text: "late"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.SetActiveAgent(ctx, session.Id, agent.HR)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.FindByID(ctx, session.Id)
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := rdb.Exists(ctx, sessionKey(session.Id), messagesKey(session.Id)).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
