package entity

import (
	"time"

	"ai-policydesk-be/pkg/rag/agent"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id          uuid.UUID
	ActiveAgent agent.Kind
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	Messages    []ChatMessage
}

// Clone returns a copy that shares no slices with s.
func (s *ChatSession) Clone() *ChatSession {
	if s == nil {
		return nil
	}
	out := *s
	if s.UpdatedAt != nil {
		t := *s.UpdatedAt
		out.UpdatedAt = &t
	}
	out.Messages = make([]ChatMessage, len(s.Messages))
	for i := range s.Messages {
		out.Messages[i] = s.Messages[i].Clone()
	}
	return &out
}
