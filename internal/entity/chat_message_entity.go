package entity

import (
	"time"

	"ai-policydesk-be/pkg/rag/agent"
	"ai-policydesk-be/pkg/store"

	"github.com/google/uuid"
)

type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Sender        Sender
	Text          string
	Agent         agent.Kind // agent messages only
	Citations     []store.Citation
	ExecutedSteps []string
	CreatedAt     time.Time
}

func (m ChatMessage) Clone() ChatMessage {
	m.Citations = append([]store.Citation(nil), m.Citations...)
	m.ExecutedSteps = append([]string(nil), m.ExecutedSteps...)
	return m
}
