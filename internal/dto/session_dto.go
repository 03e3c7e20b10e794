package dto

import (
	"time"

	"github.com/google/uuid"
)

type SessionInfoResponse struct {
	SessionId    uuid.UUID `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
	CurrentAgent string    `json:"current_agent"`
}

type ChatHistoryResponse struct {
	Id           uuid.UUID   `json:"id"`
	Sender       string      `json:"sender"`
	Text         string      `json:"text"`
	Agent        string      `json:"agent,omitempty"`
	Sources      []SourceDTO `json:"sources,omitempty"`
	WorkflowPath []string    `json:"workflow_path,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
}

type HealthResponse struct {
	Status           string `json:"status"` // "healthy" | "unhealthy"
	RagInitialized   bool   `json:"rag_initialized"`
	GraphInitialized bool   `json:"graph_initialized"`
}

type ServiceInfoResponse struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Agents  []string `json:"agents"`
}
