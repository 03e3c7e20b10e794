package dto

import (
	"github.com/google/uuid"
)

type ChatRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
	Message   string    `json:"message" validate:"required,max=4000"`
	// Agent is the client's idea of who it is talking to. The session's
	// stored agent wins when they differ.
	Agent string `json:"agent" validate:"omitempty,oneof=personal hr it"`
}

type SourceDTO struct {
	Source  string `json:"source"`
	Page    int    `json:"page"`
	Rank    int    `json:"rank"`
	Preview string `json:"preview"`
}

type ChatResponse struct {
	SessionId          uuid.UUID   `json:"session_id"`
	Message            string      `json:"message"`
	Agent              string      `json:"agent"`
	Sources            []SourceDTO `json:"sources"`
	NeedsClarification bool        `json:"needs_clarification"`
	WorkflowPath       []string    `json:"workflow_path"`
}

// Stream event names, shared by SSE and WebSocket transports.
const (
	StreamEventToken    = "token"
	StreamEventReset    = "reset"
	StreamEventComplete = "complete"
	StreamEventError    = "error"
)

type StreamTokenEvent struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

type StreamResetEvent struct {
	Type string `json:"type"`
}

type StreamCompleteEvent struct {
	Type               string      `json:"type"`
	Agent              string      `json:"agent"`
	Sources            []SourceDTO `json:"sources"`
	NeedsClarification bool        `json:"needs_clarification"`
	WorkflowPath       []string    `json:"workflow_path"`
}

type StreamErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
