package mapper

import (
	"time"

	"ai-policydesk-be/internal/entity"
	"ai-policydesk-be/internal/model"
	"ai-policydesk-be/pkg/rag/agent"
	"ai-policydesk-be/pkg/store"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:          s.Id,
		ActiveAgent: agent.Kind(s.ActiveAgent),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   updatedAt,
		Messages:    []entity.ChatMessage{},
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	active := s.ActiveAgent
	if active == "" {
		active = agent.General
	}

	return &model.ChatSession{
		Id:          s.Id,
		ActiveAgent: string(active),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   updatedAt,
	}
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	citations := []store.Citation(msg.Citations)
	if citations == nil {
		citations = []store.Citation{}
	}
	steps := []string(msg.ExecutedSteps)
	if steps == nil {
		steps = []string{}
	}

	return &entity.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Sender:        entity.Sender(msg.Sender),
		Text:          msg.Text,
		Agent:         agent.Kind(msg.Agent),
		Citations:     citations,
		ExecutedSteps: steps,
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	return &model.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Sender:        string(msg.Sender),
		Text:          msg.Text,
		Agent:         string(msg.Agent),
		Citations:     msg.Citations,
		ExecutedSteps: msg.ExecutedSteps,
		CreatedAt:     msg.CreatedAt,
	}
}

func (m *ChatMapper) ChatMessagesToEntities(msgs []*model.ChatMessage) []entity.ChatMessage {
	entities := make([]entity.ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		entities = append(entities, *m.ChatMessageToEntity(msg))
	}
	return entities
}
