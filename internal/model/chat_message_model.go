package model

import (
	"time"

	"ai-policydesk-be/pkg/store"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMessage struct {
	Id            uuid.UUID                           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId uuid.UUID                           `gorm:"type:uuid;not null;index"`
	Sender        string                              `gorm:"type:varchar(10);not null"`
	Text          string                              `gorm:"type:text;not null"`
	Agent         string                              `gorm:"type:varchar(20)"`
	Citations     datatypes.JSONSlice[store.Citation] `gorm:"type:jsonb"`
	ExecutedSteps datatypes.JSONSlice[string]         `gorm:"type:jsonb"`
	CreatedAt     time.Time                           `gorm:"autoCreateTime"`
	UpdatedAt     time.Time                           `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt                      `gorm:"index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
