package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type PolicyPassage struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Category       string          `gorm:"type:varchar(32);not null;index"`
	SourceDocument string          `gorm:"type:text;not null;index"`
	PageNumber     int             `gorm:"not null"`
	ChunkIndex     int             `gorm:"default:0"` // 0-based within the page
	Content        string          `gorm:"type:text;not null"`
	Embedding      pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text uses 768 dimensions
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (PolicyPassage) TableName() string {
	return "policy_passages"
}
