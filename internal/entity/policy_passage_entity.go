package entity

import (
	"time"

	"github.com/google/uuid"
)

// PolicyPassage is one embedded chunk of a policy document.
type PolicyPassage struct {
	Id             uuid.UUID
	Category       string
	SourceDocument string
	PageNumber     int
	ChunkIndex     int
	Content        string
	Embedding      []float32
	CreatedAt      time.Time
}
