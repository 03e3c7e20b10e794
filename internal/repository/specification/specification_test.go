package specification

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type row struct {
	Id uuid.UUID
}

// dryRun builds SQL without a live connection.
func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost dbname=dry", PreferSimpleProtocol: true}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestSpecificationsRenderSQL(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name string
		spec Specification
		want string
	}{
		{"by id", ByID{ID: id}, "id = $1"},
		{"by session", ByChatSessionID{ChatSessionID: id}, "chat_session_id = $1"},
		{"by category", ByCategory{Category: "Leave"}, "LOWER(category) = LOWER($1)"},
		{"by source", BySourceDocument{SourceDocument: "leave.txt"}, "source_document = $1"},
		{"order", OrderBy{Field: "created_at"}, "ORDER BY created_at ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows []row
			stmt := tt.spec.Apply(dryRun(t).Table("rows")).Find(&rows).Statement
			assert.Contains(t, stmt.SQL.String(), tt.want)
		})
	}
}
