package specification

import "gorm.io/gorm"

// ByCategory matches the policy category case-insensitively.
type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("LOWER(category) = LOWER(?)", s.Category)
}

type BySourceDocument struct {
	SourceDocument string
}

func (s BySourceDocument) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_document = ?", s.SourceDocument)
}
