package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BySessionID filters transcript rows by their diagnosis session.
type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// ExcludeRole drops transcript rows with the given role. Used to keep
// system-role entries out of the material sent to the extraction model.
type ExcludeRole struct {
	Role string
}

func (s ExcludeRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role <> ?", s.Role)
}

// ByCategory filters knowledge chunks by their dimension tag.
type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category = ?", s.Category)
}
