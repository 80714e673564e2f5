package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DiagnosisSession holds one diagnostic engagement. Each of the five data
// columns is a JSONB slot for that dimension's extracted insight; a slot is
// replaced as a whole, never merged field by field.
type DiagnosisSession struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Status       string    `gorm:"type:text;not null;default:'active'"`
	CurrentStage string    `gorm:"type:text;not null;default:'strategy'"`

	DataStrategy     datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	DataStructure    datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	DataPerformance  datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	DataCompensation datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	DataTalent       datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	TotalScore    int            `gorm:"default:0"`
	SummaryReport *string        `gorm:"type:text"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (DiagnosisSession) TableName() string {
	return "diagnosis_sessions"
}
