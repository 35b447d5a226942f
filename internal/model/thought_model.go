package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// Thought is the row model for a unit of work. Stage outputs are stored as
// jsonb columns rather than a normalized child table: they are written
// exactly once each and always read back together, so there is no query
// shape that benefits from normalization.
type Thought struct {
	Id                  uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId              uuid.UUID       `gorm:"type:uuid;not null;index"`
	Text                string          `gorm:"type:text;not null"`
	Status              string          `gorm:"type:varchar(20);not null;default:'pending';index"`
	AttemptCount         int            `gorm:"not null;default:0"`
	Classification       datatypes.JSON `gorm:"type:jsonb"`
	Analysis             datatypes.JSON `gorm:"type:jsonb"`
	ValueImpact          datatypes.JSON `gorm:"type:jsonb"`
	ActionPlan           datatypes.JSON `gorm:"type:jsonb"`
	Priority             datatypes.JSON `gorm:"type:jsonb"`
	Embedding            pgvector.Vector `gorm:"type:vector(768)"`
	ContextVersion        int            `gorm:"not null;default:0"`
	CreatedAt             time.Time      `gorm:"autoCreateTime;index"`
	ProcessingStartedAt   *time.Time
	ProcessedAt           *time.Time
	FailureKind           *string        `gorm:"type:varchar(64)"`
	FailureMessage        *string        `gorm:"type:text"`
}

func (Thought) TableName() string {
	return "thoughts"
}
