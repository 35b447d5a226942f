package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UserContext struct {
	UserId    uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Version   int            `gorm:"not null;default:1"`
	Profile   datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (UserContext) TableName() string {
	return "user_contexts"
}
