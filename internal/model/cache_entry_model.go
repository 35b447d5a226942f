package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type CacheEntry struct {
	Id        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Text      string          `gorm:"type:text;not null"`
	Embedding pgvector.Vector `gorm:"type:vector(768);not null"`
	Stages    datatypes.JSON  `gorm:"type:jsonb;not null"`
	HitCount  int             `gorm:"not null;default:0"`
	LastHitAt *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (CacheEntry) TableName() string {
	return "cache_entries"
}
