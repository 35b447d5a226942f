package entity

import (
	"time"

	"github.com/google/uuid"
)

// CacheEntry is a previously-computed five-stage result keyed by a user's
// thought text and its embedding, reused by the semantic cache when a new
// thought is similar enough (see internal/cache).
type CacheEntry struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Text         string
	Embedding    []float32
	Stages       StageOutputs
	HitCount     int
	LastHitAt    *time.Time
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

func (c CacheEntry) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
