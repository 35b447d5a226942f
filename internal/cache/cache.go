// Package cache implements the semantic cache: reuse of a prior pipeline run's
// five-stage output for a new thought whose embedding is similar enough to
// one already stored for the same user. It is best-effort throughout — every
// exported method returns its error rather than swallowing it, but
// internal/pipeline treats any error identically to a miss.
package cache

import (
	"context"
	"math/rand"
	"time"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/repository/contract"

	"github.com/google/uuid"
)

const defaultSweepFraction = 0.02

type Config struct {
	SimilarityThreshold float64
	TTL                 time.Duration
}

func DefaultConfig() Config {
	return Config{SimilarityThreshold: 0.92, TTL: 7 * 24 * time.Hour}
}

type Cache struct {
	entries contract.CacheEntryRepository
	cfg     Config
}

func New(entries contract.CacheEntryRepository, cfg Config) *Cache {
	return &Cache{entries: entries, cfg: cfg}
}

// Lookup returns the best matching cache entry's stage outputs for the user,
// or ok=false if nothing qualifies. Hits are recorded (hit_count, last_hit_at)
// before returning; a failure to record a hit does not fail the lookup.
func (c *Cache) Lookup(ctx context.Context, userID uuid.UUID, embedding []float32) (*entity.StageOutputs, bool, error) {
	now := time.Now().UTC()
	matches, err := c.entries.SearchSimilarWithScore(ctx, userID, embedding, c.cfg.SimilarityThreshold, 1, now)
	if err != nil {
		return nil, false, err
	}
	if len(matches) == 0 {
		return nil, false, nil
	}

	best := matches[0]
	_ = c.entries.RecordHit(ctx, best.Entry.Id, now)
	return &best.Entry.Stages, true, nil
}

// Store saves a new cache entry. It never deduplicates against an existing
// near-identical entry; that is Lookup's job on the next attempt. A sampled
// fraction of Store calls also opportunistically reaps expired entries so
// the table does not require a dedicated cleanup goroutine.
func (c *Cache) Store(ctx context.Context, userID uuid.UUID, text string, embedding []float32, outputs entity.StageOutputs) error {
	now := time.Now().UTC()
	entry := &entity.CacheEntry{
		Id:        uuid.New(),
		UserId:    userID,
		Text:      text,
		Embedding: embedding,
		Stages:    outputs,
		CreatedAt: now,
		ExpiresAt: now.Add(c.cfg.TTL),
	}
	if err := c.entries.Create(ctx, entry); err != nil {
		return err
	}

	if rand.Float64() < defaultSweepFraction {
		if _, err := c.entries.DeleteExpired(ctx, now); err != nil {
			return err
		}
	}
	return nil
}

// Stats reports the number of live (non-expired) cache entries for a user,
// backing the supplemented GET /v1/internal/cache/:user_id/stats endpoint.
func (c *Cache) Stats(ctx context.Context, userID uuid.UUID) (int64, error) {
	return c.entries.CountByUser(ctx, userID, time.Now().UTC())
}
