package contract

import (
	"context"
	"time"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredCacheEntry wraps a CacheEntry with its cosine similarity to the query
// embedding, generalized from contract.ScoredNoteEmbedding.
type ScoredCacheEntry struct {
	Entry      *entity.CacheEntry
	Similarity float64
}

type CacheEntryRepository interface {
	Create(ctx context.Context, entry *entity.CacheEntry) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CacheEntry, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CacheEntry, error)

	// SearchSimilarWithScore returns the best-matching, non-expired cache entries
	// for a user above the similarity threshold, ordered by similarity descending.
	SearchSimilarWithScore(ctx context.Context, userID uuid.UUID, embedding []float32, threshold float64, limit int, now time.Time) ([]*ScoredCacheEntry, error)

	RecordHit(ctx context.Context, cacheID uuid.UUID, now time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}
