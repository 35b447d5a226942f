package implementation

import (
	"context"
	"errors"
	"time"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/mapper"
	"thoughtstream/internal/model"
	"thoughtstream/internal/repository/contract"
	"thoughtstream/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type CacheEntryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CacheEntryMapper
}

func NewCacheEntryRepository(db *gorm.DB) contract.CacheEntryRepository {
	return &CacheEntryRepositoryImpl{db: db, mapper: mapper.NewCacheEntryMapper()}
}

func (r *CacheEntryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *CacheEntryRepositoryImpl) Create(ctx context.Context, entry *entity.CacheEntry) error {
	m, err := r.mapper.ToModel(entry)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	saved, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*entry = *saved
	return nil
}

func (r *CacheEntryRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CacheEntry, error) {
	var m model.CacheEntry
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *CacheEntryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CacheEntry, error) {
	var models []*model.CacheEntry
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.CacheEntry, len(models))
	for i, m := range models {
		e, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		entities[i] = e
	}
	return entities, nil
}

// SearchSimilarWithScore is note_embedding_repository_impl.go's
// SearchSimilarWithScore generalized from a notes join to a direct user_id
// column and from a hard "not soft-deleted" predicate to an expires_at filter.
func (r *CacheEntryRepositoryImpl) SearchSimilarWithScore(ctx context.Context, userID uuid.UUID, embedding []float32, threshold float64, limit int, now time.Time) ([]*contract.ScoredCacheEntry, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.CacheEntry
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("cache_entries").
		Select("cache_entries.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("user_id = ?", userID).
		Where("expires_at > ?", now).
		Where("1 - (embedding <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Order("created_at DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredCacheEntry, len(results))
	for i, res := range results {
		e, err := r.mapper.ToEntity(&res.CacheEntry)
		if err != nil {
			return nil, err
		}
		scored[i] = &contract.ScoredCacheEntry{Entry: e, Similarity: res.Similarity}
	}
	return scored, nil
}

func (r *CacheEntryRepositoryImpl) RecordHit(ctx context.Context, cacheID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.CacheEntry{}).
		Where("id = ?", cacheID).
		Updates(map[string]interface{}{
			"hit_count":   gorm.Expr("hit_count + 1"),
			"last_hit_at": now,
		}).Error
}

func (r *CacheEntryRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.CacheEntry{})
	return result.RowsAffected, result.Error
}

func (r *CacheEntryRepositoryImpl) CountByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CacheEntry{}).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Count(&count).Error
	return count, err
}
