package mapper

import (
	"encoding/json"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type CacheEntryMapper struct{}

func NewCacheEntryMapper() *CacheEntryMapper {
	return &CacheEntryMapper{}
}

func (m *CacheEntryMapper) ToEntity(row *model.CacheEntry) (*entity.CacheEntry, error) {
	if row == nil {
		return nil, nil
	}
	var stages entity.StageOutputs
	if len(row.Stages) > 0 {
		if err := json.Unmarshal(row.Stages, &stages); err != nil {
			return nil, err
		}
	}
	return &entity.CacheEntry{
		Id:        row.Id,
		UserId:    row.UserId,
		Text:      row.Text,
		Embedding: row.Embedding.Slice(),
		Stages:    stages,
		HitCount:  row.HitCount,
		LastHitAt: row.LastHitAt,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (m *CacheEntryMapper) ToModel(e *entity.CacheEntry) (*model.CacheEntry, error) {
	if e == nil {
		return nil, nil
	}
	raw, err := json.Marshal(e.Stages)
	if err != nil {
		return nil, err
	}
	return &model.CacheEntry{
		Id:        e.Id,
		UserId:    e.UserId,
		Text:      e.Text,
		Embedding: pgvector.NewVector(e.Embedding),
		Stages:    datatypes.JSON(raw),
		HitCount:  e.HitCount,
		LastHitAt: e.LastHitAt,
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
	}, nil
}
