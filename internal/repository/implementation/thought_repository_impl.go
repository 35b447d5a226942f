package implementation

import (
	"encoding/json"
	"errors"
	"time"

	"context"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/mapper"
	"thoughtstream/internal/model"
	"thoughtstream/internal/repository/contract"
	"thoughtstream/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ThoughtRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ThoughtMapper
}

func NewThoughtRepository(db *gorm.DB) contract.ThoughtRepository {
	return &ThoughtRepositoryImpl{db: db, mapper: mapper.NewThoughtMapper()}
}

func (r *ThoughtRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ThoughtRepositoryImpl) Create(ctx context.Context, thought *entity.Thought) error {
	m, err := r.mapper.ToModel(thought)
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
	*thought = *saved
	return nil
}

func (r *ThoughtRepositoryImpl) Update(ctx context.Context, thought *entity.Thought) error {
	m, err := r.mapper.ToModel(thought)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	saved, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*thought = *saved
	return nil
}

func (r *ThoughtRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Thought, error) {
	var m model.Thought
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *ThoughtRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Thought, error) {
	var models []*model.Thought
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Thought, len(models))
	for i, m := range models {
		e, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		entities[i] = e
	}
	return entities, nil
}

func (r *ThoughtRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Thought{}).Count(&count).Error
	return count, err
}

// BeginProcessing is the single UPDATE ... WHERE status IN (...) compare-and-set
// that makes this method the sole authority over the pending/failed -> processing
// transition (internal/sink.BeginProcessing wraps this call directly).
func (r *ThoughtRepositoryImpl) BeginProcessing(ctx context.Context, thoughtID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Thought{}).
		Where("id = ? AND status IN ?", thoughtID, []string{string(entity.ThoughtStatusPending), string(entity.ThoughtStatusFailed)}).
		Updates(map[string]interface{}{
			"status":                string(entity.ThoughtStatusProcessing),
			"attempt_count":         gorm.Expr("attempt_count + 1"),
			"processing_started_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// WriteStage guards the column-is-null predicate in SQL rather than in Go so a
// concurrent duplicate delivery racing this one loses the UPDATE, not just the
// read-modify-write in application memory.
func (r *ThoughtRepositoryImpl) WriteStage(ctx context.Context, thoughtID uuid.UUID, stage entity.StageName, raw []byte) (bool, error) {
	column, err := stageColumn(stage)
	if err != nil {
		return false, err
	}
	result := r.db.WithContext(ctx).
		Model(&model.Thought{}).
		Where("id = ? AND status = ? AND "+column+" IS NULL", thoughtID, string(entity.ThoughtStatusProcessing)).
		Update(column, json.RawMessage(raw))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func stageColumn(stage entity.StageName) (string, error) {
	switch stage {
	case entity.StageClassification:
		return "classification", nil
	case entity.StageAnalysis:
		return "analysis", nil
	case entity.StageValueImpact:
		return "value_impact", nil
	case entity.StageActionPlan:
		return "action_plan", nil
	case entity.StagePriority:
		return "priority", nil
	default:
		return "", errors.New("thought_repository: unknown stage " + string(stage))
	}
}

func (r *ThoughtRepositoryImpl) Complete(ctx context.Context, thoughtID uuid.UUID, embedding []float32, contextVersion int, now time.Time) error {
	updates := map[string]interface{}{
		"status":          string(entity.ThoughtStatusCompleted),
		"processed_at":    now,
		"context_version": contextVersion,
	}
	if len(embedding) > 0 {
		updates["embedding"] = pgvector.NewVector(embedding)
	}
	result := r.db.WithContext(ctx).
		Model(&model.Thought{}).
		Where("id = ?", thoughtID).
		Where("classification IS NOT NULL AND analysis IS NOT NULL AND value_impact IS NOT NULL AND action_plan IS NOT NULL AND priority IS NOT NULL").
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contract.ErrIncompleteStages
	}
	return nil
}

func (r *ThoughtRepositoryImpl) Fail(ctx context.Context, thoughtID uuid.UUID, kind, message string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Thought{}).
		Where("id = ? AND status != ?", thoughtID, string(entity.ThoughtStatusFailed)).
		Updates(map[string]interface{}{
			"status":          string(entity.ThoughtStatusFailed),
			"processed_at":    now,
			"failure_kind":    kind,
			"failure_message": message,
		}).Error
}

func (r *ThoughtRepositoryImpl) ListStuck(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Thought, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []*model.Thought
	err := r.db.WithContext(ctx).
		Where("status = ? AND processing_started_at < ?", string(entity.ThoughtStatusProcessing), cutoff).
		Order("processing_started_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.Thought, len(models))
	for i, m := range models {
		e, err := r.mapper.ToEntity(m)
		if err != nil {
			return nil, err
		}
		entities[i] = e
	}
	return entities, nil
}

func (r *ThoughtRepositoryImpl) RequeueForRetry(ctx context.Context, thoughtID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Thought{}).
		Where("id = ? AND status = ?", thoughtID, string(entity.ThoughtStatusProcessing)).
		Updates(map[string]interface{}{
			"status":                string(entity.ThoughtStatusPending),
			"processing_started_at": nil,
		}).Error
}
