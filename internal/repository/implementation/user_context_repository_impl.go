package implementation

import (
	"context"
	"errors"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/mapper"
	"thoughtstream/internal/model"
	"thoughtstream/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserContextRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserContextMapper
}

func NewUserContextRepository(db *gorm.DB) contract.UserContextRepository {
	return &UserContextRepositoryImpl{db: db, mapper: mapper.NewUserContextMapper()}
}

func (r *UserContextRepositoryImpl) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.UserContext, error) {
	var m model.UserContext
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *UserContextRepositoryImpl) Upsert(ctx context.Context, ctxEntity *entity.UserContext) error {
	m, err := r.mapper.ToModel(ctxEntity)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "profile", "updated_at"}),
	}).Create(m).Error
}
