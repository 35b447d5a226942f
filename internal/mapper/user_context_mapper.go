package mapper

import (
	"encoding/json"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/model"

	"gorm.io/datatypes"
)

type UserContextMapper struct{}

func NewUserContextMapper() *UserContextMapper {
	return &UserContextMapper{}
}

func (m *UserContextMapper) ToEntity(row *model.UserContext) (*entity.UserContext, error) {
	if row == nil {
		return nil, nil
	}
	var profile entity.UserContextProfile
	if len(row.Profile) > 0 {
		if err := json.Unmarshal(row.Profile, &profile); err != nil {
			return nil, err
		}
	}
	return &entity.UserContext{
		UserId:    row.UserId,
		Version:   row.Version,
		Profile:   profile,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (m *UserContextMapper) ToModel(e *entity.UserContext) (*model.UserContext, error) {
	if e == nil {
		return nil, nil
	}
	raw, err := json.Marshal(e.Profile)
	if err != nil {
		return nil, err
	}
	return &model.UserContext{
		UserId:    e.UserId,
		Version:   e.Version,
		Profile:   datatypes.JSON(raw),
		UpdatedAt: e.UpdatedAt,
	}, nil
}
