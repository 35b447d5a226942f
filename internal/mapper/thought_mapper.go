package mapper

import (
	"encoding/json"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ThoughtMapper struct{}

func NewThoughtMapper() *ThoughtMapper {
	return &ThoughtMapper{}
}

func (m *ThoughtMapper) ToEntity(row *model.Thought) (*entity.Thought, error) {
	if row == nil {
		return nil, nil
	}

	stages, err := decodeStages(row.Classification, row.Analysis, row.ValueImpact, row.ActionPlan, row.Priority)
	if err != nil {
		return nil, err
	}

	var embedding []float32
	if len(row.Embedding.Slice()) > 0 {
		embedding = row.Embedding.Slice()
	}

	return &entity.Thought{
		Id:                  row.Id,
		UserId:              row.UserId,
		Text:                row.Text,
		Status:              entity.ThoughtStatus(row.Status),
		AttemptCount:        row.AttemptCount,
		Stages:              stages,
		Embedding:           embedding,
		ContextVersion:      row.ContextVersion,
		CreatedAt:           row.CreatedAt,
		ProcessingStartedAt: row.ProcessingStartedAt,
		ProcessedAt:         row.ProcessedAt,
		FailureKind:         row.FailureKind,
		FailureMessage:      row.FailureMessage,
	}, nil
}

func (m *ThoughtMapper) ToModel(e *entity.Thought) (*model.Thought, error) {
	if e == nil {
		return nil, nil
	}

	classification, err := encodeStage(e.Stages.Classification)
	if err != nil {
		return nil, err
	}
	analysis, err := encodeStage(e.Stages.Analysis)
	if err != nil {
		return nil, err
	}
	valueImpact, err := encodeStage(e.Stages.ValueImpact)
	if err != nil {
		return nil, err
	}
	actionPlan, err := encodeStage(e.Stages.ActionPlan)
	if err != nil {
		return nil, err
	}
	priority, err := encodeStage(e.Stages.Priority)
	if err != nil {
		return nil, err
	}

	var vec pgvector.Vector
	if len(e.Embedding) > 0 {
		vec = pgvector.NewVector(e.Embedding)
	}

	return &model.Thought{
		Id:                  e.Id,
		UserId:              e.UserId,
		Text:                e.Text,
		Status:              string(e.Status),
		AttemptCount:        e.AttemptCount,
		Classification:      classification,
		Analysis:            analysis,
		ValueImpact:         valueImpact,
		ActionPlan:          actionPlan,
		Priority:            priority,
		Embedding:           vec,
		ContextVersion:      e.ContextVersion,
		CreatedAt:           e.CreatedAt,
		ProcessingStartedAt: e.ProcessingStartedAt,
		ProcessedAt:         e.ProcessedAt,
		FailureKind:         e.FailureKind,
		FailureMessage:      e.FailureMessage,
	}, nil
}

func decodeStages(classification, analysis, valueImpact, actionPlan, priority datatypes.JSON) (entity.StageOutputs, error) {
	var out entity.StageOutputs

	if err := decodeStage(classification, &out.Classification); err != nil {
		return out, err
	}
	if err := decodeStage(analysis, &out.Analysis); err != nil {
		return out, err
	}
	if err := decodeStage(valueImpact, &out.ValueImpact); err != nil {
		return out, err
	}
	if err := decodeStage(actionPlan, &out.ActionPlan); err != nil {
		return out, err
	}
	if err := decodeStage(priority, &out.Priority); err != nil {
		return out, err
	}
	return out, nil
}

func decodeStage[T any](raw datatypes.JSON, dst **T) error {
	if len(raw) == 0 {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

func encodeStage[T any](v *T) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
