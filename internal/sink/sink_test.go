package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"thoughtstream/internal/entity"
	"thoughtstream/internal/repository/contract"
	"thoughtstream/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockThoughtRepo struct {
	mock.Mock
}

func (m *mockThoughtRepo) Create(ctx context.Context, thought *entity.Thought) error {
	return m.Called(ctx, thought).Error(0)
}

func (m *mockThoughtRepo) Update(ctx context.Context, thought *entity.Thought) error {
	return m.Called(ctx, thought).Error(0)
}

func (m *mockThoughtRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Thought, error) {
	args := m.Called(ctx, specs)
	t, _ := args.Get(0).(*entity.Thought)
	return t, args.Error(1)
}

func (m *mockThoughtRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Thought, error) {
	args := m.Called(ctx, specs)
	t, _ := args.Get(0).([]*entity.Thought)
	return t, args.Error(1)
}

func (m *mockThoughtRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	args := m.Called(ctx, specs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockThoughtRepo) BeginProcessing(ctx context.Context, thoughtID uuid.UUID, now time.Time) (bool, error) {
	args := m.Called(ctx, thoughtID, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockThoughtRepo) WriteStage(ctx context.Context, thoughtID uuid.UUID, stage entity.StageName, raw []byte) (bool, error) {
	args := m.Called(ctx, thoughtID, stage, raw)
	return args.Bool(0), args.Error(1)
}

func (m *mockThoughtRepo) Complete(ctx context.Context, thoughtID uuid.UUID, embedding []float32, contextVersion int, now time.Time) error {
	return m.Called(ctx, thoughtID, embedding, contextVersion, now).Error(0)
}

func (m *mockThoughtRepo) Fail(ctx context.Context, thoughtID uuid.UUID, kind, message string, now time.Time) error {
	return m.Called(ctx, thoughtID, kind, message, now).Error(0)
}

func (m *mockThoughtRepo) ListStuck(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Thought, error) {
	args := m.Called(ctx, cutoff, limit)
	t, _ := args.Get(0).([]*entity.Thought)
	return t, args.Error(1)
}

func (m *mockThoughtRepo) RequeueForRetry(ctx context.Context, thoughtID uuid.UUID) error {
	return m.Called(ctx, thoughtID).Error(0)
}

var _ contract.ThoughtRepository = (*mockThoughtRepo)(nil)

func TestBeginProcessing_DelegatesToRepository(t *testing.T) {
	repo := new(mockThoughtRepo)
	thoughtID := uuid.New()
	repo.On("BeginProcessing", mock.Anything, thoughtID, mock.Anything).Return(true, nil)

	s := New(repo)
	ok, err := s.BeginProcessing(context.Background(), thoughtID)

	require.NoError(t, err)
	assert.True(t, ok)
	repo.AssertExpectations(t)
}

func TestWriteStage_MarshalsOutput(t *testing.T) {
	repo := new(mockThoughtRepo)
	thoughtID := uuid.New()
	repo.On("WriteStage", mock.Anything, thoughtID, entity.StageClassification, mock.MatchedBy(func(raw []byte) bool {
		return string(raw) == `{"type":"task"}`
	})).Return(true, nil)

	s := New(repo)
	written, err := s.WriteStage(context.Background(), thoughtID, entity.StageClassification, map[string]string{"type": "task"})

	require.NoError(t, err)
	assert.True(t, written)
	repo.AssertExpectations(t)
}

func TestComplete_PropagatesIncompleteStagesError(t *testing.T) {
	repo := new(mockThoughtRepo)
	thoughtID := uuid.New()
	repo.On("Complete", mock.Anything, thoughtID, mock.Anything, 3, mock.Anything).
		Return(contract.ErrIncompleteStages)

	s := New(repo)
	err := s.Complete(context.Background(), thoughtID, []float32{0.1, 0.2}, 3)

	assert.ErrorIs(t, err, contract.ErrIncompleteStages)
}

func TestFail_ReturnsUnderlyingError(t *testing.T) {
	repo := new(mockThoughtRepo)
	thoughtID := uuid.New()
	sentinel := errors.New("db down")
	repo.On("Fail", mock.Anything, thoughtID, "permanent/invariant", "boom", mock.Anything).Return(sentinel)

	s := New(repo)
	err := s.Fail(context.Background(), thoughtID, "permanent/invariant", "boom")

	assert.ErrorIs(t, err, sentinel)
}
