package cache

import (
	"context"
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

type mockCacheEntryRepo struct {
	mock.Mock
}

var _ contract.CacheEntryRepository = (*mockCacheEntryRepo)(nil)

func (m *mockCacheEntryRepo) Create(ctx context.Context, entry *entity.CacheEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockCacheEntryRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CacheEntry, error) {
	panic("unused in tests")
}

func (m *mockCacheEntryRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CacheEntry, error) {
	panic("unused in tests")
}

func (m *mockCacheEntryRepo) SearchSimilarWithScore(ctx context.Context, userID uuid.UUID, embedding []float32, threshold float64, limit int, now time.Time) ([]*contract.ScoredCacheEntry, error) {
	args := m.Called(ctx, userID, embedding, threshold, limit)
	scored, _ := args.Get(0).([]*contract.ScoredCacheEntry)
	return scored, args.Error(1)
}

func (m *mockCacheEntryRepo) RecordHit(ctx context.Context, cacheID uuid.UUID, now time.Time) error {
	return m.Called(ctx, cacheID).Error(0)
}

func (m *mockCacheEntryRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx)
	return int64(args.Int(0)), args.Error(1)
}

func (m *mockCacheEntryRepo) CountByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	args := m.Called(ctx, userID)
	return int64(args.Int(0)), args.Error(1)
}

func TestLookup_ReturnsMissWhenNothingQualifies(t *testing.T) {
	repo := new(mockCacheEntryRepo)
	repo.On("SearchSimilarWithScore", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*contract.ScoredCacheEntry{}, nil)

	c := New(repo, DefaultConfig())
	outputs, ok, err := c.Lookup(context.Background(), uuid.New(), []float32{0.1, 0.2})

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, outputs)
}

func TestLookup_RecordsHitOnMatch(t *testing.T) {
	repo := new(mockCacheEntryRepo)
	entryID := uuid.New()
	stages := entity.StageOutputs{Classification: &entity.ClassificationResult{Type: "task"}}
	repo.On("SearchSimilarWithScore", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*contract.ScoredCacheEntry{
			{Entry: &entity.CacheEntry{Id: entryID, Stages: stages}, Similarity: 0.97},
		}, nil)
	repo.On("RecordHit", mock.Anything, entryID).Return(nil)

	c := New(repo, DefaultConfig())
	outputs, ok, err := c.Lookup(context.Background(), uuid.New(), []float32{0.1, 0.2})

	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, outputs.Classification)
	assert.Equal(t, "task", outputs.Classification.Type)
	repo.AssertCalled(t, "RecordHit", mock.Anything, entryID)
}

func TestLookup_PropagatesSearchError(t *testing.T) {
	repo := new(mockCacheEntryRepo)
	sentinel := assert.AnError
	repo.On("SearchSimilarWithScore", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, sentinel)

	c := New(repo, DefaultConfig())
	_, ok, err := c.Lookup(context.Background(), uuid.New(), []float32{0.1})

	assert.False(t, ok)
	assert.ErrorIs(t, err, sentinel)
}

func TestStore_SetsExpiryFromTTL(t *testing.T) {
	repo := new(mockCacheEntryRepo)
	var captured *entity.CacheEntry
	repo.On("Create", mock.Anything, mock.MatchedBy(func(e *entity.CacheEntry) bool {
		captured = e
		return true
	})).Return(nil)

	cfg := Config{SimilarityThreshold: 0.9, TTL: time.Hour}
	c := New(repo, cfg)
	err := c.Store(context.Background(), uuid.New(), "buy milk", []float32{0.1}, entity.StageOutputs{})

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.WithinDuration(t, captured.CreatedAt.Add(time.Hour), captured.ExpiresAt, time.Second)
}

func TestEmbeddingMemo_RoundTrips(t *testing.T) {
	memo := NewEmbeddingMemo(time.Minute)
	_, found := memo.Get("hello world")
	assert.False(t, found)

	memo.Set("hello world", []float32{1, 2, 3})
	got, found := memo.Get("hello world")
	assert.True(t, found)
	assert.Equal(t, []float32{1, 2, 3}, got)
}
