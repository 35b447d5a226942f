package pipeline

import (
	"context"
	"testing"
	"time"

	"thoughtstream/internal/agent"
	"thoughtstream/internal/cache"
	"thoughtstream/internal/entity"
	"thoughtstream/internal/errkind"
	"thoughtstream/internal/events"
	"thoughtstream/internal/llm"
	"thoughtstream/internal/repository/contract"
	"thoughtstream/internal/repository/specification"
	"thoughtstream/internal/sink"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks -------------------------------------------------------------

type mockThoughtRepo struct{ mock.Mock }

var _ contract.ThoughtRepository = (*mockThoughtRepo)(nil)

func (m *mockThoughtRepo) Create(ctx context.Context, t *entity.Thought) error { return m.Called(ctx, t).Error(0) }
func (m *mockThoughtRepo) Update(ctx context.Context, t *entity.Thought) error { return m.Called(ctx, t).Error(0) }

func (m *mockThoughtRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Thought, error) {
	args := m.Called(ctx)
	thought, _ := args.Get(0).(*entity.Thought)
	return thought, args.Error(1)
}

func (m *mockThoughtRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Thought, error) {
	panic("unused")
}

func (m *mockThoughtRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	panic("unused")
}

func (m *mockThoughtRepo) BeginProcessing(ctx context.Context, thoughtID uuid.UUID, now time.Time) (bool, error) {
	args := m.Called(ctx, thoughtID)
	return args.Bool(0), args.Error(1)
}

func (m *mockThoughtRepo) WriteStage(ctx context.Context, thoughtID uuid.UUID, stage entity.StageName, raw []byte) (bool, error) {
	args := m.Called(ctx, thoughtID, stage)
	return args.Bool(0), args.Error(1)
}

func (m *mockThoughtRepo) Complete(ctx context.Context, thoughtID uuid.UUID, embedding []float32, contextVersion int, now time.Time) error {
	return m.Called(ctx, thoughtID).Error(0)
}

func (m *mockThoughtRepo) Fail(ctx context.Context, thoughtID uuid.UUID, kind, message string, now time.Time) error {
	return m.Called(ctx, thoughtID, kind).Error(0)
}

func (m *mockThoughtRepo) ListStuck(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Thought, error) {
	panic("unused")
}

func (m *mockThoughtRepo) RequeueForRetry(ctx context.Context, thoughtID uuid.UUID) error {
	panic("unused")
}

type mockCacheRepo struct{ mock.Mock }

var _ contract.CacheEntryRepository = (*mockCacheRepo)(nil)

func (m *mockCacheRepo) Create(ctx context.Context, e *entity.CacheEntry) error {
	return m.Called(ctx, e).Error(0)
}
func (m *mockCacheRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CacheEntry, error) {
	panic("unused")
}
func (m *mockCacheRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CacheEntry, error) {
	panic("unused")
}
func (m *mockCacheRepo) SearchSimilarWithScore(ctx context.Context, userID uuid.UUID, embedding []float32, threshold float64, limit int, now time.Time) ([]*contract.ScoredCacheEntry, error) {
	args := m.Called(ctx, userID)
	scored, _ := args.Get(0).([]*contract.ScoredCacheEntry)
	return scored, args.Error(1)
}
func (m *mockCacheRepo) RecordHit(ctx context.Context, cacheID uuid.UUID, now time.Time) error {
	return m.Called(ctx, cacheID).Error(0)
}
func (m *mockCacheRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx)
	return int64(args.Int(0)), args.Error(1)
}
func (m *mockCacheRepo) CountByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	panic("unused")
}

type mockUserContextRepo struct{ mock.Mock }

var _ contract.UserContextRepository = (*mockUserContextRepo)(nil)

func (m *mockUserContextRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.UserContext, error) {
	args := m.Called(ctx, userID)
	uc, _ := args.Get(0).(*entity.UserContext)
	return uc, args.Error(1)
}
func (m *mockUserContextRepo) Upsert(ctx context.Context, e *entity.UserContext) error {
	panic("unused")
}

type mockPublisher struct{ mock.Mock }

var _ Publisher = (*mockPublisher)(nil)

func (m *mockPublisher) Publish(ctx context.Context, userID uuid.UUID, event events.Event) error {
	args := m.Called(ctx, userID, event)
	return args.Error(0)
}

type mockLLMProvider struct{ mock.Mock }

var _ llm.Provider = (*mockLLMProvider)(nil)

func (m *mockLLMProvider) Generate(ctx context.Context, messages []llm.Message, system string, cacheHint bool, maxTokens int) (*llm.Completion, error) {
	args := m.Called()
	c, _ := args.Get(0).(*llm.Completion)
	return c, args.Error(1)
}
func (m *mockLLMProvider) Capabilities() llm.Capabilities {
	return llm.Capabilities{SupportsPromptCache: true, MaxContextTokens: 200000}
}

type mockEmbedder struct{ mock.Mock }

func (m *mockEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	v, _ := args.Get(0).([]float32)
	return v, args.Error(1)
}
func (m *mockEmbedder) Dimensions() int { return 3 }

// --- fixtures ------------------------------------------------------------

func newPendingThought() *entity.Thought {
	return &entity.Thought{
		Id:     uuid.New(),
		UserId: uuid.New(),
		Text:   "buy milk",
		Status: entity.ThoughtStatusPending,
	}
}

func newUserContext(userID uuid.UUID) *entity.UserContext {
	return &entity.UserContext{
		UserId: userID,
		Profile: entity.UserContextProfile{
			ValueWeights: entity.ValueWeights{Economic: 1, Relational: 1, Legacy: 1, Health: 1, Growth: 1},
		},
	}
}

func buildOrchestrator(thoughtRepo *mockThoughtRepo, cacheRepo *mockCacheRepo, userRepo *mockUserContextRepo, embedder *mockEmbedder, provider *mockLLMProvider, publisher *mockPublisher) *Orchestrator {
	return New(
		sink.New(thoughtRepo),
		cache.New(cacheRepo, cache.DefaultConfig()),
		nil,
		embedder,
		agent.New(provider),
		userRepo,
		publisher,
		Config{ContextVersion: 1},
	)
}

// --- scenarios -------------------------------------------------------------

func TestRun_AlreadyCompletedIsIdempotent(t *testing.T) {
	thoughtRepo := new(mockThoughtRepo)
	thought := newPendingThought()
	thought.Status = entity.ThoughtStatusCompleted
	thoughtRepo.On("FindOne", mock.Anything).Return(thought, nil)

	o := buildOrchestrator(thoughtRepo, nil, nil, nil, nil, nil)
	outcome, err := o.Run(context.Background(), thought.Id)

	require.NoError(t, err)
	assert.Equal(t, OK, outcome)
	thoughtRepo.AssertNotCalled(t, "BeginProcessing", mock.Anything, mock.Anything)
}

func TestRun_InProgressReturnsTransientFail(t *testing.T) {
	thoughtRepo := new(mockThoughtRepo)
	publisher := new(mockPublisher)
	thought := newPendingThought()
	thoughtRepo.On("FindOne", mock.Anything).Return(thought, nil)
	thoughtRepo.On("BeginProcessing", mock.Anything, thought.Id).Return(false, nil)

	o := buildOrchestrator(thoughtRepo, nil, nil, nil, nil, publisher)
	outcome, err := o.Run(context.Background(), thought.Id)

	require.Error(t, err)
	assert.Equal(t, TransientFail, outcome)
	kind, ok := errkind.TransientKind(err)
	assert.True(t, ok)
	assert.Equal(t, errkind.TransientInProgress, kind)
}

func TestRun_UnknownUserIsPermanentFail(t *testing.T) {
	thoughtRepo := new(mockThoughtRepo)
	userRepo := new(mockUserContextRepo)
	publisher := new(mockPublisher)
	thought := newPendingThought()
	thoughtRepo.On("FindOne", mock.Anything).Return(thought, nil)
	thoughtRepo.On("BeginProcessing", mock.Anything, thought.Id).Return(true, nil)
	thoughtRepo.On("Fail", mock.Anything, thought.Id, string(errkind.PermanentUnknownUser)).Return(nil)
	userRepo.On("FindByUserID", mock.Anything, thought.UserId).Return(nil, nil)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	o := buildOrchestrator(thoughtRepo, nil, userRepo, nil, nil, publisher)
	outcome, err := o.Run(context.Background(), thought.Id)

	require.Error(t, err)
	assert.Equal(t, PermanentFail, outcome)
	kind, ok := errkind.PermanentKind(err)
	assert.True(t, ok)
	assert.Equal(t, errkind.PermanentUnknownUser, kind)
	thoughtRepo.AssertCalled(t, "Fail", mock.Anything, thought.Id, string(errkind.PermanentUnknownUser))
}

func TestRun_CacheHitSkipsAgentsAndCompletes(t *testing.T) {
	thoughtRepo := new(mockThoughtRepo)
	cacheRepo := new(mockCacheRepo)
	userRepo := new(mockUserContextRepo)
	embedder := new(mockEmbedder)
	publisher := new(mockPublisher)

	thought := newPendingThought()
	thoughtRepo.On("FindOne", mock.Anything).Return(thought, nil)
	thoughtRepo.On("BeginProcessing", mock.Anything, thought.Id).Return(true, nil)
	thoughtRepo.On("WriteStage", mock.Anything, thought.Id, mock.Anything).Return(true, nil)
	thoughtRepo.On("Complete", mock.Anything, thought.Id).Return(nil)
	userRepo.On("FindByUserID", mock.Anything, thought.UserId).Return(newUserContext(thought.UserId), nil)
	embedder.On("Generate", mock.Anything, thought.Text).Return([]float32{0.1, 0.2, 0.3}, nil)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	cachedStages := entity.StageOutputs{
		Classification: &entity.ClassificationResult{Type: "task"},
		Analysis:       &entity.AnalysisResult{},
		ValueImpact:    &entity.ValueImpactResult{},
		ActionPlan:     &entity.ActionPlanResult{},
		Priority:       &entity.PriorityResult{},
	}
	cacheRepo.On("SearchSimilarWithScore", mock.Anything, thought.UserId).Return([]*contract.ScoredCacheEntry{
		{Entry: &entity.CacheEntry{Id: uuid.New(), Stages: cachedStages}, Similarity: 0.99},
	}, nil)
	cacheRepo.On("RecordHit", mock.Anything, mock.Anything).Return(nil)

	o := buildOrchestrator(thoughtRepo, cacheRepo, userRepo, embedder, new(mockLLMProvider), publisher)
	outcome, err := o.Run(context.Background(), thought.Id)

	require.NoError(t, err)
	assert.Equal(t, OK, outcome)
	thoughtRepo.AssertNumberOfCalls(t, "WriteStage", 5)
	thoughtRepo.AssertCalled(t, "Complete", mock.Anything, thought.Id)
}

func TestRun_StagePermanentFailureMarksThoughtFailed(t *testing.T) {
	thoughtRepo := new(mockThoughtRepo)
	cacheRepo := new(mockCacheRepo)
	userRepo := new(mockUserContextRepo)
	embedder := new(mockEmbedder)
	provider := new(mockLLMProvider)
	publisher := new(mockPublisher)

	thought := newPendingThought()
	thoughtRepo.On("FindOne", mock.Anything).Return(thought, nil)
	thoughtRepo.On("BeginProcessing", mock.Anything, thought.Id).Return(true, nil)
	thoughtRepo.On("Fail", mock.Anything, thought.Id, mock.Anything).Return(nil)
	userRepo.On("FindByUserID", mock.Anything, thought.UserId).Return(newUserContext(thought.UserId), nil)
	embedder.On("Generate", mock.Anything, thought.Text).Return([]float32{0.1, 0.2, 0.3}, nil)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	cacheRepo.On("SearchSimilarWithScore", mock.Anything, thought.UserId).Return([]*contract.ScoredCacheEntry{}, nil)
	provider.On("Generate").Return(nil, errkind.NewPermanent(errkind.PermanentContentPolicy, "refused", nil))

	o := buildOrchestrator(thoughtRepo, cacheRepo, userRepo, embedder, provider, publisher)
	outcome, err := o.Run(context.Background(), thought.Id)

	require.Error(t, err)
	assert.Equal(t, PermanentFail, outcome)
	thoughtRepo.AssertCalled(t, "Fail", mock.Anything, thought.Id, string(errkind.PermanentContentPolicy))
}
