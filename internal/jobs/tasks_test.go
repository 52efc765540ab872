package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openledgerhq/posting-engine/internal/apperrors"
	"github.com/openledgerhq/posting-engine/internal/core/domain"
	portssvc "github.com/openledgerhq/posting-engine/internal/core/ports/services"
	"github.com/openledgerhq/posting-engine/internal/dto"
	"github.com/openledgerhq/posting-engine/internal/jobs"
)

type MockPostingService struct {
	mock.Mock
}

var _ portssvc.PostingService = (*MockPostingService)(nil)

func (m *MockPostingService) PostEntry(ctx context.Context, req dto.PostEntryRequest) (*dto.PostingResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PostingResult), args.Error(1)
}

func (m *MockPostingService) ReverseEntry(ctx context.Context, originalEntryID, reason, actorID string) (*dto.PostingResult, error) {
	args := m.Called(ctx, originalEntryID, reason, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PostingResult), args.Error(1)
}

func (m *MockPostingService) ValidateEntry(ctx context.Context, req dto.PostEntryRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockPostingService) IsAlreadyProcessed(ctx context.Context, idempotencyKey string) (bool, error) {
	args := m.Called(ctx, idempotencyKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostingService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func postRequestFixture() dto.PostEntryRequest {
	return dto.PostEntryRequest{
		IdempotencyKey: "inv-2025-0042",
		PostingDate:    time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		CurrencyCode:   "USD",
		Narration:      "Invoice 42 settled",
		ActorID:        "user-1",
		Lines: []dto.PostingLineRequest{
			{AccountCode: "1000", Debit: decimal.NewFromInt(100)},
			{AccountCode: "4000", Credit: decimal.NewFromInt(100)},
		},
	}
}

func TestNewPostEntryTask_RoundTrip(t *testing.T) {
	req := postRequestFixture()

	task, err := jobs.NewPostEntryTask(req)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskTypePostEntry, task.Type())

	var decoded dto.PostEntryRequest
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, req.IdempotencyKey, decoded.IdempotencyKey)
	assert.Len(t, decoded.Lines, 2)
	assert.True(t, decoded.Lines[0].Debit.Equal(decimal.NewFromInt(100)))
}

func TestPostEntryHandler_Success(t *testing.T) {
	svc := new(MockPostingService)
	req := postRequestFixture()
	result := &dto.PostingResult{EntryID: "e-1", Status: domain.Posted, IdempotencyKey: req.IdempotencyKey}
	svc.On("PostEntry", mock.Anything, mock.AnythingOfType("dto.PostEntryRequest")).Return(result, nil).Once()

	task, err := jobs.NewPostEntryTask(req)
	require.NoError(t, err)

	handler := jobs.NewPostEntryHandler(svc)
	err = handler(context.Background(), task)

	assert.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestPostEntryHandler_RejectionSkipsRetry(t *testing.T) {
	svc := new(MockPostingService)
	rejection := apperrors.NewRejection(apperrors.ReasonUnbalancedEntry, "debits 100 do not equal credits 90")
	svc.On("PostEntry", mock.Anything, mock.AnythingOfType("dto.PostEntryRequest")).Return(nil, rejection).Once()

	task, err := jobs.NewPostEntryTask(postRequestFixture())
	require.NoError(t, err)

	handler := jobs.NewPostEntryHandler(svc)
	err = handler(context.Background(), task)

	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry, "rejections are deterministic and must not retry")
}

func TestPostEntryHandler_InfrastructureErrorRetries(t *testing.T) {
	svc := new(MockPostingService)
	svc.On("PostEntry", mock.Anything, mock.AnythingOfType("dto.PostEntryRequest")).Return(nil, errors.New("connection refused")).Once()

	task, err := jobs.NewPostEntryTask(postRequestFixture())
	require.NoError(t, err)

	handler := jobs.NewPostEntryHandler(svc)
	err = handler(context.Background(), task)

	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry, "infrastructure failures stay retryable")
}

func TestPostEntryHandler_MalformedPayloadSkipsRetry(t *testing.T) {
	svc := new(MockPostingService)
	task := asynq.NewTask(jobs.TaskTypePostEntry, []byte("{not json"))

	handler := jobs.NewPostEntryHandler(svc)
	err := handler(context.Background(), task)

	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	svc.AssertNotCalled(t, "PostEntry", mock.Anything, mock.Anything)
}
