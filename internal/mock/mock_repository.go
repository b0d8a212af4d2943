package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/arangoml/phenolrs-go/internal/repository"
)

// MockIngestRunRepository is a mock implementation of the
// IngestRunRepository interface, for tests exercising run-ledger side
// effects without a real database.
type MockIngestRunRepository struct {
	mock.Mock
}

// CreateRun mocks the CreateRun method.
func (m *MockIngestRunRepository) CreateRun(ctx context.Context, run *repository.IngestRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// UpdateState mocks the UpdateState method.
func (m *MockIngestRunRepository) UpdateState(ctx context.Context, runID string, state string) error {
	args := m.Called(ctx, runID, state)
	return args.Error(0)
}

// CompleteRun mocks the CompleteRun method.
func (m *MockIngestRunRepository) CompleteRun(ctx context.Context, runID string, vertexCount, edgeCount int64) error {
	args := m.Called(ctx, runID, vertexCount, edgeCount)
	return args.Error(0)
}

// FailRun mocks the FailRun method.
func (m *MockIngestRunRepository) FailRun(ctx context.Context, runID string, errMsg string) error {
	args := m.Called(ctx, runID, errMsg)
	return args.Error(0)
}

// GetRun mocks the GetRun method.
func (m *MockIngestRunRepository) GetRun(ctx context.Context, runID string) (*repository.IngestRun, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.IngestRun), args.Error(1)
}

// ListRecentRuns mocks the ListRecentRuns method.
func (m *MockIngestRunRepository) ListRecentRuns(ctx context.Context, limit int) ([]*repository.IngestRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.IngestRun), args.Error(1)
}

// ExpectCreateRun sets up an expectation for CreateRun.
func (m *MockIngestRunRepository) ExpectCreateRun(err error) *mock.Call {
	return m.On("CreateRun", mock.Anything, mock.Anything).Return(err)
}

// ExpectCompleteRun sets up an expectation for CompleteRun.
func (m *MockIngestRunRepository) ExpectCompleteRun(runID string, vertexCount, edgeCount int64, err error) *mock.Call {
	return m.On("CompleteRun", mock.Anything, runID, vertexCount, edgeCount).Return(err)
}

// ExpectFailRun sets up an expectation for FailRun.
func (m *MockIngestRunRepository) ExpectFailRun(runID string, errMsg string, err error) *mock.Call {
	return m.On("FailRun", mock.Anything, runID, errMsg).Return(err)
}
