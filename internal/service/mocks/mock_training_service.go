package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/trainingdesk/internal/policy"
	"github.com/shaharia-lab/trainingdesk/internal/service"
	"github.com/shaharia-lab/trainingdesk/internal/training"
)

// MockTrainingService is a mock implementation of service.TrainingService.
type MockTrainingService struct {
	mock.Mock
}

//nolint:revive
func (m *MockTrainingService) CanApply(ctx context.Context, actorID, userID int64) (policy.Decision, error) {
	args := m.Called(ctx, actorID, userID)
	return args.Get(0).(policy.Decision), args.Error(1)
}

//nolint:revive
func (m *MockTrainingService) Apply(ctx context.Context, req service.ApplyRequest) (*training.Training, error) {
	args := m.Called(ctx, req)
	return trainingOrNil(args.Get(0)), args.Error(1)
}

//nolint:revive
func (m *MockTrainingService) Transition(ctx context.Context, actorID, trainingID int64, to training.Status) (*training.Training, error) {
	args := m.Called(ctx, actorID, trainingID, to)
	return trainingOrNil(args.Get(0)), args.Error(1)
}

//nolint:revive
func (m *MockTrainingService) TogglePreTraining(ctx context.Context, actorID, trainingID int64) (*training.Training, error) {
	args := m.Called(ctx, actorID, trainingID)
	return trainingOrNil(args.Get(0)), args.Error(1)
}

//nolint:revive
func (m *MockTrainingService) Close(ctx context.Context, actorID, trainingID int64) (*training.Training, error) {
	args := m.Called(ctx, actorID, trainingID)
	return trainingOrNil(args.Get(0)), args.Error(1)
}

//nolint:revive
func (m *MockTrainingService) Get(ctx context.Context, actorID, trainingID int64) (*training.Training, error) {
	args := m.Called(ctx, actorID, trainingID)
	return trainingOrNil(args.Get(0)), args.Error(1)
}

func trainingOrNil(v any) *training.Training {
	if v == nil {
		return nil
	}
	return v.(*training.Training)
}
