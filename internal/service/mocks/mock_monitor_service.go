package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/stockbell/internal/engine"
	"github.com/shaharia-lab/stockbell/internal/service"
	"github.com/shaharia-lab/stockbell/internal/storage"
)

// MockMonitorService is a mock implementation of service.MonitorService.
type MockMonitorService struct {
	mock.Mock
}

//nolint:revive
func (m *MockMonitorService) Status(ctx context.Context) service.EngineStatus {
	args := m.Called(ctx)
	return args.Get(0).(service.EngineStatus)
}

//nolint:revive
func (m *MockMonitorService) Check(ctx context.Context) (engine.Outcome, error) {
	args := m.Called(ctx)
	return args.Get(0).(engine.Outcome), args.Error(1)
}

//nolint:revive
func (m *MockMonitorService) History(ctx context.Context) []string {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

//nolint:revive
func (m *MockMonitorService) ListLog(ctx context.Context, limit int) ([]storage.NotificationLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.NotificationLogEntry), args.Error(1)
}
