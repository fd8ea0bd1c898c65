package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/stockbell/internal/shop"
)

// MockWatchlistService is a mock implementation of service.WatchlistService.
type MockWatchlistService struct {
	mock.Mock
}

//nolint:revive
func (m *MockWatchlistService) List(ctx context.Context) []string {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

//nolint:revive
func (m *MockWatchlistService) Toggle(ctx context.Context, name string) ([]string, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

//nolint:revive
func (m *MockWatchlistService) Replace(ctx context.Context, names []string) ([]string, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

//nolint:revive
func (m *MockWatchlistService) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

//nolint:revive
func (m *MockWatchlistService) Acknowledge(ctx context.Context) (*shop.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Snapshot), args.Error(1)
}
