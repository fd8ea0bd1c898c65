package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shaharia-lab/stockbell/internal/catalog"
	"github.com/shaharia-lab/stockbell/internal/service"
)

// MockStockService is a mock implementation of service.StockService.
type MockStockService struct {
	mock.Mock
}

//nolint:revive
func (m *MockStockService) Stock(ctx context.Context) (*service.StockView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StockView), args.Error(1)
}

//nolint:revive
func (m *MockStockService) Weather(ctx context.Context) (*service.WeatherView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WeatherView), args.Error(1)
}

//nolint:revive
func (m *MockStockService) LastSeen(ctx context.Context) (*service.LastSeenView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LastSeenView), args.Error(1)
}

//nolint:revive
func (m *MockStockService) Catalog() []catalog.Seed {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]catalog.Seed)
}
