package controller_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vkozak/product-catalog/internal/model"
	"github.com/vkozak/product-catalog/internal/repository"
)

// MockRepository is a mock implementation of repository.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	args := m.Called(ctx, resource)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Resource), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (repository.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Resource), args.Error(1)
}

func (m *MockRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) List(ctx context.Context, query repository.Query) ([]repository.Resource, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Resource), args.Error(1)
}

// MockTxStore is a mock implementation of service.CatalogTxStore
type MockTxStore struct {
	mock.Mock
}

func (m *MockTxStore) CreateProductWithEvent(ctx context.Context, product *model.Product, event *model.Event) (*model.Product, error) {
	args := m.Called(ctx, product, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockTxStore) UpdateProductWithEvent(ctx context.Context, product *model.Product, event *model.Event) (*model.Product, error) {
	args := m.Called(ctx, product, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockTxStore) DeleteProductWithEvent(ctx context.Context, product *model.Product, event *model.Event) error {
	args := m.Called(ctx, product, event)
	return args.Error(0)
}

func (m *MockTxStore) RateProductWithEvent(ctx context.Context, rating *model.ProductRating, event *model.Event) (*model.Product, error) {
	args := m.Called(ctx, rating, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

// MockUserStore is a mock implementation of service.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, resource repository.Resource) (repository.Resource, error) {
	args := m.Called(ctx, resource)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Resource), args.Error(1)
}

func (m *MockUserStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
