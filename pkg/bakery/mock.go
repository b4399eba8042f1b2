package bakery

import (
	"context"

	"github.com/milsabores/storefront-gateway/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockClient is the testify mock used by service tests.
type MockClient struct {
	mock.Mock
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	args := m.Called(ctx, email, password)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*LoginResult), args.Error(1)
}

func (m *MockClient) Register(ctx context.Context, req *models.RegisterRequest) error {
	args := m.Called(ctx, req)

	return args.Error(0)
}

func (m *MockClient) GetUser(ctx context.Context, run, token string) (*UserRecord, error) {
	args := m.Called(ctx, run, token)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*UserRecord), args.Error(1)
}

func (m *MockClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockClient) GetProduct(ctx context.Context, code string) (*models.Product, error) {
	args := m.Called(ctx, code)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockClient) CreateOrder(ctx context.Context, token string, order *models.Order) (*OrderResult, error) {
	args := m.Called(ctx, token, order)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*OrderResult), args.Error(1)
}
