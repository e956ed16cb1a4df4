package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// OrderAPI is a mock of model.OrderAPI.
type OrderAPI struct {
	mock.Mock
}

func (m *OrderAPI) PlaceOrder(ctx context.Context, token string, req model.OrderRequest) error {
	ret := m.Called(ctx, token, req)
	return ret.Error(0)
}

func (m *OrderAPI) CreateGatewayOrder(ctx context.Context, token string, req model.GatewayOrderRequest) (model.GatewayOrder, error) {
	ret := m.Called(ctx, token, req)
	return ret.Get(0).(model.GatewayOrder), ret.Error(1)
}

func (m *OrderAPI) VerifyPayment(ctx context.Context, token string, req model.PaymentVerification) error {
	ret := m.Called(ctx, token, req)
	return ret.Error(0)
}

func (m *OrderAPI) MyOrders(ctx context.Context, token string) ([]model.Order, error) {
	ret := m.Called(ctx, token)
	var orders []model.Order
	if v := ret.Get(0); v != nil {
		orders = v.([]model.Order)
	}
	return orders, ret.Error(1)
}
