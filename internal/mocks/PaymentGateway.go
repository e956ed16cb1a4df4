package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// PaymentGateway is a mock of model.PaymentGateway.
type PaymentGateway struct {
	mock.Mock
}

func (m *PaymentGateway) Load(ctx context.Context) bool {
	ret := m.Called(ctx)
	return ret.Bool(0)
}

func (m *PaymentGateway) Open(ctx context.Context, opts model.GatewayOptions) (model.PaymentConfirmation, error) {
	ret := m.Called(ctx, opts)
	return ret.Get(0).(model.PaymentConfirmation), ret.Error(1)
}
