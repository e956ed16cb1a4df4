package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// AccountAPI is a mock of model.AccountAPI.
type AccountAPI struct {
	mock.Mock
}

func (m *AccountAPI) Login(ctx context.Context, creds model.Credentials) (model.LoginResult, error) {
	ret := m.Called(ctx, creds)
	return ret.Get(0).(model.LoginResult), ret.Error(1)
}

func (m *AccountAPI) Register(ctx context.Context, reg model.Registration) (string, error) {
	ret := m.Called(ctx, reg)
	return ret.String(0), ret.Error(1)
}

func (m *AccountAPI) VerifyOTP(ctx context.Context, req model.OTPVerification) error {
	ret := m.Called(ctx, req)
	return ret.Error(0)
}
