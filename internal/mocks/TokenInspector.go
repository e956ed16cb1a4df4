package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// TokenInspector is a mock of model.TokenInspector.
type TokenInspector struct {
	mock.Mock
}

func (m *TokenInspector) Inspect(token string) (model.TokenClaims, error) {
	ret := m.Called(token)
	return ret.Get(0).(model.TokenClaims), ret.Error(1)
}
