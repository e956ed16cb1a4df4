package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// ContactAPI is a mock of model.ContactAPI.
type ContactAPI struct {
	mock.Mock
}

func (m *ContactAPI) SubmitContact(ctx context.Context, msg model.ContactMessage) (string, error) {
	ret := m.Called(ctx, msg)
	return ret.String(0), ret.Error(1)
}
