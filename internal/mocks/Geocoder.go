package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// Geocoder is a mock of model.Geocoder.
type Geocoder struct {
	mock.Mock
}

func (m *Geocoder) Reverse(ctx context.Context, at model.Coordinates) (model.Place, error) {
	ret := m.Called(ctx, at)
	return ret.Get(0).(model.Place), ret.Error(1)
}

func (m *Geocoder) Search(ctx context.Context, query string) (model.Place, error) {
	ret := m.Called(ctx, query)
	return ret.Get(0).(model.Place), ret.Error(1)
}

// Locator is a mock of model.Locator.
type Locator struct {
	mock.Mock
}

func (m *Locator) Locate(ctx context.Context) (model.Coordinates, error) {
	ret := m.Called(ctx)
	return ret.Get(0).(model.Coordinates), ret.Error(1)
}
