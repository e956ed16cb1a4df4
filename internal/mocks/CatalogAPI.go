package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// CatalogAPI is a mock of model.CatalogAPI.
type CatalogAPI struct {
	mock.Mock
}

func (m *CatalogAPI) ListProducts(ctx context.Context, token string) ([]model.Product, error) {
	ret := m.Called(ctx, token)
	var products []model.Product
	if v := ret.Get(0); v != nil {
		products = v.([]model.Product)
	}
	return products, ret.Error(1)
}

func (m *CatalogAPI) ListReviews(ctx context.Context, productID string) ([]model.Review, error) {
	ret := m.Called(ctx, productID)
	var reviews []model.Review
	if v := ret.Get(0); v != nil {
		reviews = v.([]model.Review)
	}
	return reviews, ret.Error(1)
}

func (m *CatalogAPI) AddReview(ctx context.Context, token, productID string, in model.ReviewInput) error {
	ret := m.Called(ctx, token, productID, in)
	return ret.Error(0)
}

func (m *CatalogAPI) MarkReviewHelpful(ctx context.Context, token, productID, reviewID string) error {
	ret := m.Called(ctx, token, productID, reviewID)
	return ret.Error(0)
}
