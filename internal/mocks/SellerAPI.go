package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// SellerAPI is a mock of model.SellerAPI.
type SellerAPI struct {
	mock.Mock
}

func (m *SellerAPI) RegisterSeller(ctx context.Context, reg model.SellerRegistration) (model.SellerRegistrationResult, error) {
	ret := m.Called(ctx, reg)
	return ret.Get(0).(model.SellerRegistrationResult), ret.Error(1)
}

func (m *SellerAPI) VerifySellerOTP(ctx context.Context, req model.SellerOTPVerification) error {
	ret := m.Called(ctx, req)
	return ret.Error(0)
}

func (m *SellerAPI) ResendSellerOTP(ctx context.Context, email string) error {
	ret := m.Called(ctx, email)
	return ret.Error(0)
}

func (m *SellerAPI) SellerLogin(ctx context.Context, creds model.Credentials) (model.SellerLoginResult, error) {
	ret := m.Called(ctx, creds)
	return ret.Get(0).(model.SellerLoginResult), ret.Error(1)
}

func (m *SellerAPI) ListProducts(ctx context.Context, token string) ([]model.Product, error) {
	ret := m.Called(ctx, token)
	var products []model.Product
	if v := ret.Get(0); v != nil {
		products = v.([]model.Product)
	}
	return products, ret.Error(1)
}

func (m *SellerAPI) CreateProduct(ctx context.Context, token string, fields map[string]string, image *model.ImageUpload) error {
	ret := m.Called(ctx, token, fields, image)
	return ret.Error(0)
}

func (m *SellerAPI) UpdateProduct(ctx context.Context, token, productID string, patch model.ProductPatch) error {
	ret := m.Called(ctx, token, productID, patch)
	return ret.Error(0)
}

func (m *SellerAPI) DeleteProduct(ctx context.Context, token, productID string) error {
	ret := m.Called(ctx, token, productID)
	return ret.Error(0)
}

func (m *SellerAPI) ListSellers(ctx context.Context, token string) ([]model.Seller, error) {
	ret := m.Called(ctx, token)
	var sellers []model.Seller
	if v := ret.Get(0); v != nil {
		sellers = v.([]model.Seller)
	}
	return sellers, ret.Error(1)
}
