package model

import "context"

// AccountAPI is the user account part of the remote API.
type AccountAPI interface {
	Login(ctx context.Context, creds Credentials) (LoginResult, error)
	Register(ctx context.Context, reg Registration) (string, error)
	VerifyOTP(ctx context.Context, req OTPVerification) error
}

// CatalogAPI lists products and their reviews.
type CatalogAPI interface {
	ListProducts(ctx context.Context, token string) ([]Product, error)
	ListReviews(ctx context.Context, productID string) ([]Review, error)
	AddReview(ctx context.Context, token, productID string, in ReviewInput) error
	MarkReviewHelpful(ctx context.Context, token, productID, reviewID string) error
}

// OrderAPI places orders and lists the order history.
type OrderAPI interface {
	PlaceOrder(ctx context.Context, token string, req OrderRequest) error
	CreateGatewayOrder(ctx context.Context, token string, req GatewayOrderRequest) (GatewayOrder, error)
	VerifyPayment(ctx context.Context, token string, req PaymentVerification) error
	MyOrders(ctx context.Context, token string) ([]Order, error)
}

// SellerAPI is the seller lifecycle and product management part of the remote API.
type SellerAPI interface {
	RegisterSeller(ctx context.Context, reg SellerRegistration) (SellerRegistrationResult, error)
	VerifySellerOTP(ctx context.Context, req SellerOTPVerification) error
	ResendSellerOTP(ctx context.Context, email string) error
	SellerLogin(ctx context.Context, creds Credentials) (SellerLoginResult, error)
	ListProducts(ctx context.Context, token string) ([]Product, error)
	CreateProduct(ctx context.Context, token string, fields map[string]string, image *ImageUpload) error
	UpdateProduct(ctx context.Context, token, productID string, patch ProductPatch) error
	DeleteProduct(ctx context.Context, token, productID string) error
	ListSellers(ctx context.Context, token string) ([]Seller, error)
}

// ContactAPI submits the contact form.
type ContactAPI interface {
	SubmitContact(ctx context.Context, msg ContactMessage) (string, error)
}

// Notifier shows transient user-facing messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Info(msg string)
}
