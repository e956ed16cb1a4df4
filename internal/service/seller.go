package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dtroode/ayurveda-storefront/internal/config"
	"github.com/dtroode/ayurveda-storefront/internal/kv"
	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

var (
	// ErrNotRegistered is returned by OTP operations before a seller registration.
	ErrNotRegistered = errors.New("seller registration not started")
	// ErrMissingVerificationData is returned when registration succeeds without an OTP token.
	ErrMissingVerificationData = errors.New("registration succeeded but verification data is missing")
	// ErrMissingSellerID is returned when no stored identity carries a seller id.
	ErrMissingSellerID = errors.New("seller id is missing")
)

// registrationKeys are the values Register stores for the verify step.
var registrationKeys = []string{
	model.KeyTempSellerEmail,
	model.KeyTempSellerPassword,
	model.KeyTempSellerOTPToken,
	model.KeyTempSellerOTP,
}

// tempSellerKeys are cleared once the email is verified.
var tempSellerKeys = []string{
	model.KeyTempSellerEmail,
	model.KeyTempSellerPassword,
	model.KeyTempSellerOTPToken,
	model.KeyTempSellerOTP,
	model.KeyTempSellerResentAt,
}

// Seller runs the seller lifecycle and the product dashboard.
type Seller struct {
	api      model.SellerAPI
	session  *Session
	user     *Session
	store    *kv.Store
	notifier model.Notifier
	cfg      config.API
	logger   *logger.Logger
	now      func() time.Time
}

// NewSeller creates the seller service. user is consulted only as a fallback
// identity when creating products.
func NewSeller(
	api model.SellerAPI,
	session *Session,
	user *Session,
	store *kv.Store,
	notifier model.Notifier,
	cfg config.API,
	logger *logger.Logger,
) *Seller {
	return &Seller{
		api:      api,
		session:  session,
		user:     user,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Register signs a seller up and keeps the data needed for OTP verification.
// The request is aborted after the configured registration timeout.
func (s *Seller) Register(ctx context.Context, reg model.SellerRegistration) error {
	reg.Email = strings.TrimSpace(reg.Email)
	if err := ValidateSellerRegistration(reg); err != nil {
		s.notifier.Error(err.Error())
		return err
	}

	rctx, cancel := context.WithTimeout(ctx, s.cfg.SellerRegistrationTimeout)
	defer cancel()

	res, err := s.api.RegisterSeller(rctx, reg)
	if err != nil {
		if ctx.Err() == nil && errors.Is(rctx.Err(), context.DeadlineExceeded) {
			s.logger.Warn("Seller service: registration timed out", "timeout", s.cfg.SellerRegistrationTimeout)
			s.notifier.Error("Registration request timed out. Please try again.")
			return model.ErrRegistrationTimeout
		}
		s.logger.Error("Seller service: registration failed", "email", reg.Email, "error", err)
		s.notifier.Error(model.APIMessage(err, "Registration failed. Please try again."))
		return fmt.Errorf("failed to register seller: %w", err)
	}

	otpToken := res.VerificationToken()
	if otpToken == "" {
		s.notifier.Error("Registration successful but verification data missing")
		return ErrMissingVerificationData
	}

	temp := map[string]string{
		model.KeyTempSellerEmail:    reg.Email,
		model.KeyTempSellerPassword: reg.Password,
		model.KeyTempSellerOTPToken: otpToken,
		model.KeyTempSellerOTP:      res.OTP,
	}
	for _, key := range registrationKeys {
		if err := s.store.Set(ctx, key, temp[key]); err != nil {
			return fmt.Errorf("failed to store registration data: %w", err)
		}
	}
	s.notifier.Success("Registration successful! Proceeding to verification...")
	return nil
}

func (s *Seller) pendingEmail(ctx context.Context) (string, error) {
	email, err := s.store.Get(ctx, model.KeyTempSellerEmail)
	if errors.Is(err, model.ErrNotFound) || (err == nil && email == "") {
		s.notifier.Error("Please register first")
		return "", ErrNotRegistered
	}
	if err != nil {
		return "", fmt.Errorf("failed to read registration email: %w", err)
	}
	return email, nil
}

// VerifyOTP confirms the registration OTP and drops every transient key.
func (s *Seller) VerifyOTP(ctx context.Context, otp string) error {
	if _, err := s.pendingEmail(ctx); err != nil {
		return err
	}
	otpToken, err := s.store.Get(ctx, model.KeyTempSellerOTPToken)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to read otp token: %w", err)
	}

	err = s.api.VerifySellerOTP(ctx, model.SellerOTPVerification{OTPToken: otpToken, OTP: strings.TrimSpace(otp)})
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			s.notifier.Error(model.APIMessage(err, "Invalid OTP"))
		} else {
			s.notifier.Error("Server Error")
		}
		return fmt.Errorf("failed to verify seller otp: %w", err)
	}

	if err := s.store.Remove(ctx, tempSellerKeys...); err != nil {
		return fmt.Errorf("failed to clear registration data: %w", err)
	}
	s.notifier.Success("Email verified successfully")
	return nil
}

// ResendOTP asks for a new OTP. Requests within the cooldown of the previous
// one return model.ErrResendCooldown without a network call.
func (s *Seller) ResendOTP(ctx context.Context) error {
	email, err := s.pendingEmail(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	if raw, err := s.store.Get(ctx, model.KeyTempSellerResentAt); err == nil {
		if last, perr := time.Parse(time.RFC3339Nano, raw); perr == nil {
			if wait := last.Add(s.cfg.SellerOTPResendCooldown).Sub(now); wait > 0 {
				return fmt.Errorf("%w: retry in %s", model.ErrResendCooldown, wait.Round(time.Second))
			}
		}
	}

	if err := s.api.ResendSellerOTP(ctx, email); err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			s.notifier.Error(model.APIMessage(err, "Failed to resend OTP"))
		} else {
			s.notifier.Error("Server Error")
		}
		return fmt.Errorf("failed to resend seller otp: %w", err)
	}
	if err := s.store.Set(ctx, model.KeyTempSellerResentAt, now.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to store resend time: %w", err)
	}
	s.notifier.Success("OTP resent successfully")
	return nil
}

// Login authenticates the seller and stores the formatted seller info.
func (s *Seller) Login(ctx context.Context, creds model.Credentials) (model.AuthSession, error) {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		s.notifier.Error("Please fill in all fields")
		return model.AuthSession{}, model.NewValidationError("credentials", "Please fill in all fields")
	}

	res, err := s.api.SellerLogin(ctx, creds)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			s.notifier.Error(model.APIMessage(err, "Login failed. Please check your credentials."))
		} else {
			s.notifier.Error("Unable to connect to server. Please try again later.")
		}
		return model.AuthSession{}, fmt.Errorf("failed to login seller: %w", err)
	}

	sess, err := s.session.Login(ctx, res.Seller.Profile(), res.Token)
	if err != nil {
		return model.AuthSession{}, err
	}
	s.notifier.Success("Login successful!")
	return sess, nil
}

// Logout ends the seller session; the user session is untouched.
func (s *Seller) Logout(ctx context.Context) error {
	if err := s.session.Logout(ctx); err != nil {
		return err
	}
	s.notifier.Success("Logged out successfully")
	return nil
}

// Products lists the dashboard products with the seller token.
func (s *Seller) Products(ctx context.Context) ([]model.Product, error) {
	token, err := s.session.Token(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.api.ListProducts(ctx, token)
	if err != nil {
		s.logger.Error("Seller service: failed to fetch products", "error", err)
		s.notifier.Error("Failed to fetch products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// productToken is the seller token, or the user token when no seller is logged in.
func (s *Seller) productToken(ctx context.Context) (string, error) {
	token, err := s.session.Token(ctx)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, model.ErrUnauthenticated) {
		return "", err
	}
	return s.user.Token(ctx)
}

// sellerID resolves the seller id from the seller info, then the user profile.
func (s *Seller) sellerID(ctx context.Context) (string, error) {
	if p, err := s.session.Profile(ctx); err == nil {
		if p.ID != "" {
			return p.ID, nil
		}
		if p.UserID != "" {
			return p.UserID, nil
		}
	} else if !errors.Is(err, model.ErrUnauthenticated) {
		return "", err
	}

	p, err := s.user.Profile(ctx)
	if err == nil && p.ID != "" {
		return p.ID, nil
	}
	if err != nil && !errors.Is(err, model.ErrUnauthenticated) {
		return "", err
	}
	return "", ErrMissingSellerID
}

// CreateProduct submits form as a new product. A 401 ends the seller session.
func (s *Seller) CreateProduct(ctx context.Context, form *model.ProductForm) error {
	token, err := s.productToken(ctx)
	if err != nil {
		if errors.Is(err, model.ErrUnauthenticated) {
			s.notifier.Error("Authentication required. Please log in again.")
		}
		return err
	}
	sellerID, err := s.sellerID(ctx)
	if err != nil {
		if errors.Is(err, ErrMissingSellerID) {
			s.notifier.Error("Seller information is missing. Please log in again as a seller.")
		}
		return err
	}
	if err := form.Validate(); err != nil {
		s.notifier.Error(err.Error())
		return err
	}

	fields, err := form.Fields()
	if err != nil {
		return err
	}
	fields["seller"] = sellerID

	if err := s.api.CreateProduct(ctx, token, fields, form.Image()); err != nil {
		s.logger.Error("Seller service: failed to create product", "seller_id", sellerID, "error", err)
		var apiErr *model.APIError
		switch {
		case model.HasStatus(err, http.StatusUnauthorized):
			s.notifier.Error("Your session has expired. Please log in again.")
			if xerr := s.session.Expire(ctx); xerr != nil {
				s.logger.Error("Seller service: failed to clear expired session", "error", xerr)
			}
		case errors.As(err, &apiErr):
			s.notifier.Error(model.APIMessage(err, "Failed to add product"))
		default:
			s.notifier.Error("Network error. Please check your connection and try again.")
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	form.Reset()
	s.notifier.Success("Product added successfully")
	return nil
}

// UpdateProduct saves the edited form. Images cannot change on update.
func (s *Seller) UpdateProduct(ctx context.Context, form *model.ProductForm) error {
	token, err := s.session.Token(ctx)
	if err != nil {
		if errors.Is(err, model.ErrUnauthenticated) {
			s.notifier.Error("Authentication required. Please log in again.")
		}
		return err
	}
	if err := form.Validate(); err != nil {
		s.notifier.Error(err.Error())
		return err
	}
	patch, err := form.Patch()
	if err != nil {
		return err
	}
	if form.Image() != nil {
		s.notifier.Info("Image changes are not supported when editing. The current image is kept.")
	}

	id := form.EditingID()
	if err := s.api.UpdateProduct(ctx, token, id, patch); err != nil {
		s.logger.Error("Seller service: failed to update product", "product_id", id, "error", err)
		s.notifier.Error(model.APIMessage(err, "Failed to update product"))
		return fmt.Errorf("failed to update product: %w", err)
	}

	form.Reset()
	s.notifier.Success("Product updated successfully")
	return nil
}

// DeleteProduct removes a product.
func (s *Seller) DeleteProduct(ctx context.Context, productID string) error {
	token, err := s.session.Token(ctx)
	if err != nil {
		return err
	}
	if err := s.api.DeleteProduct(ctx, token, productID); err != nil {
		s.logger.Error("Seller service: failed to delete product", "product_id", productID, "error", err)
		s.notifier.Error("Failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.notifier.Success("Product deleted successfully")
	return nil
}

// Sellers lists every seller account.
func (s *Seller) Sellers(ctx context.Context) ([]model.Seller, error) {
	token, err := s.session.Token(ctx)
	if err != nil {
		return nil, err
	}
	sellers, err := s.api.ListSellers(ctx, token)
	if err != nil {
		s.logger.Error("Seller service: failed to fetch sellers", "error", err)
		s.notifier.Error("Failed to fetch sellers")
		return nil, fmt.Errorf("failed to list sellers: %w", err)
	}
	return sellers, nil
}
