package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

func (c *Client) RegisterSeller(ctx context.Context, reg model.SellerRegistration) (model.SellerRegistrationResult, error) {
	var res model.SellerRegistrationResult
	if err := c.callJSON(ctx, http.MethodPost, "/api/seller", "", reg, &res); err != nil {
		return model.SellerRegistrationResult{}, err
	}
	return res, nil
}

func (c *Client) VerifySellerOTP(ctx context.Context, req model.SellerOTPVerification) error {
	return c.callJSON(ctx, http.MethodPost, "/api/seller/verify-otp", "", req, nil)
}

func (c *Client) ResendSellerOTP(ctx context.Context, email string) error {
	body := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.callJSON(ctx, http.MethodPost, "/api/seller/resend-otp", "", body, nil)
}

// SellerLogin treats a 2xx response without a token as a rejected login.
func (c *Client) SellerLogin(ctx context.Context, creds model.Credentials) (model.SellerLoginResult, error) {
	var res struct {
		model.SellerLoginResult
		Message string `json:"message"`
	}
	if err := c.callJSON(ctx, http.MethodPost, "/api/seller/login", "", creds, &res); err != nil {
		return model.SellerLoginResult{}, err
	}
	if res.Token == "" {
		return model.SellerLoginResult{}, &model.APIError{Status: http.StatusOK, Message: res.Message}
	}
	return res.SellerLoginResult, nil
}

// CreateProduct posts fields as multipart form data, with image as the "image" part.
func (c *Client) CreateProduct(ctx context.Context, token string, fields map[string]string, image *model.ImageUpload) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := w.WriteField(name, fields[name]); err != nil {
			return fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}
	if image != nil && image.Data != nil {
		part, err := w.CreateFormFile("image", image.FileName)
		if err != nil {
			return fmt.Errorf("failed to create image part: %w", err)
		}
		if _, err := io.Copy(part, image.Data); err != nil {
			return fmt.Errorf("failed to write image: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return c.call(ctx, request{
		method:      http.MethodPost,
		path:        "/api/products",
		token:       token,
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, nil)
}

func productPath(id string) string {
	return "/api/products/" + url.PathEscape(id)
}

func (c *Client) UpdateProduct(ctx context.Context, token, productID string, patch model.ProductPatch) error {
	return c.callJSON(ctx, http.MethodPatch, productPath(productID), token, patch, nil)
}

func (c *Client) DeleteProduct(ctx context.Context, token, productID string) error {
	return c.callJSON(ctx, http.MethodDelete, productPath(productID), token, nil, nil)
}

func (c *Client) ListSellers(ctx context.Context, token string) ([]model.Seller, error) {
	var res struct {
		Sellers []model.Seller `json:"sellers"`
	}
	if err := c.callJSON(ctx, http.MethodGet, "/api/allseller", token, nil, &res); err != nil {
		return nil, err
	}
	if res.Sellers == nil {
		return []model.Seller{}, nil
	}
	return res.Sellers, nil
}
