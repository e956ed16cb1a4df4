package rest

import (
	"context"
	"net/http"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

func (c *Client) Login(ctx context.Context, creds model.Credentials) (model.LoginResult, error) {
	var res model.LoginResult
	if err := c.callJSON(ctx, http.MethodPost, "/api/user/login", "", creds, &res); err != nil {
		return model.LoginResult{}, err
	}
	return res, nil
}

// Register returns the pre-verification token.
func (c *Client) Register(ctx context.Context, reg model.Registration) (string, error) {
	var res struct {
		Token string `json:"token"`
	}
	if err := c.callJSON(ctx, http.MethodPost, "/api/users", "", reg, &res); err != nil {
		return "", err
	}
	return res.Token, nil
}

func (c *Client) VerifyOTP(ctx context.Context, req model.OTPVerification) error {
	return c.callJSON(ctx, http.MethodPost, "/api/users/verify-otp", "", req, nil)
}
