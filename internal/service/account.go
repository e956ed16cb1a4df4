package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dtroode/ayurveda-storefront/internal/kv"
	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// ErrMissingUserData is returned when a successful login response carries no user.
var ErrMissingUserData = errors.New("invalid response: missing user data")

// Account runs the user sign-up, OTP and login flows on top of the user Session.
type Account struct {
	api       model.AccountAPI
	session   *Session
	store     *kv.Store
	inspector model.TokenInspector
	notifier  model.Notifier
	logger    *logger.Logger
	now       func() time.Time
}

func NewAccount(
	api model.AccountAPI,
	session *Session,
	store *kv.Store,
	inspector model.TokenInspector,
	notifier model.Notifier,
	logger *logger.Logger,
) *Account {
	return &Account{
		api:       api,
		session:   session,
		store:     store,
		inspector: inspector,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Register validates the form and signs the user up. The pre-verification token
// is kept under the session token key without a profile, so the session still
// reads as absent until the user logs in.
func (a *Account) Register(ctx context.Context, reg model.Registration) error {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := ValidateRegistration(reg, a.now()); err != nil {
		a.notifier.Error(err.Error())
		return err
	}

	token, err := a.api.Register(ctx, reg)
	if err != nil {
		a.logger.Error("Account service: registration failed", "email", reg.Email, "error", err)
		a.notifier.Error(model.APIMessage(err, "Registration failed"))
		return fmt.Errorf("failed to register: %w", err)
	}
	if err := a.store.Set(ctx, model.KeyToken, token); err != nil {
		return fmt.Errorf("failed to store registration token: %w", err)
	}
	a.notifier.Success("Registration successful!")
	return nil
}

// VerifyOTP confirms the registration OTP with the stored pre-verification token.
func (a *Account) VerifyOTP(ctx context.Context, otp string) error {
	token, err := a.store.Get(ctx, model.KeyToken)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to read registration token: %w", err)
	}

	if err := a.api.VerifyOTP(ctx, model.OTPVerification{OTP: strings.TrimSpace(otp), Token: token}); err != nil {
		a.logger.Warn("Account service: OTP verification failed", "error", err)
		a.notifier.Error("OTP verification failed")
		return fmt.Errorf("failed to verify otp: %w", err)
	}
	a.notifier.Success("OTP verified successfully")
	return nil
}

// Login authenticates the user and stores the normalized profile.
func (a *Account) Login(ctx context.Context, creds model.Credentials) (model.AuthSession, error) {
	if err := ValidateCredentials(creds); err != nil {
		a.notifier.Error(err.Error())
		return model.AuthSession{}, err
	}

	res, err := a.api.Login(ctx, creds)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			a.notifier.Error(model.APIMessage(err, "Login failed"))
		} else {
			a.notifier.Error("Login failed. Please try again.")
		}
		return model.AuthSession{}, fmt.Errorf("failed to login: %w", err)
	}
	if res.User == nil {
		a.logger.Error("Account service: login response has no user")
		a.notifier.Error("Login failed. Please try again.")
		return model.AuthSession{}, ErrMissingUserData
	}

	profile := a.normalizeProfile(*res.User, creds.Email, res.Token)
	sess, err := a.session.Login(ctx, profile, res.Token)
	if err != nil {
		a.notifier.Error("Login failed. Please try again.")
		return model.AuthSession{}, err
	}
	a.notifier.Success("Login successful")
	return sess, nil
}

// normalizeProfile fills the defaults the rest of the client relies on. A
// missing id is taken from the token claims, then from the clock.
func (a *Account) normalizeProfile(p model.Profile, email, token string) model.Profile {
	if p.Name == "" {
		p.Name = "User"
	}
	if p.Email == "" {
		p.Email = email
	}
	if p.Role == "" {
		p.Role = model.RoleUser
	}
	if p.ID != "" {
		return p
	}

	if a.inspector != nil {
		if claims, err := a.inspector.Inspect(token); err == nil && claims.UserID != "" {
			p.ID = claims.UserID
			return p
		}
	}
	a.logger.Warn("Account service: no user id in login response, using temporary id")
	p.ID = fmt.Sprintf("temp-%d", a.now().UnixMilli())
	return p
}

// Logout ends the user session.
func (a *Account) Logout(ctx context.Context) error {
	return a.session.Logout(ctx)
}
