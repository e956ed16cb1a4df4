package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

func TestValidateRegistration(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(r *model.Registration)
		field   string
		message string
	}{
		{name: "valid", mutate: func(*model.Registration) {}},
		{name: "empty name", mutate: func(r *model.Registration) { r.Name = "" }, field: "name", message: "Name is required"},
		{name: "short name", mutate: func(r *model.Registration) { r.Name = "Al" }, field: "name", message: "Name should only contain letters and be 3-30 characters long"},
		{name: "digits in name", mutate: func(r *model.Registration) { r.Name = "Asha 2" }, field: "name", message: "Name should only contain letters and be 3-30 characters long"},
		{name: "bad email", mutate: func(r *model.Registration) { r.Email = "asha@example" }, field: "email", message: "Please enter a valid email address"},
		{name: "short password", mutate: func(r *model.Registration) { r.Password = "Ab1!" }, field: "password", message: "Password must be at least 8 characters long"},
		{name: "no uppercase", mutate: func(r *model.Registration) { r.Password = "secret#123" }, field: "password", message: "Password must contain at least one uppercase letter"},
		{name: "no lowercase", mutate: func(r *model.Registration) { r.Password = "SECRET#123" }, field: "password", message: "Password must contain at least one lowercase letter"},
		{name: "no digit", mutate: func(r *model.Registration) { r.Password = "Secret#abc" }, field: "password", message: "Password must contain at least one number"},
		{name: "no special", mutate: func(r *model.Registration) { r.Password = "Secret1234" }, field: "password", message: "Password must contain at least one special character (!@#$%^&*)"},
		{name: "phone starts with 5", mutate: func(r *model.Registration) { r.Phone = "5876543210" }, field: "phone", message: "Please enter a valid 10-digit Indian phone number"},
		{name: "missing dob", mutate: func(r *model.Registration) { r.DOB = "" }, field: "dob", message: "Date of birth is required"},
		{name: "too young", mutate: func(r *model.Registration) { r.DOB = "2020-01-01" }, field: "dob", message: "You must be at least 10 years old"},
		{name: "too old", mutate: func(r *model.Registration) { r.DOB = "1900-01-01" }, field: "dob", message: "Please enter a valid date of birth"},
		{name: "unparsable dob", mutate: func(r *model.Registration) { r.DOB = "12/04/1995" }, field: "dob", message: "Please enter a valid date of birth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := validRegistration
			tt.mutate(&reg)

			err := ValidateRegistration(reg, now)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestValidateSellerRegistration(t *testing.T) {
	valid := model.SellerRegistration{Email: "shop@example.com", Password: "secret", Contact: "9876543210"}

	tests := []struct {
		name  string
		reg   func() model.SellerRegistration
		field string
	}{
		{name: "valid", reg: func() model.SellerRegistration { return valid }},
		{name: "email without at", reg: func() model.SellerRegistration { r := valid; r.Email = "shop.example.com"; return r }, field: "email"},
		{name: "short password", reg: func() model.SellerRegistration { r := valid; r.Password = "12345"; return r }, field: "password"},
		{name: "short contact", reg: func() model.SellerRegistration { r := valid; r.Contact = "98765"; return r }, field: "contact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSellerRegistration(tt.reg())
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
