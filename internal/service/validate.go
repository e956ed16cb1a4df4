package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

var (
	loginEmailRe    = regexp.MustCompile(`\S+@\S+\.\S+`)
	registerEmailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nameRe          = regexp.MustCompile(`^[A-Za-z\s]{3,30}$`)
	phoneRe         = regexp.MustCompile(`^[6-9]\d{9}$`)
	upperRe         = regexp.MustCompile(`[A-Z]`)
	lowerRe         = regexp.MustCompile(`[a-z]`)
	digitRe         = regexp.MustCompile(`[0-9]`)
	specialRe       = regexp.MustCompile(`[!@#$%^&*]`)
)

const dobLayout = "2006-01-02"

// ValidateCredentials checks the login form. The first failing field wins.
func ValidateCredentials(c model.Credentials) error {
	switch {
	case c.Email == "":
		return model.NewValidationError("email", "Email is required")
	case !loginEmailRe.MatchString(c.Email):
		return model.NewValidationError("email", "Email is invalid")
	case c.Password == "":
		return model.NewValidationError("password", "Password is required")
	case len(c.Password) < 6:
		return model.NewValidationError("password", "Password must be at least 6 characters")
	}
	return nil
}

// ValidateRegistration checks the sign-up form field by field.
func ValidateRegistration(r model.Registration, now time.Time) error {
	if msg := validateName(r.Name); msg != "" {
		return model.NewValidationError("name", msg)
	}
	if msg := validateEmail(r.Email); msg != "" {
		return model.NewValidationError("email", msg)
	}
	if msg := validatePassword(r.Password); msg != "" {
		return model.NewValidationError("password", msg)
	}
	if msg := validatePhone(r.Phone); msg != "" {
		return model.NewValidationError("phone", msg)
	}
	if msg := validateDOB(r.DOB, now); msg != "" {
		return model.NewValidationError("dob", msg)
	}
	return nil
}

func validateName(name string) string {
	if name == "" {
		return "Name is required"
	}
	if !nameRe.MatchString(name) {
		return "Name should only contain letters and be 3-30 characters long"
	}
	return ""
}

func validateEmail(email string) string {
	if email == "" {
		return "Email is required"
	}
	if !registerEmailRe.MatchString(email) {
		return "Please enter a valid email address"
	}
	return ""
}

func validatePassword(p string) string {
	switch {
	case p == "":
		return "Password is required"
	case len(p) < 8:
		return "Password must be at least 8 characters long"
	case !upperRe.MatchString(p):
		return "Password must contain at least one uppercase letter"
	case !lowerRe.MatchString(p):
		return "Password must contain at least one lowercase letter"
	case !digitRe.MatchString(p):
		return "Password must contain at least one number"
	case !specialRe.MatchString(p):
		return "Password must contain at least one special character (!@#$%^&*)"
	}
	return ""
}

func validatePhone(phone string) string {
	if phone == "" {
		return "Phone number is required"
	}
	if !phoneRe.MatchString(phone) {
		return "Please enter a valid 10-digit Indian phone number"
	}
	return ""
}

// validateDOB compares calendar years only.
func validateDOB(dob string, now time.Time) string {
	if dob == "" {
		return "Date of birth is required"
	}
	birth, err := time.Parse(dobLayout, dob)
	if err != nil {
		return "Please enter a valid date of birth"
	}
	age := now.Year() - birth.Year()
	if age < 10 {
		return "You must be at least 10 years old"
	}
	if age > 100 {
		return "Please enter a valid date of birth"
	}
	return ""
}

// ValidateSellerRegistration checks the seller sign-up form.
func ValidateSellerRegistration(r model.SellerRegistration) error {
	switch {
	case !strings.Contains(r.Email, "@"):
		return model.NewValidationError("email", "Please enter a valid email")
	case len(r.Password) < 6:
		return model.NewValidationError("password", "Password must be at least 6 characters")
	case len(strings.TrimSpace(r.Contact)) < 10:
		return model.NewValidationError("contact", "Please enter a valid contact number")
	}
	return nil
}
