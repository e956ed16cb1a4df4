package model

import "encoding/json"

// Credentials is an email and password pair.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the user sign-up form.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	// DOB is formatted as 2006-01-02.
	DOB string `json:"dob"`
}

// LoginResult is returned by the user login endpoint. User is nil when the response omits it.
type LoginResult struct {
	Token string
	User  *Profile
}

// UnmarshalJSON accepts the user id either as "id" or "_id".
func (r *LoginResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Token string `json:"token"`
		User  *struct {
			Profile
			AltID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Token = raw.Token
	r.User = nil
	if raw.User != nil {
		p := raw.User.Profile
		if p.ID == "" {
			p.ID = raw.User.AltID
		}
		r.User = &p
	}
	return nil
}

// OTPVerification is the body of the user OTP check.
type OTPVerification struct {
	OTP   string `json:"userOtp"`
	Token string `json:"token"`
}

// SellerRegistration is the seller sign-up form.
type SellerRegistration struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	StoreName string `json:"storename"`
	Contact   string `json:"contact"`
	Address   string `json:"address"`
}

// SellerRegistrationResult carries the OTP token issued on seller sign-up.
type SellerRegistrationResult struct {
	Token    string `json:"token"`
	OTPToken string `json:"otpToken"`
	OTP      string `json:"otp"`
}

// VerificationToken returns token, or otpToken when token is empty.
func (r SellerRegistrationResult) VerificationToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.OTPToken
}

// SellerOTPVerification is the body of the seller OTP check.
type SellerOTPVerification struct {
	OTPToken string `json:"otpToken"`
	OTP      string `json:"otp"`
}

// SellerLoginResult is returned by the seller login endpoint.
type SellerLoginResult struct {
	Token  string `json:"token"`
	Seller Seller `json:"seller"`
}

// Seller is a seller account as returned by the API.
type Seller struct {
	ID        string `json:"_id,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	StoreName string `json:"storeName,omitempty"`
	Contact   string `json:"contact,omitempty"`
	Address   string `json:"address,omitempty"`
}

// Profile formats the seller for storage; the store name wins over the personal name.
func (s Seller) Profile() Profile {
	name := s.StoreName
	if name == "" {
		name = s.Name
	}
	return Profile{
		ID:        s.ID,
		UserID:    s.UserID,
		Name:      name,
		Email:     s.Email,
		StoreName: s.StoreName,
		Role:      RoleSeller,
	}
}
