package model

import "context"

// Storage keys shared by every component that reads or writes local state.
const (
	KeyToken       = "token"
	KeyUserProfile = "userProfile"
	// KeyLegacyUser is only ever removed, older builds stored the profile here.
	KeyLegacyUser = "user"

	KeyCartItems     = "cartItems"
	KeyCheckoutItems = "checkoutItems"
	KeyBuyNowItem    = "buyNowItem"

	KeySellerToken = "sellerToken"
	KeySellerInfo  = "sellerInfo"
	KeySellerID    = "sellerId"

	KeyTempSellerEmail    = "tempSellerEmail"
	KeyTempSellerPassword = "tempSellerPassword"
	KeyTempSellerOTPToken = "tempSellerOTPToken"
	KeyTempSellerOTP      = "tempSellerOTP"
	// KeyTempSellerResentAt holds the RFC 3339 time of the last OTP resend.
	KeyTempSellerResentAt = "tempSellerResentAt"
)

// AnyVersion disables the version check of Backend.Save.
const AnyVersion int64 = -1

// Record is a stored value together with its write version and the origin that wrote it.
// Version 0 means the key is absent.
type Record struct {
	Value   string
	Version int64
	Origin  string
}

// Change describes a write or delete observed on a shared backend.
type Change struct {
	Key    string
	Origin string
}

// Backend persists string values per key inside one namespace.
//
// Save writes value only if the current version equals expected:
// AnyVersion skips the check, 0 requires the key to be absent.
// A mismatch returns ErrVersionConflict.
type Backend interface {
	Load(ctx context.Context, key string) (Record, error)
	Save(ctx context.Context, key, value, origin string, expected int64) (Record, error)
	Delete(ctx context.Context, key, origin string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// ChangeWatcher is implemented by backends able to report writes made by other processes.
type ChangeWatcher interface {
	Watch(ctx context.Context) (<-chan Change, error)
}

// Validator is implemented by records checked at the store boundary.
type Validator interface {
	Validate() error
}

// VersionMatches applies the Save precondition to the current state of a key.
func VersionMatches(present bool, current, expected int64) bool {
	switch {
	case expected == AnyVersion:
		return true
	case expected == 0:
		return !present
	default:
		return present && current == expected
	}
}
