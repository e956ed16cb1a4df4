package model

import (
	"context"
	"fmt"
)

// SnapshotSource selects which stored snapshot a checkout attempt consumes.
type SnapshotSource int

const (
	SourceCart SnapshotSource = iota
	SourceBuyNow
)

func (s SnapshotSource) String() string {
	if s == SourceBuyNow {
		return "buy-now"
	}
	return "cart"
}

// CheckoutState is a step of the checkout state machine.
type CheckoutState int

const (
	StateInit CheckoutState = iota
	StateAddressEntry
	StatePaymentSelection
	StateSubmitting
	StateCompleted
	StateAborted
)

var checkoutStateNames = [...]string{"init", "address-entry", "payment-selection", "submitting", "completed", "aborted"}

func (s CheckoutState) String() string {
	if int(s) < len(checkoutStateNames) {
		return checkoutStateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PaymentMethod values are sent to the API verbatim.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "Cash On Delivery"
	PaymentOnline         PaymentMethod = "Online Payment"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DeliveryAddress is the address form of a checkout attempt.
// Verified is informational and never gates submission.
type DeliveryAddress struct {
	Text     string
	Location *Coordinates
	Verified bool
}

// Place is a geocoding result.
type Place struct {
	DisplayName string
	Coordinates Coordinates
}

// Geocoder resolves addresses to places and back.
type Geocoder interface {
	Reverse(ctx context.Context, at Coordinates) (Place, error)
	Search(ctx context.Context, query string) (Place, error)
}

// Locator supplies the device position.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// GatewayOptions configures one opening of the payment widget.
type GatewayOptions struct {
	Key         string
	Amount      int64
	Currency    string
	Name        string
	Description string
	OrderID     string
	PrefillName string
	PrefillMail string
	ThemeColor  string
}

// PaymentConfirmation is the signed success payload returned by the gateway widget.
type PaymentConfirmation struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// PaymentGateway loads and opens the third-party checkout widget.
type PaymentGateway interface {
	Load(ctx context.Context) bool
	Open(ctx context.Context, opts GatewayOptions) (PaymentConfirmation, error)
}
