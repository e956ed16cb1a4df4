package model

import "time"

// OrderItemRef identifies one ordered product and its seller.
type OrderItemRef struct {
	Product  string `json:"product"`
	Seller   string `json:"seller,omitempty"`
	Quantity int    `json:"quantity"`
}

// OrderRequest is the body of a cash-on-delivery order.
type OrderRequest struct {
	Items         []OrderItemRef `json:"items"`
	PaymentMethod PaymentMethod  `json:"paymentMethod,omitempty"`
	Address       string         `json:"address"`
	Location      *Coordinates   `json:"location"`
}

// NewOrderRequest builds the order payload from a checkout snapshot.
func NewOrderRequest(items CartItems, addr DeliveryAddress, method PaymentMethod) OrderRequest {
	refs := make([]OrderItemRef, 0, len(items))
	for _, it := range items {
		refs = append(refs, OrderItemRef{Product: it.ID, Seller: it.SellerID, Quantity: it.Quantity})
	}
	return OrderRequest{
		Items:         refs,
		PaymentMethod: method,
		Address:       addr.Text,
		Location:      addr.Location,
	}
}

// GatewayOrderRequest asks the API for a gateway order handle. Amount is in paise.
type GatewayOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// GatewayOrder is the order handle issued for the payment widget.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// PaymentVerification carries the gateway confirmation and the order to create.
type PaymentVerification struct {
	PaymentConfirmation
	OrderData OrderRequest `json:"orderData"`
}

// OrderProduct is the product summary embedded in an order line.
type OrderProduct struct {
	ID       string  `json:"_id,omitempty"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageurl,omitempty"`
}

// OrderLine is one line of a placed order.
type OrderLine struct {
	Product  OrderProduct `json:"product"`
	Quantity int          `json:"quantity"`
}

// Order is a placed order as listed in the history.
type Order struct {
	ID            string        `json:"_id"`
	Items         []OrderLine   `json:"items"`
	Address       string        `json:"address"`
	OrderAt       time.Time     `json:"orderAt"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	PaymentStatus string        `json:"paymentStatus"`
	Status        string        `json:"status"`
	TotalAmount   float64       `json:"totalAmount"`
}

// ContactMessage is the body of the contact form.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}
