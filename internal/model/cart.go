package model

import (
	"errors"
	"fmt"
)

// CartItem is one line of the cart or of a checkout snapshot.
type CartItem struct {
	ID       string  `json:"_id"`
	SellerID string  `json:"sellerId,omitempty"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageurl,omitempty"`
	Quantity int     `json:"quantity"`
}

// Validate checks the invariants of a stored cart line.
func (i CartItem) Validate() error {
	if i.ID == "" {
		return errors.New("cart item has empty id")
	}
	if i.Price < 0 {
		return fmt.Errorf("cart item %s has negative price", i.ID)
	}
	if i.Quantity < 1 {
		return fmt.Errorf("cart item %s: %w", i.ID, ErrInvalidQuantity)
	}
	return nil
}

// LineTotal returns price times quantity.
func (i CartItem) LineTotal() float64 {
	return i.Price * float64(i.Quantity)
}

// CartItems is an ordered list of cart lines with unique ids.
type CartItems []CartItem

// Validate checks every line and the id uniqueness invariant.
func (items CartItems) Validate() error {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
		if _, ok := seen[it.ID]; ok {
			return fmt.Errorf("duplicate cart item %s", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}

// Total is the sum of line totals. An empty list totals 0.
func (items CartItems) Total() float64 {
	var total float64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}

// Count is the sum of quantities, shown as the cart badge.
func (items CartItems) Count() int {
	var n int
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Index returns the position of id or -1.
func (items CartItems) Index(id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// CartChange is the payload of cart events. RemovedID is set only for removals.
type CartChange struct {
	Items     CartItems
	Total     float64
	RemovedID string
}

// AddResult tells whether Add appended a line or bumped an existing one.
type AddResult int

const (
	AddedToCart AddResult = iota
	QuantityUpdated
)
