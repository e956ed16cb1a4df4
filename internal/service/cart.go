package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/ayurveda-storefront/internal/bus"
	"github.com/dtroode/ayurveda-storefront/internal/kv"
	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// Cart owns the cartItems list. Every mutation rewrites the whole list and is
// announced on the bus after the write.
type Cart struct {
	store    *kv.Store
	bus      *bus.Bus
	notifier model.Notifier
	logger   *logger.Logger
}

func NewCart(store *kv.Store, bus *bus.Bus, notifier model.Notifier, logger *logger.Logger) *Cart {
	return &Cart{
		store:    store,
		bus:      bus,
		notifier: notifier,
		logger:   logger,
	}
}

// Items returns the stored cart. A missing or unreadable list is an empty cart.
func (c *Cart) Items(ctx context.Context) (model.CartItems, error) {
	items, err := kv.GetJSON[model.CartItems](ctx, c.store, model.KeyCartItems)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return model.CartItems{}, nil
	case errors.Is(err, model.ErrMalformedRecord):
		c.logger.Warn("Cart service: ignoring malformed cart", "error", err)
		return model.CartItems{}, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if items == nil {
		items = model.CartItems{}
	}
	return items, nil
}

// Total is recomputed from the stored list on every call.
func (c *Cart) Total(ctx context.Context) (float64, error) {
	items, err := c.Items(ctx)
	if err != nil {
		return 0, err
	}
	return items.Total(), nil
}

// Count is the sum of quantities.
func (c *Cart) Count(ctx context.Context) (int, error) {
	items, err := c.Items(ctx)
	if err != nil {
		return 0, err
	}
	return items.Count(), nil
}

// Add bumps the quantity of an existing line or appends item with quantity 1.
func (c *Cart) Add(ctx context.Context, item model.CartItem) (model.AddResult, error) {
	var result model.AddResult
	items, err := c.mutate(ctx, func(items model.CartItems) (model.CartItems, error) {
		if i := items.Index(item.ID); i >= 0 {
			items[i].Quantity++
			result = model.QuantityUpdated
			return items, nil
		}
		item.Quantity = 1
		result = model.AddedToCart
		return append(items, item), nil
	})
	if err != nil {
		c.notifier.Error("Failed to add item to cart")
		return 0, err
	}

	if result == model.QuantityUpdated {
		c.notifier.Success("Item quantity updated in cart")
	} else {
		c.notifier.Success("Added to cart")
	}
	c.publish(bus.TopicCartUpdated, items, "")
	return result, nil
}

// UpdateQuantity sets the quantity of line id. Quantities below 1 are rejected
// without writing or publishing anything.
func (c *Cart) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		c.notifier.Error("Quantity cannot be less than 1")
		return model.ErrInvalidQuantity
	}

	items, err := c.mutate(ctx, func(items model.CartItems) (model.CartItems, error) {
		i := items.Index(id)
		if i < 0 {
			return nil, fmt.Errorf("cart item %s: %w", id, model.ErrNotFound)
		}
		items[i].Quantity = quantity
		return items, nil
	})
	if err != nil {
		return err
	}
	c.publish(bus.TopicCartUpdated, items, "")
	return nil
}

// Remove drops line id and publishes cartItemRemoved followed by cartUpdated.
func (c *Cart) Remove(ctx context.Context, id string) error {
	items, err := c.mutate(ctx, func(items model.CartItems) (model.CartItems, error) {
		out := make(model.CartItems, 0, len(items))
		for _, it := range items {
			if it.ID != id {
				out = append(out, it)
			}
		}
		return out, nil
	})
	if err != nil {
		return err
	}
	c.publish(bus.TopicCartItemRemoved, items, id)
	c.publish(bus.TopicCartUpdated, items, "")
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	if err := kv.SetJSON(ctx, c.store, model.KeyCartItems, model.CartItems{}); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	c.publish(bus.TopicCartUpdated, model.CartItems{}, "")
	return nil
}

// ProceedToCheckout copies the cart into the checkout snapshot.
func (c *Cart) ProceedToCheckout(ctx context.Context) (model.CartItems, error) {
	items, err := c.Items(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		c.notifier.Error("Your cart is empty")
		return nil, model.ErrEmptyCart
	}
	if err := kv.SetJSON(ctx, c.store, model.KeyCheckoutItems, items); err != nil {
		return nil, fmt.Errorf("failed to store checkout items: %w", err)
	}
	return items, nil
}

func (c *Cart) mutate(ctx context.Context, fn func(model.CartItems) (model.CartItems, error)) (model.CartItems, error) {
	items, err := kv.UpdateJSON(ctx, c.store, model.KeyCartItems, func(cur model.CartItems) (model.CartItems, error) {
		// fn may run again after a conflict, so it always gets its own copy.
		next, err := fn(append(model.CartItems{}, cur...))
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = model.CartItems{}
		}
		return next, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	return items, nil
}

func (c *Cart) publish(topic bus.Topic, items model.CartItems, removedID string) {
	c.bus.PublishCart(topic, model.CartChange{
		Items:     items,
		Total:     items.Total(),
		RemovedID: removedID,
	})
}
