package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/dtroode/ayurveda-storefront/internal/bus"
	"github.com/dtroode/ayurveda-storefront/internal/config"
	"github.com/dtroode/ayurveda-storefront/internal/kv"
	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// Navigation targets returned alongside errors and completions.
const (
	RouteHome   = "/"
	RouteCart   = "/cart"
	RouteLogin  = "/login"
	RouteOrders = "/orders"
)

// Checkout starts checkout attempts over the stored snapshots.
type Checkout struct {
	store    *kv.Store
	bus      *bus.Bus
	session  *Session
	orders   model.OrderAPI
	geocoder model.Geocoder
	locator  model.Locator
	gateway  model.PaymentGateway
	notifier model.Notifier
	cfg      config.Gateway
	logger   *logger.Logger
}

func NewCheckout(
	store *kv.Store,
	bus *bus.Bus,
	session *Session,
	orders model.OrderAPI,
	geocoder model.Geocoder,
	locator model.Locator,
	gateway model.PaymentGateway,
	notifier model.Notifier,
	cfg config.Gateway,
	logger *logger.Logger,
) *Checkout {
	return &Checkout{
		store:    store,
		bus:      bus,
		session:  session,
		orders:   orders,
		geocoder: geocoder,
		locator:  locator,
		gateway:  gateway,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// PrepareBuyNow stores product as the single-item buy-now snapshot. It needs a
// logged-in user; otherwise it returns model.ErrUnauthenticated and the caller
// goes to RouteLogin.
func (c *Checkout) PrepareBuyNow(ctx context.Context, product model.Product) (model.CartItem, error) {
	if _, err := c.session.Require(ctx); err != nil {
		if errors.Is(err, model.ErrUnauthenticated) {
			c.notifier.Error("Please login to continue")
		}
		return model.CartItem{}, err
	}

	item := product.CartItem()
	if err := item.Validate(); err != nil {
		return model.CartItem{}, fmt.Errorf("invalid product: %w", err)
	}
	if err := kv.SetJSON(ctx, c.store, model.KeyBuyNowItem, item); err != nil {
		return model.CartItem{}, fmt.Errorf("failed to store buy-now item: %w", err)
	}
	return item, nil
}

// Begin opens an attempt over the snapshot chosen by source. A missing or empty
// snapshot yields an aborted attempt and model.ErrEmptySnapshot without any
// network call; Attempt.Redirect tells where to go.
func (c *Checkout) Begin(ctx context.Context, source model.SnapshotSource) (*Attempt, error) {
	a := &Attempt{
		checkout: c,
		source:   source,
		state:    model.StateInit,
		method:   model.PaymentCashOnDelivery,
	}

	items, err := c.snapshot(ctx, source)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		a.state = model.StateAborted
		if source == model.SourceBuyNow {
			c.notifier.Error("Product details not found")
			a.redirect = RouteHome
		} else {
			c.notifier.Error("No items in cart")
			a.redirect = RouteCart
		}
		return a, model.ErrEmptySnapshot
	}

	a.items = items
	a.state = model.StateAddressEntry
	return a, nil
}

func (c *Checkout) snapshot(ctx context.Context, source model.SnapshotSource) (model.CartItems, error) {
	if source == model.SourceBuyNow {
		item, err := kv.GetJSON[model.CartItem](ctx, c.store, model.KeyBuyNowItem)
		switch {
		case errors.Is(err, model.ErrNotFound):
			return nil, nil
		case errors.Is(err, model.ErrMalformedRecord):
			c.logger.Warn("Checkout service: ignoring malformed buy-now item", "error", err)
			return nil, nil
		case err != nil:
			return nil, fmt.Errorf("failed to read buy-now item: %w", err)
		}
		return model.CartItems{item}, nil
	}

	items, err := kv.GetJSON[model.CartItems](ctx, c.store, model.KeyCheckoutItems)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return nil, nil
	case errors.Is(err, model.ErrMalformedRecord):
		c.logger.Warn("Checkout service: ignoring malformed checkout items", "error", err)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read checkout items: %w", err)
	}
	return items, nil
}

// finalize clears every snapshot and the cart after a placed order.
func (c *Checkout) finalize(ctx context.Context) error {
	if err := c.store.Remove(ctx, model.KeyBuyNowItem, model.KeyCheckoutItems, model.KeyCartItems); err != nil {
		return fmt.Errorf("failed to clear checkout state: %w", err)
	}
	c.bus.PublishCart(bus.TopicCartUpdated, model.CartChange{Items: model.CartItems{}})
	return nil
}

// Attempt is one pass through the checkout state machine. Its methods are safe
// for concurrent use; network calls run without holding the lock.
type Attempt struct {
	checkout *Checkout
	source   model.SnapshotSource
	items    model.CartItems

	mu              sync.Mutex
	state           model.CheckoutState
	address         model.DeliveryAddress
	method          model.PaymentMethod
	loading         bool
	locationLoading bool
	redirect        string
}

func (a *Attempt) Source() model.SnapshotSource {
	return a.source
}

func (a *Attempt) Items() model.CartItems {
	return append(model.CartItems{}, a.items...)
}

func (a *Attempt) Total() float64 {
	return a.items.Total()
}

func (a *Attempt) State() model.CheckoutState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Attempt) Address() model.DeliveryAddress {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.address
}

func (a *Attempt) PaymentMethod() model.PaymentMethod {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.method
}

// Loading is set while an order is being submitted.
func (a *Attempt) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// LocationLoading is set while an address is being resolved.
func (a *Attempt) LocationLoading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.locationLoading
}

// Redirect is where the caller should navigate after an abort or completion.
func (a *Attempt) Redirect() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.redirect
}

func (a *Attempt) editable() error {
	switch a.state {
	case model.StateAddressEntry, model.StatePaymentSelection:
		return nil
	case model.StateSubmitting:
		return model.ErrBusy
	default:
		return fmt.Errorf("%w: %s", model.ErrInvalidState, a.state)
	}
}

// SetAddressText replaces the typed address. Any edit clears Verified.
func (a *Attempt) SetAddressText(text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.editable(); err != nil {
		return err
	}
	a.address.Text = text
	a.address.Verified = false
	return nil
}

// SetLocation records coordinates entered by hand. They are sent with the order
// but do not verify the address.
func (a *Attempt) SetLocation(at model.Coordinates) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.editable(); err != nil {
		return err
	}
	a.address.Location = &at
	return nil
}

func (a *Attempt) beginLocating() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.editable(); err != nil {
		return err
	}
	if a.locationLoading {
		return model.ErrBusy
	}
	a.locationLoading = true
	return nil
}

func (a *Attempt) endLocating(place *model.Place) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.locationLoading = false
	if place == nil {
		return
	}
	at := place.Coordinates
	a.address = model.DeliveryAddress{Text: place.DisplayName, Location: &at, Verified: true}
}

// Locate fills the address from the device position.
func (a *Attempt) Locate(ctx context.Context) error {
	c := a.checkout
	if err := a.beginLocating(); err != nil {
		return err
	}

	at, err := c.locator.Locate(ctx)
	if err != nil {
		a.endLocating(nil)
		c.logger.Warn("Checkout service: failed to locate device", "error", err)
		c.notifier.Error("Failed to get your location. Please try again or enter manually.")
		return fmt.Errorf("failed to locate: %w", err)
	}

	place, err := c.geocoder.Reverse(ctx, at)
	if err != nil {
		a.endLocating(nil)
		c.logger.Warn("Checkout service: reverse geocoding failed", "error", err)
		c.notifier.Error("Failed to get address details")
		return fmt.Errorf("failed to resolve location: %w", err)
	}
	place.Coordinates = at

	a.endLocating(&place)
	c.notifier.Success("Location detected successfully")
	return nil
}

// VerifyTyped resolves the typed address. A match replaces the text with its
// normalized form; no match leaves the address unverified.
func (a *Attempt) VerifyTyped(ctx context.Context) error {
	c := a.checkout
	text := strings.TrimSpace(a.Address().Text)
	if text == "" {
		c.notifier.Error("Please enter an address first")
		return model.NewValidationError("address", "Please enter an address first")
	}
	if err := a.beginLocating(); err != nil {
		return err
	}

	place, err := c.geocoder.Search(ctx, text)
	if err != nil {
		a.endLocating(nil)
		if errors.Is(err, model.ErrNoMatch) {
			c.notifier.Error("Could not verify this address. Please check and try again.")
			return err
		}
		c.logger.Warn("Checkout service: address search failed", "error", err)
		c.notifier.Error("Failed to verify address")
		return fmt.Errorf("failed to verify address: %w", err)
	}

	a.endLocating(&place)
	c.notifier.Success("Address verified successfully")
	return nil
}

// SelectPayment chooses the payment method.
func (a *Attempt) SelectPayment(method model.PaymentMethod) error {
	if method != model.PaymentCashOnDelivery && method != model.PaymentOnline {
		return model.NewValidationError("paymentMethod", fmt.Sprintf("unknown payment method %q", method))
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.editable(); err != nil {
		return err
	}
	a.method = method
	a.state = model.StatePaymentSelection
	return nil
}

// beginSubmit marks the attempt as submitting and returns the state it held
// before, which endSubmit restores when a precondition fails.
func (a *Attempt) beginSubmit() (model.DeliveryAddress, model.PaymentMethod, model.CheckoutState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loading {
		return model.DeliveryAddress{}, "", model.StateInit, model.ErrBusy
	}
	if err := a.editable(); err != nil {
		return model.DeliveryAddress{}, "", model.StateInit, err
	}
	prev := a.state
	a.loading = true
	a.state = model.StateSubmitting
	return a.address, a.method, prev, nil
}

func (a *Attempt) endSubmit(next model.CheckoutState, redirect string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false
	a.state = next
	if redirect != "" {
		a.redirect = redirect
	}
}

// Submit places the order with the selected payment method. A missing token or
// address restores the state held before the call; a failed order leaves the
// attempt in PaymentSelection so the user can try again.
func (a *Attempt) Submit(ctx context.Context) (err error) {
	c := a.checkout
	addr, method, next, err := a.beginSubmit()
	if err != nil {
		return err
	}

	redirect := ""
	defer func() { a.endSubmit(next, redirect) }()

	token, err := c.session.Token(ctx)
	if err != nil {
		if errors.Is(err, model.ErrUnauthenticated) {
			c.notifier.Error("Please login first")
			redirect = RouteLogin
		}
		return err
	}
	if strings.TrimSpace(addr.Text) == "" {
		c.notifier.Error("Please enter your delivery address")
		return model.NewValidationError("address", "Please enter your delivery address")
	}

	next = model.StatePaymentSelection
	if method == model.PaymentOnline {
		err = a.payOnline(ctx, token, addr)
	} else {
		err = a.placeCashOnDelivery(ctx, token, addr)
	}
	if err != nil {
		return err
	}

	next = model.StateCompleted
	redirect = RouteOrders
	return nil
}

func (a *Attempt) placeCashOnDelivery(ctx context.Context, token string, addr model.DeliveryAddress) error {
	c := a.checkout
	req := model.NewOrderRequest(a.items, addr, model.PaymentCashOnDelivery)
	if err := c.orders.PlaceOrder(ctx, token, req); err != nil {
		c.logger.Error("Checkout service: failed to place order", "error", err)
		c.notifier.Error(model.APIMessage(err, "Error placing order"))
		return fmt.Errorf("failed to place order: %w", err)
	}
	if err := c.finalize(ctx); err != nil {
		return err
	}
	c.notifier.Success("Order placed successfully!")
	return nil
}

func (a *Attempt) payOnline(ctx context.Context, token string, addr model.DeliveryAddress) error {
	c := a.checkout
	if !c.gateway.Load(ctx) {
		c.notifier.Error("Razorpay failed to load. Please try again.")
		return model.ErrGatewayUnavailable
	}

	order, err := c.orders.CreateGatewayOrder(ctx, token, model.GatewayOrderRequest{
		Amount:   int64(math.Round(a.items.Total() * 100)),
		Currency: c.cfg.Currency,
	})
	if err != nil {
		c.logger.Error("Checkout service: failed to create gateway order", "error", err)
		c.notifier.Error(model.APIMessage(err, "Failed to create order"))
		return fmt.Errorf("failed to create gateway order: %w", err)
	}

	opts := model.GatewayOptions{
		Key:         c.cfg.Key,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Name:        c.cfg.MerchantName,
		Description: fmt.Sprintf("Payment for %d items", len(a.items)),
		OrderID:     order.ID,
		ThemeColor:  c.cfg.ThemeColor,
	}
	if p, err := c.session.Profile(ctx); err == nil {
		opts.PrefillName = p.Name
		opts.PrefillMail = p.Email
	}

	confirmation, err := c.gateway.Open(ctx, opts)
	if err != nil {
		if errors.Is(err, model.ErrPaymentDismissed) {
			c.notifier.Info("Payment cancelled")
		} else {
			c.notifier.Error("Payment failed")
		}
		return fmt.Errorf("payment not completed: %w", err)
	}

	err = c.orders.VerifyPayment(ctx, token, model.PaymentVerification{
		PaymentConfirmation: confirmation,
		OrderData:           model.NewOrderRequest(a.items, addr, ""),
	})
	if err != nil {
		c.logger.Error("Checkout service: payment verification failed", "order_id", order.ID, "error", err)
		c.notifier.Error("Payment verification failed")
		return fmt.Errorf("failed to verify payment: %w", err)
	}

	if err := c.finalize(ctx); err != nil {
		return err
	}
	c.notifier.Success("Payment successful! Order placed.")
	return nil
}
