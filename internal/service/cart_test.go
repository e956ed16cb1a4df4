package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/ayurveda-storefront/internal/bus"
	"github.com/dtroode/ayurveda-storefront/internal/kv"
	"github.com/dtroode/ayurveda-storefront/internal/model"
	"github.com/dtroode/ayurveda-storefront/internal/testutil"
)

type cartFixture struct {
	store    *kv.Store
	bus      *bus.Bus
	notifier *testutil.RecordingNotifier
	cart     *Cart
	events   []bus.Event
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	f := &cartFixture{
		store:    newTestStore(t),
		bus:      bus.New(testutil.MakeNoopLogger()),
		notifier: &testutil.RecordingNotifier{},
	}
	f.cart = NewCart(f.store, f.bus, f.notifier, testutil.MakeNoopLogger())
	f.bus.Subscribe(func(e bus.Event) { f.events = append(f.events, e) }, bus.TopicCartUpdated, bus.TopicCartItemRemoved)
	return f
}

var (
	tulsi = model.CartItem{ID: "p1", Name: "Tulsi Drops", Price: 100}
	neem  = model.CartItem{ID: "p2", Name: "Neem Soap", Price: 45.5}
)

func TestCart_AddTwiceBumpsQuantity(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	res, err := f.cart.Add(ctx, tulsi)
	require.NoError(t, err)
	assert.Equal(t, model.AddedToCart, res)

	res, err = f.cart.Add(ctx, tulsi)
	require.NoError(t, err)
	assert.Equal(t, model.QuantityUpdated, res)

	items, err := f.cart.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	total, err := f.cart.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200.0, total)

	assert.Equal(t, []string{"Added to cart", "Item quantity updated in cart"}, f.notifier.Messages(testutil.KindSuccess))
	require.Len(t, f.events, 2)
	assert.Equal(t, 200.0, f.events[1].Cart.Total)
}

func TestCart_AddIgnoresIncomingQuantity(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	item := neem
	item.Quantity = 7
	_, err := f.cart.Add(ctx, item)
	require.NoError(t, err)

	n, err := f.cart.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCart_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		quantity int
		wantErr  error
		want     int
		message  string
	}{
		{name: "valid quantity", id: "p1", quantity: 5, want: 5},
		{name: "zero rejected", id: "p1", quantity: 0, wantErr: model.ErrInvalidQuantity, want: 1, message: "Quantity cannot be less than 1"},
		{name: "negative rejected", id: "p1", quantity: -3, wantErr: model.ErrInvalidQuantity, want: 1, message: "Quantity cannot be less than 1"},
		{name: "unknown line", id: "missing", quantity: 2, wantErr: model.ErrNotFound, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newCartFixture(t)
			_, err := f.cart.Add(ctx, tulsi)
			require.NoError(t, err)
			events := len(f.events)

			err = f.cart.UpdateQuantity(ctx, tt.id, tt.quantity)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Len(t, f.events, events)
			} else {
				require.NoError(t, err)
				assert.Len(t, f.events, events+1)
			}
			if tt.message != "" {
				assert.Equal(t, tt.message, f.notifier.Last().Message)
			}

			items, err := f.cart.Items(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, items[0].Quantity)
		})
	}
}

func TestCart_RemovePublishesRemovalThenUpdate(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	_, err := f.cart.Add(ctx, tulsi)
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, neem)
	require.NoError(t, err)
	f.events = nil

	require.NoError(t, f.cart.Remove(ctx, "p1"))

	require.Len(t, f.events, 2)
	assert.Equal(t, bus.TopicCartItemRemoved, f.events[0].Topic)
	assert.Equal(t, "p1", f.events[0].Cart.RemovedID)
	assert.Equal(t, bus.TopicCartUpdated, f.events[1].Topic)
	assert.Equal(t, model.CartItems{{ID: "p2", Name: "Neem Soap", Price: 45.5, Quantity: 1}}, f.events[1].Cart.Items)
}

func TestCart_ClearWritesEmptyList(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	_, err := f.cart.Add(ctx, tulsi)
	require.NoError(t, err)

	require.NoError(t, f.cart.Clear(ctx))

	raw, err := f.store.Get(ctx, model.KeyCartItems)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
	total, err := f.cart.Total(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCart_MalformedListReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	require.NoError(t, f.store.Set(ctx, model.KeyCartItems, `{"oops":true}`))

	items, err := f.cart.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = f.cart.Add(ctx, neem)
	require.NoError(t, err)
	items, err = f.cart.Items(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCart_ProceedToCheckout(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	_, err := f.cart.ProceedToCheckout(ctx)
	require.ErrorIs(t, err, model.ErrEmptyCart)
	assert.Equal(t, "Your cart is empty", f.notifier.Last().Message)
	_, err = f.store.Get(ctx, model.KeyCheckoutItems)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.cart.Add(ctx, tulsi)
	require.NoError(t, err)
	items, err := f.cart.ProceedToCheckout(ctx)
	require.NoError(t, err)

	snapshot, err := kv.GetJSON[model.CartItems](ctx, f.store, model.KeyCheckoutItems)
	require.NoError(t, err)
	assert.Equal(t, items, snapshot)
}

func TestCart_ConcurrentAddsFromTwoClients(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	log := testutil.MakeNoopLogger()
	// Two Cart instances over one store stand in for two tabs of the same client.
	a := NewCart(store, bus.New(log), &testutil.RecordingNotifier{}, log)
	b := NewCart(store, bus.New(log), &testutil.RecordingNotifier{}, log)

	var wg sync.WaitGroup
	for _, c := range []*Cart{a, b} {
		wg.Add(1)
		go func(c *Cart) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				for {
					if _, err := c.Add(ctx, tulsi); err == nil {
						break
					}
				}
			}
		}(c)
	}
	wg.Wait()

	items, err := a.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 20, items[0].Quantity)
}

func TestCart_AddRemoveTotals(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)

	_, err := f.cart.Add(ctx, model.CartItem{ID: "p1", Price: 100})
	require.NoError(t, err)
	total, err := f.cart.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, total)

	_, err = f.cart.Add(ctx, model.CartItem{ID: "p1", Price: 100})
	require.NoError(t, err)
	total, err = f.cart.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200.0, total)

	require.NoError(t, f.cart.Remove(ctx, "p1"))
	items, err := f.cart.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	total, err = f.cart.Total(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCart_ZeroQuantityLeavesStoredListUntouched(t *testing.T) {
	ctx := context.Background()
	f := newCartFixture(t)
	require.NoError(t, f.store.Set(ctx, model.KeyCartItems, `[{"_id":"p1","name":"Tulsi","price":100,"quantity":3}]`))
	before, err := f.store.Get(ctx, model.KeyCartItems)
	require.NoError(t, err)

	require.ErrorIs(t, f.cart.UpdateQuantity(ctx, "p1", 0), model.ErrInvalidQuantity)

	after, err := f.store.Get(ctx, model.KeyCartItems)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, f.events)
	assert.Equal(t, testutil.Toast{Kind: testutil.KindError, Message: "Quantity cannot be less than 1"}, f.notifier.Last())
}
