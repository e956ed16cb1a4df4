package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/dtroode/ayurveda-storefront/internal/geocode"
	"github.com/dtroode/ayurveda-storefront/internal/model"
	"github.com/dtroode/ayurveda-storefront/internal/notify"
	"github.com/dtroode/ayurveda-storefront/internal/service"
)

// findProduct looks id up in the catalog.
func (a *App) findProduct(ctx context.Context, id string) (model.Product, error) {
	products, err := a.Catalog.Products(ctx, model.ProductFilter{})
	if err != nil {
		return model.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, fmt.Errorf("product %s: %w", id, model.ErrNotFound)
}

type cartCommand struct {
	*BaseCommand
	app *App
}

func newCartCommand(app *App) *cartCommand {
	return &cartCommand{
		BaseCommand: NewBaseCommand("cart", "Show or change the cart", "cart [show] | cart add <product-id> | cart update <product-id> <quantity> | cart remove <product-id> | cart clear"),
		app:         app,
	}
}

func (c *cartCommand) Execute(ctx context.Context, args []string, stdout, _ io.Writer) error {
	if len(args) == 0 {
		return c.show(ctx, stdout)
	}

	cart := c.app.Cart
	switch args[0] {
	case "show":
		return c.show(ctx, stdout)
	case "add":
		if len(args) != 2 {
			return c.usageError("expected a product id")
		}
		p, err := c.app.findProduct(ctx, args[1])
		if err != nil {
			return err
		}
		_, err = cart.Add(ctx, p.CartItem())
		return err
	case "update":
		if len(args) != 3 {
			return c.usageError("expected a product id and a quantity")
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return c.usageError("quantity must be a number")
		}
		return cart.UpdateQuantity(ctx, args[1], qty)
	case "remove":
		if len(args) != 2 {
			return c.usageError("expected a product id")
		}
		return cart.Remove(ctx, args[1])
	case "clear":
		return cart.Clear(ctx)
	default:
		return c.usageError("unknown subcommand %q", args[0])
	}
}

func (c *cartCommand) show(ctx context.Context, stdout io.Writer) error {
	items, err := c.app.Cart.Items(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		_, _ = fmt.Fprintln(stdout, "Your cart is empty")
		return nil
	}
	if err := itemTable(items).write(stdout); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "\nTotal: %s (%d items)\n", notify.Price(items.Total()), items.Count())
	return nil
}

func itemTable(items model.CartItems) *table {
	t := newTable("ID", "NAME", "PRICE", "QTY", "SUBTOTAL")
	for _, it := range items {
		t.row(it.ID, it.Name, notify.Price(it.Price), strconv.Itoa(it.Quantity), notify.Price(it.LineTotal()))
	}
	return t
}

type buyNowCommand struct {
	*BaseCommand
	app *App
}

func newBuyNowCommand(app *App) *buyNowCommand {
	return &buyNowCommand{
		BaseCommand: NewBaseCommand("buy-now", "Start a single-item checkout for a product", "buy-now <product-id>"),
		app:         app,
	}
}

func (c *buyNowCommand) Execute(ctx context.Context, args []string, stdout, _ io.Writer) error {
	if len(args) != 1 {
		return c.usageError("expected a product id")
	}
	p, err := c.app.findProduct(ctx, args[0])
	if err != nil {
		return err
	}
	item, err := c.app.Checkout(geocode.FixedLocator{}).PrepareBuyNow(ctx, p)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "%s is ready for checkout. Run 'storefront checkout --buy-now'.\n", item.Name)
	return nil
}

type checkoutCommand struct {
	*BaseCommand
	app *App

	buyNow  bool
	address string
	lat     string
	lon     string
	locate  bool
	verify  bool
	payment string
}

func newCheckoutCommand(app *App) *checkoutCommand {
	return &checkoutCommand{
		BaseCommand: NewBaseCommand("checkout", "Place an order for the cart or the buy-now item",
			"checkout [--buy-now] [--address text] [--lat deg --lon deg] [--locate] [--verify] [--payment cod|online]"),
		app: app,
	}
}

func (c *checkoutCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.buyNow, "buy-now", false, "check out the item prepared with buy-now instead of the cart")
	fs.StringVar(&c.address, "address", "", "delivery address")
	fs.StringVar(&c.lat, "lat", "", "latitude of the delivery point")
	fs.StringVar(&c.lon, "lon", "", "longitude of the delivery point")
	fs.BoolVar(&c.locate, "locate", false, "fill the address from --lat/--lon by reverse geocoding")
	fs.BoolVar(&c.verify, "verify", false, "verify the typed address")
	fs.StringVar(&c.payment, "payment", "cod", "payment method: cod or online")
}

func (c *checkoutCommand) coordinates() (*model.Coordinates, error) {
	if c.lat == "" && c.lon == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(c.lat, 64)
	if err != nil {
		return nil, c.usageError("invalid --lat %q", c.lat)
	}
	lon, err := strconv.ParseFloat(c.lon, 64)
	if err != nil {
		return nil, c.usageError("invalid --lon %q", c.lon)
	}
	return &model.Coordinates{Latitude: lat, Longitude: lon}, nil
}

func (c *checkoutCommand) Execute(ctx context.Context, args []string, stdout, _ io.Writer) error {
	if len(args) != 0 {
		return c.usageError("unexpected arguments")
	}
	var method model.PaymentMethod
	switch c.payment {
	case "cod":
		method = model.PaymentCashOnDelivery
	case "online":
		method = model.PaymentOnline
	default:
		return c.usageError("unknown payment method %q", c.payment)
	}
	at, err := c.coordinates()
	if err != nil {
		return err
	}
	if c.locate && at == nil {
		return c.usageError("--locate needs --lat and --lon")
	}

	source := model.SourceCart
	if c.buyNow {
		source = model.SourceBuyNow
	} else if _, err := c.app.Cart.ProceedToCheckout(ctx); err != nil {
		return err
	}

	attempt, err := c.app.Checkout(geocode.FixedLocator{At: at}).Begin(ctx, source)
	if err != nil {
		if attempt != nil && attempt.Redirect() != "" {
			_, _ = fmt.Fprintf(stdout, "Redirect: %s\n", attempt.Redirect())
		}
		return err
	}

	if err := itemTable(attempt.Items()).write(stdout); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "\nTotal: %s\n", notify.Price(attempt.Total()))

	if err := c.fillAddress(ctx, attempt, at); err != nil {
		return err
	}
	if err := attempt.SelectPayment(method); err != nil {
		return err
	}

	err = attempt.Submit(ctx)
	_, _ = fmt.Fprintf(stdout, "State: %s\n", attempt.State())
	if r := attempt.Redirect(); r != "" {
		_, _ = fmt.Fprintf(stdout, "Redirect: %s\n", r)
	}
	return err
}

func (c *checkoutCommand) fillAddress(ctx context.Context, attempt *service.Attempt, at *model.Coordinates) error {
	if c.locate {
		if err := attempt.Locate(ctx); err != nil {
			return err
		}
	} else if at != nil {
		if err := attempt.SetLocation(*at); err != nil {
			return err
		}
	}

	if c.address != "" {
		if err := attempt.SetAddressText(c.address); err != nil {
			return err
		}
	}
	if c.verify {
		err := attempt.VerifyTyped(ctx)
		if errors.Is(err, model.ErrNoMatch) {
			// Unverified addresses are still accepted.
			return nil
		}
		return err
	}
	return nil
}
