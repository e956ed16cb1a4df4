package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/dtroode/ayurveda-storefront/internal/model"
	"github.com/dtroode/ayurveda-storefront/internal/notify"
)

type ordersCommand struct {
	*BaseCommand
	app *App
}

func newOrdersCommand(app *App) *ordersCommand {
	return &ordersCommand{
		BaseCommand: NewBaseCommand("orders", "List your orders", "orders"),
		app:         app,
	}
}

func (c *ordersCommand) Execute(ctx context.Context, _ []string, stdout, _ io.Writer) error {
	orders, err := c.app.Orders.History(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		_, _ = fmt.Fprintln(stdout, "No orders yet")
		return nil
	}
	t := newTable("ID", "DATE", "ITEMS", "TOTAL", "PAYMENT", "STATUS")
	for _, o := range orders {
		date := "-"
		if !o.OrderAt.IsZero() {
			date = o.OrderAt.Local().Format("2006-01-02 15:04")
		}
		status := o.Status
		if o.PaymentStatus != "" {
			status += " / " + o.PaymentStatus
		}
		t.row(o.ID, date, fmt.Sprint(len(o.Items)), notify.Price(o.TotalAmount), string(o.PaymentMethod), status)
	}
	return t.write(stdout)
}

type contactCommand struct {
	*BaseCommand
	app *App

	msg model.ContactMessage
}

func newContactCommand(app *App) *contactCommand {
	return &contactCommand{
		BaseCommand: NewBaseCommand("contact", "Send a message to the store", "contact --name text --email addr --message text"),
		app:         app,
	}
}

func (c *contactCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.msg.Name, "name", "", "your name")
	fs.StringVar(&c.msg.Email, "email", "", "your email")
	fs.StringVar(&c.msg.Message, "message", "", "message text")
}

func (c *contactCommand) Execute(ctx context.Context, _ []string, _, _ io.Writer) error {
	_, err := c.app.Contact.Send(ctx, c.msg)
	return err
}
