package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dtroode/ayurveda-storefront/internal/bus"
	"github.com/dtroode/ayurveda-storefront/internal/notify"
)

type watchCommand struct {
	*BaseCommand
	app *App
}

func newWatchCommand(app *App) *watchCommand {
	return &watchCommand{
		BaseCommand: NewBaseCommand("watch", "Print cart and session events until interrupted", "watch"),
		app:         app,
	}
}

func (c *watchCommand) Execute(ctx context.Context, _ []string, stdout, _ io.Writer) error {
	if err := c.app.UserSession.Bind(ctx); err != nil {
		return err
	}
	if err := c.app.SellerSession.Bind(ctx); err != nil {
		return err
	}

	keys, err := c.app.Store.Keys(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Watching as %s, %d stored keys\n", c.app.Store.Origin(), len(keys))

	var mu sync.Mutex
	sub := c.app.Bus.Subscribe(func(e bus.Event) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintln(stdout, describe(e))
	},
		bus.TopicCartUpdated, bus.TopicCartItemRemoved,
		bus.TopicUserLogin, bus.TopicUserLogout,
		bus.TopicSellerLogin, bus.TopicSellerLogout,
		bus.TopicStorage,
	)
	defer sub.Unsubscribe()

	if err := c.app.Sync.Run(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func describe(e bus.Event) string {
	switch {
	case e.Cart != nil:
		if e.Topic == bus.TopicCartItemRemoved {
			return fmt.Sprintf("%s %s", e.Topic, e.Cart.RemovedID)
		}
		return fmt.Sprintf("%s %d items, %s", e.Topic, e.Cart.Items.Count(), notify.Price(e.Cart.Total))
	case e.Session != nil:
		if e.Session.Session == nil {
			return fmt.Sprintf("%s %s", e.Topic, e.Session.Role)
		}
		return fmt.Sprintf("%s %s %s", e.Topic, e.Session.Role, e.Session.Session.Profile.Email)
	case e.Storage != nil:
		return fmt.Sprintf("%s %s by %s", e.Topic, e.Storage.Key, e.Storage.Origin)
	default:
		return string(e.Topic)
	}
}
