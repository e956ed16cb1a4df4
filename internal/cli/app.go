package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dtroode/ayurveda-storefront/internal/api/rest"
	"github.com/dtroode/ayurveda-storefront/internal/bus"
	"github.com/dtroode/ayurveda-storefront/internal/config"
	"github.com/dtroode/ayurveda-storefront/internal/gateway"
	"github.com/dtroode/ayurveda-storefront/internal/geocode"
	"github.com/dtroode/ayurveda-storefront/internal/kv"
	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
	"github.com/dtroode/ayurveda-storefront/internal/notify"
	"github.com/dtroode/ayurveda-storefront/internal/service"
	"github.com/dtroode/ayurveda-storefront/internal/storage/file"
	"github.com/dtroode/ayurveda-storefront/internal/storage/memory"
	"github.com/dtroode/ayurveda-storefront/internal/storage/minio"
	"github.com/dtroode/ayurveda-storefront/internal/storage/postgres"
	"github.com/dtroode/ayurveda-storefront/internal/storage/redis"
	"github.com/dtroode/ayurveda-storefront/internal/token"
)

// ErrPasswordRequired is returned when no password flag is given and stdin is not a terminal.
var ErrPasswordRequired = errors.New("password required: pass --password or run in a terminal")

// OpenBackend opens the store backend selected by cfg.Store.Driver.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *logger.Logger) (model.Backend, error) {
	ns := cfg.Store.Namespace
	switch cfg.Store.Driver {
	case "file":
		b, err := file.New(cfg.Store.Dir, ns, cfg.Store.PollInterval, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "memory":
		return memory.New(), nil
	case "postgres":
		b, err := postgres.Open(ctx, cfg.Database.DSN, ns, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "redis":
		b, err := redis.Open(ctx, cfg.Redis.URL, ns, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "minio":
		b, err := minio.Open(ctx, cfg.Storage, ns, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// App holds the wired services shared by all commands.
type App struct {
	Config *config.Config
	Logger *logger.Logger

	Store    *kv.Store
	Bus      *bus.Bus
	Notifier model.Notifier

	UserSession   *service.Session
	SellerSession *service.Session

	Cart    *service.Cart
	Account *service.Account
	Catalog *service.Catalog
	Seller  *service.Seller
	Orders  *service.Orders
	Contact *service.Contact
	Sync    *service.StorageSync

	API      *rest.Client
	Geocoder model.Geocoder
	Gateway  *gateway.Razorpay

	// Stdin is read for passwords when it is not a terminal.
	Stdin io.Reader
}

// NewApp wires the services over backend. Toasts go to notices.
func NewApp(cfg *config.Config, backend model.Backend, transport http.RoundTripper, notices io.Writer, logger *logger.Logger) *App {
	store := kv.New(backend, logger)
	logger = logger.With("origin", store.Origin())
	b := bus.New(logger)
	notifier := notify.NewToaster(notices)
	inspector := token.NewJWT()
	api := rest.New(cfg.API.BaseURL, transport, logger)

	user := service.NewSession(service.UserNamespace, store, b, inspector, logger)
	seller := service.NewSession(service.SellerNamespace, store, b, inspector, logger)

	razorpay := gateway.NewRazorpay(cfg.Gateway, logger)
	razorpay.OnReady = func(url string) {
		notifier.Info("Complete the payment in your browser: " + url)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		Store:         store,
		Bus:           b,
		Notifier:      notifier,
		UserSession:   user,
		SellerSession: seller,
		Cart:          service.NewCart(store, b, notifier, logger),
		Account:       service.NewAccount(api, user, store, inspector, notifier, logger),
		Catalog:       service.NewCatalog(api, user, notifier, logger),
		Seller:        service.NewSeller(api, seller, user, store, notifier, cfg.API, logger),
		Orders:        service.NewOrders(api, user, notifier, logger),
		Contact:       service.NewContact(api, notifier, logger),
		Sync:          service.NewStorageSync(store, b, logger),
		API:           api,
		Geocoder:      geocode.NewNominatim(cfg.Geocoder, logger),
		Gateway:       razorpay,
		Stdin:         os.Stdin,
	}
}

// Checkout builds the checkout orchestrator around locator.
func (a *App) Checkout(locator model.Locator) *service.Checkout {
	return service.NewCheckout(a.Store, a.Bus, a.UserSession, a.API, a.Geocoder, locator, a.Gateway, a.Notifier, a.Config.Gateway, a.Logger)
}

// Close releases the sessions and the store.
func (a *App) Close() error {
	a.UserSession.Close()
	a.SellerSession.Close()
	return a.Store.Close()
}

// password returns given, or prompts for one.
func (a *App) password(given string, prompt io.Writer) (string, error) {
	if given != "" {
		return given, nil
	}
	if f, ok := a.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(a.Stdin).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return "", ErrPasswordRequired
	}
	return line, nil
}

// Commands registers every command of the storefront CLI.
func (a *App) Commands() *Registry {
	r := NewRegistry()
	r.Register(NewHelpCommand(r))
	r.Register(newProductsCommand(a))
	r.Register(newProductCommand(a))
	r.Register(newReviewCommand(a))
	r.Register(newCartCommand(a))
	r.Register(newBuyNowCommand(a))
	r.Register(newCheckoutCommand(a))
	r.Register(newOrdersCommand(a))
	r.Register(newRegisterCommand(a))
	r.Register(newVerifyOTPCommand(a))
	r.Register(newLoginCommand(a))
	r.Register(newLogoutCommand(a))
	r.Register(newWhoamiCommand(a))
	r.Register(newSellerCommand(a))
	r.Register(newContactCommand(a))
	r.Register(newWatchCommand(a))
	return r
}
