// Package gateway hands a payment over to the Razorpay checkout widget.
//
// The widget only runs in a browser, so Open serves a one-shot page on a
// loopback address and waits for the page to report the outcome.
package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dtroode/ayurveda-storefront/internal/config"
	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
	"github.com/dtroode/ayurveda-storefront/internal/server"
)

var _ model.PaymentGateway = (*Razorpay)(nil)

const shutdownTimeout = 5 * time.Second

// nonceHeader carries the per-attempt nonce embedded in the checkout page.
const nonceHeader = "X-Checkout-Nonce"

// errIncompletePayload is answered with 400; the page may retry.
var errIncompletePayload = errors.New("payment confirmation is incomplete")

// Razorpay is a model.PaymentGateway driving the Razorpay web checkout.
type Razorpay struct {
	cfg    config.Gateway
	http   *http.Client
	logger *logger.Logger

	// OnReady receives the page URL once the callback server listens.
	OnReady func(url string)

	mu     sync.Mutex
	loaded bool
}

func NewRazorpay(cfg config.Gateway, logger *logger.Logger) *Razorpay {
	return &Razorpay{
		cfg:    cfg,
		http:   &http.Client{},
		logger: logger,
	}
}

// Load checks that the checkout script can be fetched. Success is remembered;
// failures are retried on the next call.
func (r *Razorpay) Load(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.ScriptURL, nil)
	if err != nil {
		r.logger.Error("Gateway: invalid script url", "url", r.cfg.ScriptURL, "error", err)
		return false
	}
	resp, err := r.http.Do(req)
	if err != nil {
		r.logger.Warn("Gateway: failed to load checkout script", "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		r.logger.Warn("Gateway: checkout script unavailable", "status", resp.StatusCode)
		return false
	}
	r.loaded = true
	return true
}

type outcome struct {
	confirmation model.PaymentConfirmation
	err          error
}

// Open serves the checkout page and blocks until the widget reports success,
// the user dismisses it, or ctx ends.
func (r *Razorpay) Open(ctx context.Context, opts model.GatewayOptions) (model.PaymentConfirmation, error) {
	results := make(chan outcome, 1)
	report := func(o outcome) {
		select {
		case results <- o:
		default:
		}
	}

	data := pageData{
		ScriptURL: r.cfg.ScriptURL,
		Nonce:     uuid.NewString(),
		Options: widgetOptions{
			Key:         opts.Key,
			Amount:      opts.Amount,
			Currency:    opts.Currency,
			Name:        opts.Name,
			Description: opts.Description,
			OrderID:     opts.OrderID,
			Prefill:     widgetPrefill{Name: opts.PrefillName, Email: opts.PrefillMail},
			Theme:       widgetTheme{Color: opts.ThemeColor},
		},
	}

	srv := server.NewHTTPServer(r.router(data, report), r.cfg.CallbackAddr, r.logger)
	if err := srv.Start(server.NewLoopbackListener()); err != nil {
		return model.PaymentConfirmation{}, fmt.Errorf("failed to start payment callback server: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Stop(sctx); err != nil {
			r.logger.Warn("Gateway: failed to stop callback server", "error", err)
		}
	}()

	url := "http://" + srv.Address() + "/"
	r.logger.Debug("Gateway: checkout page ready", "url", url, "order_id", opts.OrderID)
	if r.OnReady != nil {
		r.OnReady(url)
	}

	select {
	case o := <-results:
		return o.confirmation, o.err
	case <-ctx.Done():
		return model.PaymentConfirmation{}, ctx.Err()
	}
}

func (r *Razorpay) router(data pageData, report func(outcome)) http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.NoCache)

	mux.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := checkoutPage.Execute(w, data); err != nil {
			r.logger.Error("Gateway: failed to render checkout page", "error", err)
		}
	})

	mux.Group(func(g chi.Router) {
		g.Use(r.fromPage(data.Nonce))
		g.Post("/callback", r.callback(report))
		g.Post("/dismiss", func(w http.ResponseWriter, _ *http.Request) {
			report(outcome{err: model.ErrPaymentDismissed})
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return mux
}

// fromPage admits only requests made by the page served for this attempt:
// the nonce must match and a browser Origin, when sent, must be this server.
func (r *Razorpay) fromPage(nonce string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			got := req.Header.Get(nonceHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(nonce)) != 1 {
				r.logger.Warn("Gateway: rejected request without checkout nonce", "path", req.URL.Path)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			if origin := req.Header.Get("Origin"); origin != "" && origin != "http://"+req.Host {
				r.logger.Warn("Gateway: rejected cross-origin request", "path", req.URL.Path, "origin", origin)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func (r *Razorpay) callback(report func(outcome)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var c model.PaymentConfirmation
		if err := json.NewDecoder(req.Body).Decode(&c); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		if c.OrderID == "" || c.PaymentID == "" || c.Signature == "" {
			http.Error(w, errIncompletePayload.Error(), http.StatusBadRequest)
			return
		}
		report(outcome{confirmation: c})
		w.WriteHeader(http.StatusNoContent)
	}
}
