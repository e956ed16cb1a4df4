package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/ayurveda-storefront/internal/config"
	"github.com/dtroode/ayurveda-storefront/internal/model"
	"github.com/dtroode/ayurveda-storefront/internal/testutil"
)

func testConfig(scriptURL string) config.Gateway {
	return config.Gateway{ScriptURL: scriptURL, CallbackAddr: "127.0.0.1:0"}
}

var testOptions = model.GatewayOptions{
	Key:         "rzp_test_key",
	Amount:      74900,
	Currency:    "INR",
	Name:        "Ayurveda Store",
	Description: "Payment for 2 items",
	OrderID:     "order_9",
	PrefillName: "Asha",
	PrefillMail: "asha@example.com",
	ThemeColor:  "#059669",
}

func TestRazorpay_Load(t *testing.T) {
	var hits atomic.Int32
	var status atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	r := NewRazorpay(testConfig(srv.URL+"/v1/checkout.js"), testutil.MakeNoopLogger())
	ctx := context.Background()

	assert.False(t, r.Load(ctx))
	status.Store(http.StatusOK)
	assert.True(t, r.Load(ctx))
	assert.True(t, r.Load(ctx))
	assert.Equal(t, int32(2), hits.Load())
}

func TestRazorpay_LoadUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	assert.False(t, NewRazorpay(testConfig(srv.URL), testutil.MakeNoopLogger()).Load(context.Background()))
}

var noncePattern = regexp.MustCompile(`var nonce = "([^"]+)";`)

// openPage fetches the checkout page and returns its body and nonce.
func openPage(t *testing.T, url string) (string, string) {
	t.Helper()
	resp, err := http.Get(url)
	if !assert.NoError(t, err) {
		return "", ""
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	m := noncePattern.FindStringSubmatch(string(b))
	if !assert.Len(t, m, 2, "checkout page must embed a nonce") {
		return string(b), ""
	}
	return string(b), m[1]
}

func post(t *testing.T, url string, header http.Header, body string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if !assert.NoError(t, err) {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if !assert.NoError(t, err) {
		return 0
	}
	resp.Body.Close()
	return resp.StatusCode
}

func withNonce(nonce string) http.Header {
	return http.Header{nonceHeader: {nonce}}
}

func TestRazorpay_OpenCallback(t *testing.T) {
	r := NewRazorpay(testConfig("https://checkout.example/checkout.js"), testutil.MakeNoopLogger())

	var page atomic.Value
	var incomplete atomic.Int32
	r.OnReady = func(url string) {
		go func() {
			body, nonce := openPage(t, url)
			page.Store(body)
			incomplete.Store(int32(post(t, url+"callback", withNonce(nonce), `{"razorpay_order_id":"order_9"}`)))
			post(t, url+"callback", withNonce(nonce), `{"razorpay_order_id":"order_9","razorpay_payment_id":"pay_1","razorpay_signature":"sig"}`)
		}()
	}

	got, err := r.Open(context.Background(), testOptions)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentConfirmation{OrderID: "order_9", PaymentID: "pay_1", Signature: "sig"}, got)

	assert.Equal(t, int32(http.StatusBadRequest), incomplete.Load())
	html, _ := page.Load().(string)
	assert.Contains(t, html, `src="https://checkout.example/checkout.js"`)
	assert.Contains(t, html, `"order_id":"order_9"`)
	assert.Contains(t, html, `"amount":74900`)
	assert.Contains(t, html, `"email":"asha@example.com"`)
}

func TestRazorpay_OpenDismissed(t *testing.T) {
	r := NewRazorpay(testConfig("https://checkout.example/checkout.js"), testutil.MakeNoopLogger())
	r.OnReady = func(url string) {
		go func() {
			_, nonce := openPage(t, url)
			post(t, url+"dismiss", withNonce(nonce), "")
		}()
	}

	_, err := r.Open(context.Background(), testOptions)
	assert.ErrorIs(t, err, model.ErrPaymentDismissed)
}

func TestRazorpay_OpenRejectsForeignRequests(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		header func(nonce string) http.Header
		body   string
	}{
		{name: "dismiss without nonce", path: "dismiss", header: func(string) http.Header { return nil }},
		{name: "dismiss with another nonce", path: "dismiss", header: func(string) http.Header { return withNonce("not-the-nonce") }},
		{
			name: "dismiss from another origin",
			path: "dismiss",
			header: func(nonce string) http.Header {
				h := withNonce(nonce)
				h.Set("Origin", "https://shop.example")
				return h
			},
		},
		{
			name:   "callback without nonce",
			path:   "callback",
			header: func(string) http.Header { return nil },
			body:   `{"razorpay_order_id":"order_9","razorpay_payment_id":"pay_forged","razorpay_signature":"sig"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRazorpay(testConfig("https://checkout.example/checkout.js"), testutil.MakeNoopLogger())
			var rejected atomic.Int32
			r.OnReady = func(url string) {
				go func() {
					_, nonce := openPage(t, url)
					rejected.Store(int32(post(t, url+tt.path, tt.header(nonce), tt.body)))
					post(t, url+"callback", withNonce(nonce), `{"razorpay_order_id":"order_9","razorpay_payment_id":"pay_1","razorpay_signature":"sig"}`)
				}()
			}

			got, err := r.Open(context.Background(), testOptions)
			require.NoError(t, err)
			assert.Equal(t, int32(http.StatusForbidden), rejected.Load())
			assert.Equal(t, "pay_1", got.PaymentID)
		})
	}
}

func TestRazorpay_OpenNoncePerAttempt(t *testing.T) {
	r := NewRazorpay(testConfig("https://checkout.example/checkout.js"), testutil.MakeNoopLogger())
	nonces := make(chan string, 2)
	r.OnReady = func(url string) {
		go func() {
			_, nonce := openPage(t, url)
			nonces <- nonce
			post(t, url+"dismiss", withNonce(nonce), "")
		}()
	}

	for range 2 {
		_, err := r.Open(context.Background(), testOptions)
		require.ErrorIs(t, err, model.ErrPaymentDismissed)
	}
	first, second := <-nonces, <-nonces
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestRazorpay_NoClientTimeout(t *testing.T) {
	r := NewRazorpay(testConfig("https://checkout.example/checkout.js"), testutil.MakeNoopLogger())
	assert.Zero(t, r.http.Timeout)
}

func TestRazorpay_OpenContextEnds(t *testing.T) {
	r := NewRazorpay(testConfig("https://checkout.example/checkout.js"), testutil.MakeNoopLogger())
	var address string
	r.OnReady = func(url string) { address = url }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := r.Open(ctx, testOptions)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = http.Get(address)
	assert.Error(t, err, "callback server must be stopped after Open returns")
}

func TestRazorpay_OpenRejectsPublicAddress(t *testing.T) {
	cfg := testConfig("https://checkout.example/checkout.js")
	cfg.CallbackAddr = "0.0.0.0:0"
	_, err := NewRazorpay(cfg, testutil.MakeNoopLogger()).Open(context.Background(), testOptions)
	assert.Error(t, err)
}
