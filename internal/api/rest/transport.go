package rest

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/ayurveda-storefront/internal/logger"
)

// HeaderRequestID correlates client logs with server logs.
const HeaderRequestID = "X-Request-ID"

// requestID sets a fresh X-Request-ID on requests that carry none.
type requestID struct {
	next http.RoundTripper
}

func (t requestID) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(HeaderRequestID) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}
	return t.next.RoundTrip(req)
}

// logging logs method, path, duration and status of each outbound request.
type logging struct {
	next   http.RoundTripper
	logger *logger.Logger
}

func (t logging) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	id := req.Header.Get(HeaderRequestID)

	t.logger.Debug("HTTP request started",
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", id)

	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		t.logger.Warn("HTTP request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"request_id", id,
			"duration_ms", duration.Milliseconds(),
			"error", err.Error())
		return nil, err
	}

	t.logger.Debug("HTTP request completed",
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", id,
		"duration_ms", duration.Milliseconds(),
		"status", resp.StatusCode)
	return resp, nil
}

// newTransport chains request ids in front of logging so every logged
// request carries its id.
func newTransport(base http.RoundTripper, logger *logger.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return requestID{next: logging{next: base, logger: logger}}
}
