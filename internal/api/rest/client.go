// Package rest is the HTTP client of the storefront API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// ErrTransport wraps failures that happened before a response was received.
var ErrTransport = errors.New("storefront api unreachable")

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

var (
	_ model.AccountAPI = (*Client)(nil)
	_ model.CatalogAPI = (*Client)(nil)
	_ model.OrderAPI   = (*Client)(nil)
	_ model.SellerAPI  = (*Client)(nil)
	_ model.ContactAPI = (*Client)(nil)
)

// Client talks to the storefront API. Tokens are passed per call because a
// user and a seller identity may be active at the same time.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger
}

// New creates a Client for baseURL. A nil base uses http.DefaultTransport.
func New(baseURL string, base http.RoundTripper, logger *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: newTransport(base, logger)},
		logger:  logger,
	}
}

// envelope holds the fields every API response may carry.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

type request struct {
	method      string
	path        string
	token       string
	body        io.Reader
	contentType string
}

func jsonRequest(method, path, token string, in any) (request, error) {
	r := request{method: method, path: path, token: token}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return request{}, fmt.Errorf("failed to encode request body: %w", err)
		}
		r.body = bytes.NewReader(b)
		r.contentType = "application/json"
	}
	return r, nil
}

// call performs r and decodes a successful body into out when out is not nil.
// Non-2xx responses and bodies with "success": false become *model.APIError.
func (c *Client) call(ctx context.Context, r request, out any) error {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var env envelope
		_ = json.Unmarshal(body, &env)
		return &model.APIError{Status: resp.StatusCode, Message: env.Message}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}

	if body[0] == '{' {
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		if env.Success != nil && !*env.Success {
			return &model.APIError{Status: resp.StatusCode, Message: env.Message}
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) callJSON(ctx context.Context, method, path, token string, in, out any) error {
	r, err := jsonRequest(method, path, token, in)
	if err != nil {
		return err
	}
	return c.call(ctx, r, out)
}
