// Package geocode resolves delivery addresses with Nominatim.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/dtroode/ayurveda-storefront/internal/config"
	"github.com/dtroode/ayurveda-storefront/internal/logger"
	"github.com/dtroode/ayurveda-storefront/internal/model"
)

var _ model.Geocoder = (*Nominatim)(nil)

// Nominatim is a model.Geocoder backed by the Nominatim HTTP API.
// Requests are spaced by the configured rate limit.
type Nominatim struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	logger    *logger.Logger
}

func NewNominatim(cfg config.Geocoder, logger *logger.Logger) *Nominatim {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{},
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
}

// place is a Nominatim result; coordinates arrive as strings.
type place struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Error       string `json:"error"`
}

func (p place) toModel() (model.Place, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return model.Place{}, fmt.Errorf("invalid latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return model.Place{}, fmt.Errorf("invalid longitude %q: %w", p.Lon, err)
	}
	return model.Place{
		DisplayName: p.DisplayName,
		Coordinates: model.Coordinates{Latitude: lat, Longitude: lon},
	}, nil
}

// Reverse returns the address at the given point. The returned coordinates
// are the requested ones, not the matched feature's.
func (n *Nominatim) Reverse(ctx context.Context, at model.Coordinates) (model.Place, error) {
	q := url.Values{
		"format": {"json"},
		"lat":    {strconv.FormatFloat(at.Latitude, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(at.Longitude, 'f', -1, 64)},
	}
	var res place
	if err := n.get(ctx, "/reverse", q, &res); err != nil {
		return model.Place{}, err
	}
	if res.Error != "" || res.DisplayName == "" {
		return model.Place{}, fmt.Errorf("%w: %s", model.ErrNoMatch, res.Error)
	}
	return model.Place{DisplayName: res.DisplayName, Coordinates: at}, nil
}

// Search returns the best match for query.
func (n *Nominatim) Search(ctx context.Context, query string) (model.Place, error) {
	q := url.Values{
		"format": {"json"},
		"q":      {query},
	}
	var res []place
	if err := n.get(ctx, "/search", q, &res); err != nil {
		return model.Place{}, err
	}
	if len(res) == 0 {
		return model.Place{}, model.ErrNoMatch
	}
	return res[0].toModel()
}

func (n *Nominatim) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("geocoder rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("geocoder: building request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("geocoder: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		n.logger.Warn("Geocoder: unexpected status", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("geocoder: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("geocoder: decoding response: %w", err)
	}
	return nil
}
