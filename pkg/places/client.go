// Package places provides address geocoding and business lookup via the
// Google Geocoding and Places APIs.
package places

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client resolves addresses to coordinates and searches for businesses near
// a point. A nil result with a nil error means the provider had no match;
// errors are reserved for transport and protocol failures.
type Client interface {
	// Geocode resolves an address to coordinates and structured components.
	Geocode(ctx context.Context, addr AddressInput) (*GeocodeResult, error)

	// SearchPlace runs a free-text place search biased toward the given point.
	SearchPlace(ctx context.Context, query string, lat, lng float64) (*Candidate, error)
}

// AddressInput is the address triple sent to the geocoder.
type AddressInput struct {
	Address string
	City    string
	State   string
}

// AddressComponent is one structured component of a provider address.
type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// GeocodeResult holds the geocoder output for an address.
type GeocodeResult struct {
	Latitude         float64
	Longitude        float64
	FormattedAddress string
	Components       []AddressComponent
}

// Candidate is one place returned by a search.
type Candidate struct {
	PlaceID          string
	Name             string
	FormattedAddress string
	Latitude         float64
	Longitude        float64
	Types            []string
	Components       []AddressComponent
}

// Option configures the client.
type Option func(*googleClient)

// WithBaseURL overrides the default Maps API base URL.
func WithBaseURL(url string) Option {
	return func(c *googleClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *googleClient) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit applied to all API calls.
func WithRateLimit(rps float64) Option {
	return func(c *googleClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// NewClient creates a Google-backed places Client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &googleClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}
