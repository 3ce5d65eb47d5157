// Package geoloc resolves the user's coordinates through an ordered
// strategy chain: device-supplied coordinates, IP geolocation lookup, then
// a static default city.
package geoloc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/platefinder/platefinder/internal/geo"
)

// Source identifies which strategy produced the resolved coordinate.
type Source string

// Resolution sources, in fallback order.
const (
	SourceDevice  Source = "device"
	SourceIP      Source = "ip"
	SourceDefault Source = "default"
)

// DefaultLookupTimeout bounds the IP lookup call. This is the only
// bounded-wait operation in the resolution chain.
const DefaultLookupTimeout = 5 * time.Second

// DefaultCoordinate is the last-resort fallback location (San Francisco).
var DefaultCoordinate = geo.Coordinate{Lat: 37.7749, Lng: -122.4194}

// Hint carries the location evidence available for one request.
type Hint struct {
	// Device holds client-reported coordinates, if any.
	Device *geo.Coordinate
	// IP is the client address used for the IP-geolocation fallback.
	IP string
}

// Resolver resolves a coordinate for a request. Resolution is single-shot:
// a strategy failure transitions immediately to the next strategy with no
// retries, and the static default guarantees a result.
type Resolver struct {
	client    *http.Client
	lookupURL string
	timeout   time.Duration
	fallback  geo.Coordinate
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient overrides the HTTP client used for IP lookups.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithTimeout overrides the IP lookup timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// WithFallback overrides the static default coordinate.
func WithFallback(c geo.Coordinate) Option {
	return func(r *Resolver) { r.fallback = c }
}

// NewResolver creates a Resolver. lookupURL is the base URL of an
// ip-api-compatible geolocation service; when empty, the IP strategy is
// skipped entirely.
func NewResolver(lookupURL string, opts ...Option) *Resolver {
	r := &Resolver{
		client:    &http.Client{},
		lookupURL: lookupURL,
		timeout:   DefaultLookupTimeout,
		fallback:  DefaultCoordinate,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ipLookupResponse is the wire shape of the IP geolocation service.
type ipLookupResponse struct {
	Status string  `json:"status"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// Resolve walks the strategy chain and always returns a usable coordinate.
func (r *Resolver) Resolve(ctx context.Context, hint Hint) (geo.Coordinate, Source) {
	if hint.Device != nil && hint.Device.Valid() {
		return *hint.Device, SourceDevice
	}

	if r.lookupURL != "" && hint.IP != "" {
		if c, err := r.lookupIP(ctx, hint.IP); err == nil {
			return c, SourceIP
		} else {
			slog.DebugContext(ctx, "ip geolocation lookup failed", "error", err)
		}
	}

	return r.fallback, SourceDefault
}

func (r *Resolver) lookupIP(ctx context.Context, ip string) (geo.Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.lookupURL+"/"+ip, nil)
	if err != nil {
		return geo.Coordinate{}, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("ip lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Coordinate{}, fmt.Errorf("ip lookup returned status %d", resp.StatusCode)
	}

	var body ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return geo.Coordinate{}, fmt.Errorf("ip lookup response invalid: %w", err)
	}
	if body.Status != "success" {
		return geo.Coordinate{}, fmt.Errorf("ip lookup failed with status %q", body.Status)
	}

	c := geo.Coordinate{Lat: body.Lat, Lng: body.Lon}
	if !c.Valid() {
		return geo.Coordinate{}, fmt.Errorf("ip lookup returned out-of-range coordinate %v", c)
	}
	return c, nil
}
