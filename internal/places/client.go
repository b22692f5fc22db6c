// Package places looks up restaurants with the Google Places API (New).
//
// Requests are throttled by a token bucket and guarded by a circuit breaker;
// every failure surfaces as an Upstream error, except an unknown place ID,
// which is NotFound.
package places

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/mmynk/platepick/internal/errs"
	"github.com/mmynk/platepick/internal/metrics"
)

// DefaultBaseURL is the Places API (New) endpoint.
const DefaultBaseURL = "https://places.googleapis.com"

const (
	autocompleteFieldMask = "suggestions.placePrediction.placeId,suggestions.placePrediction.text"
	detailsFieldMask      = "id,displayName,formattedAddress,priceLevel,priceRange,primaryType,types"
	breakerName           = "google-places"
	maxResponseBytes      = 1 << 20
)

// restaurantTypes narrows autocomplete to places people eat at.
var restaurantTypes = []string{"restaurant", "cafe", "bar", "meal_takeaway", "meal_delivery"}

// Config holds the places client settings.
type Config struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// Rate is the sustained request rate per second; Burst the bucket size.
	Rate  float64 `koanf:"rate" validate:"gt=0"`
	Burst int     `koanf:"burst" validate:"gte=1"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the circuit breaker.
type BreakerConfig struct {
	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32 `koanf:"max_requests" validate:"gte=1"`
	// Interval resets the failure counts while closed.
	Interval time.Duration `koanf:"interval" validate:"gte=0"`
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration `koanf:"open_timeout" validate:"gt=0"`
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32 `koanf:"consecutive_failures" validate:"gte=1"`
}

// DefaultConfig returns settings suitable for the public endpoint. The API
// key has no default.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: 5 * time.Second,
		Rate:    5,
		Burst:   10,
		Breaker: BreakerConfig{
			MaxRequests:         1,
			Interval:            time.Minute,
			OpenTimeout:         30 * time.Second,
			ConsecutiveFailures: 5,
		},
	}
}

// Suggestion is one autocomplete prediction.
type Suggestion struct {
	PlaceID string
	Text    string
}

// Place is the detail record of one place.
type Place struct {
	ID          string
	Name        string
	Address     string
	PriceLevel  string
	PrimaryType string
	Types       []string

	// PriceRange is the typical spend per person, nil when the place has
	// none. It is informational and plays no part in scoring.
	PriceRange *PriceRange
}

// PriceRange is a per-person price band. Start or End may be unset.
type PriceRange struct {
	Currency string
	Start    *float64
	End      *float64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics records request outcomes and breaker state on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client calls the Places API. It is safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a places client.
func New(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Rate <= 0 {
		cfg.Rate = def.Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.Breaker.ConsecutiveFailures == 0 {
		cfg.Breaker = def.Breaker
	}

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	trips := cfg.Breaker.ConsecutiveFailures
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trips
		},
		// A missing place is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errs.Is(err, errs.NotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("Places circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			c.metrics.PlacesBreakerState(name, int(to))
		},
	})
	c.metrics.PlacesBreakerState(breakerName, int(gobreaker.StateClosed))

	return c
}

type autocompleteRequest struct {
	Input                string   `json:"input"`
	IncludedPrimaryTypes []string `json:"includedPrimaryTypes"`
	SessionToken         string   `json:"sessionToken,omitempty"`
}

type autocompleteResponse struct {
	Suggestions []struct {
		PlacePrediction *struct {
			PlaceID string `json:"placeId"`
			Text    struct {
				Text string `json:"text"`
			} `json:"text"`
		} `json:"placePrediction"`
	} `json:"suggestions"`
}

type detailsResponse struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string   `json:"formattedAddress"`
	PriceLevel       string   `json:"priceLevel"`
	PriceRange       *struct {
		StartPrice *money `json:"startPrice"`
		EndPrice   *money `json:"endPrice"`
	} `json:"priceRange"`
	PrimaryType string   `json:"primaryType"`
	Types       []string `json:"types"`
}

// money is google.type.Money in its JSON form; units is an int64 string.
type money struct {
	CurrencyCode string `json:"currencyCode"`
	Units        string `json:"units"`
	Nanos        int64  `json:"nanos"`
}

func (m *money) value() *float64 {
	if m == nil {
		return nil
	}
	units, err := strconv.ParseInt(m.Units, 10, 64)
	if err != nil && m.Units != "" {
		return nil
	}
	v := float64(units) + float64(m.Nanos)/1e9
	return &v
}

func (r *detailsResponse) priceRange() *PriceRange {
	if r.PriceRange == nil || (r.PriceRange.StartPrice == nil && r.PriceRange.EndPrice == nil) {
		return nil
	}
	pr := &PriceRange{
		Start: r.PriceRange.StartPrice.value(),
		End:   r.PriceRange.EndPrice.value(),
	}
	if sp := r.PriceRange.StartPrice; sp != nil {
		pr.Currency = sp.CurrencyCode
	} else {
		pr.Currency = r.PriceRange.EndPrice.CurrencyCode
	}
	return pr
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Autocomplete returns restaurant-like predictions for input. Blank input
// returns no suggestions without calling the API.
func (c *Client) Autocomplete(ctx context.Context, input, sessionToken string) ([]Suggestion, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	body, err := json.Marshal(autocompleteRequest{
		Input:                input,
		IncludedPrimaryTypes: restaurantTypes,
		SessionToken:         sessionToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode autocomplete request: %w", err)
	}

	raw, err := c.do(ctx, "autocomplete", http.MethodPost, "/v1/places:autocomplete", autocompleteFieldMask, body)
	if err != nil {
		return nil, err
	}

	var resp autocompleteResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errs.E(errs.Upstream, fmt.Errorf("failed to decode autocomplete response: %w", err))
	}

	suggestions := make([]Suggestion, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		if s.PlacePrediction == nil || s.PlacePrediction.PlaceID == "" {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			PlaceID: s.PlacePrediction.PlaceID,
			Text:    s.PlacePrediction.Text.Text,
		})
	}
	return suggestions, nil
}

// Details fetches a place by ID.
func (c *Client) Details(ctx context.Context, placeID, sessionToken string) (*Place, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, errs.Errorf(errs.InvalidInput, "place ID is required")
	}

	path := "/v1/places/" + url.PathEscape(placeID)
	if sessionToken != "" {
		path += "?sessionToken=" + url.QueryEscape(sessionToken)
	}

	raw, err := c.do(ctx, "details", http.MethodGet, path, detailsFieldMask, nil)
	if err != nil {
		return nil, err
	}

	var resp detailsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errs.E(errs.Upstream, fmt.Errorf("failed to decode place details: %w", err))
	}
	if resp.ID == "" {
		resp.ID = placeID
	}

	return &Place{
		ID:          resp.ID,
		Name:        resp.DisplayName.Text,
		Address:     resp.FormattedAddress,
		PriceLevel:  resp.PriceLevel,
		PrimaryType: resp.PrimaryType,
		Types:       resp.Types,
		PriceRange:  resp.priceRange(),
	}, nil
}

// do sends one request through the limiter and the breaker and returns the
// response body of a 2xx reply.
func (c *Client) do(ctx context.Context, op, method, path, fieldMask string, body []byte) ([]byte, error) {
	if c.cfg.APIKey == "" {
		c.metrics.PlacesRequest(op, "unconfigured")
		return nil, errs.Errorf(errs.Upstream, "places lookup is not configured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.metrics.PlacesRequest(op, "throttled")
		return nil, errs.E(errs.Upstream, fmt.Errorf("places %s throttled: %w", op, err))
	}

	raw, err := c.cb.Execute(func() ([]byte, error) {
		return c.send(ctx, method, path, fieldMask, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.metrics.PlacesRequest(op, "rejected")
			return nil, errs.E(errs.Upstream, fmt.Errorf("places %s: %w", op, err))
		}
		c.metrics.PlacesRequest(op, errs.KindOf(err).String())
		c.logger.Warn("Places request failed", "operation", op, "error", err)
		return nil, err
	}

	c.metrics.PlacesRequest(op, "ok")
	return raw, nil
}

func (c *Client) send(ctx context.Context, method, path, fieldMask string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimSuffix(c.cfg.BaseURL, "/")+path, reader)
	if err != nil {
		return nil, errs.E(errs.Upstream, fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.cfg.APIKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.E(errs.Upstream, fmt.Errorf("places request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errs.E(errs.Upstream, fmt.Errorf("failed to read places response: %w", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}

	msg := http.StatusText(resp.StatusCode)
	var apiErr errorResponse
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, errs.Errorf(errs.NotFound, "place not found: %s", msg)
	}
	return nil, errs.Errorf(errs.Upstream, "places API returned %d: %s", resp.StatusCode, msg)
}
