package ipgeolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/yanqian/moonwatch/internal/domain/moonrise"
)

const defaultBaseURL = "https://api.ipgeolocation.io/v2/astronomy"

// ErrMissingAPIKey is returned when the client was built without credentials.
var ErrMissingAPIKey = fmt.Errorf("ipgeolocation api key not configured: %w", moonrise.ErrResolverMisconfigured)

// errCallerGone tags failures caused by the caller's context ending, as opposed
// to the client timeout.
var errCallerGone = errors.New("caller context done")

// Config carries the client settings taken from the application config.
type Config struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Client geocodes free-text locations through the ipgeolocation.io astronomy API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger
}

// NewClient builds an API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "ipgeolocation",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > failures
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up says nothing about upstream health
			return err == nil ||
				errors.Is(err, moonrise.ErrLocationNotFound) ||
				errors.Is(err, errCallerGone)
		},
	})

	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: breaker,
		logger:  logger.With("component", "geocode.ipgeolocation"),
	}
}

// HasAPIKey reports whether credentials were configured.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Resolve implements moonrise.LocationResolver.
func (c *Client) Resolve(ctx context.Context, query string) (moonrise.ObserverLocation, error) {
	if !c.HasAPIKey() {
		return moonrise.ObserverLocation{}, ErrMissingAPIKey
	}
	formatted := FormatQuery(query)
	if formatted == "" {
		return moonrise.ObserverLocation{}, moonrise.ErrLocationNotFound
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		body, err := c.fetch(ctx, formatted)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerGone, err)
		}
		return body, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("geolocation circuit open", "state", c.breaker.State().String())
		}
		return moonrise.ObserverLocation{}, err
	}

	var raw apiResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return moonrise.ObserverLocation{}, fmt.Errorf("decode geolocation response: %w", err)
	}
	loc, ok := raw.Location.toObserver(query, formatted)
	if !ok {
		c.logger.Info("geolocation returned no coordinates", "query", formatted)
		return moonrise.ObserverLocation{}, fmt.Errorf("no coordinates for %q: %w", query, moonrise.ErrLocationNotFound)
	}
	return loc, nil
}

func (c *Client) fetch(ctx context.Context, formatted string) ([]byte, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("location", formatted)
	endpoint := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build geolocation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("geolocation upstream error: status=%d body=%s", resp.StatusCode, string(payload))
	}
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		c.logger.Info("geolocation lookup rejected", "query", formatted, "status", resp.StatusCode, "body", string(payload))
		return nil, fmt.Errorf("lookup %q: status=%d: %w", formatted, resp.StatusCode, moonrise.ErrLocationNotFound)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read geolocation response: %w", err)
	}
	return body, nil
}

type apiResponse struct {
	Location apiLocation `json:"location"`
}

type apiLocation struct {
	Latitude       *coordinate `json:"latitude"`
	Longitude      *coordinate `json:"longitude"`
	City           string      `json:"city"`
	LocationString string      `json:"location_string"`
	StateProv      string      `json:"state_prov"`
	CountryName    string      `json:"country_name"`
}

func (l apiLocation) toObserver(query, formatted string) (moonrise.ObserverLocation, bool) {
	if l.Latitude == nil || l.Longitude == nil {
		return moonrise.ObserverLocation{}, false
	}
	lat, lng := float64(*l.Latitude), float64(*l.Longitude)
	if lat == 0 && lng == 0 {
		return moonrise.ObserverLocation{}, false
	}
	name := firstNonEmpty(l.City, l.LocationString, strings.TrimSpace(query))
	country := firstNonEmpty(l.CountryName, "Unknown")
	return moonrise.ObserverLocation{
		Latitude:          lat,
		Longitude:         lng,
		Name:              name,
		State:             l.StateProv,
		Country:           country,
		FormattedLocation: formatted,
	}, true
}

// coordinate accepts both JSON numbers and numeric strings; the API sends strings.
type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	text := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if text == "" || text == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("parse coordinate %q: %w", text, err)
	}
	*c = coordinate(v)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
