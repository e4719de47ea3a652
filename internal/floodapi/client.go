package floodapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// ErrNoReadings is returned when the API answers successfully but the items
// array is empty. Idle stations legitimately return nothing, so callers
// treat this as a warning rather than a failure.
var ErrNoReadings = errors.New("no readings returned for station")

// APIError is a non-2xx response from the flood monitoring API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("flood api returned status %d: %s", e.StatusCode, e.Body)
}

// RawReading is a single item from the readings endpoint. The measure field
// is a resource URL whose last path segment names the measure.
type RawReading struct {
	ID       string  `json:"@id"`
	DateTime string  `json:"dateTime"`
	Measure  string  `json:"measure"`
	Value    float64 `json:"value"`
}

// Client talks to the Environment Agency flood monitoring API.
type Client struct {
	rootURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewClient(client *http.Client, rootURL string, maxRetries int) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "floodapi",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		rootURL: strings.TrimRight(rootURL, "/"),
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      maxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

// FetchStationIDs returns the identifiers of every station known upstream.
func (c *Client) FetchStationIDs(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/id/stations", c.rootURL))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Items []struct {
			ID string `json:"@id"`
		} `json:"items"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding station list: %w", err)
	}

	ids := make([]string, 0, len(payload.Items))
	for _, item := range payload.Items {
		if id := lastSegment(item.ID); id != "" {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// FetchReadings returns all readings for a station since the given time.
// The API caps the response at limit items server-side; whatever arrives
// is passed through without local truncation.
func (c *Client) FetchReadings(ctx context.Context, stationID string, since time.Time, limit int) ([]RawReading, error) {
	values := url.Values{}
	values.Set("since", since.UTC().Format("2006-01-02T15:04:00Z"))
	values.Set("_limit", strconv.Itoa(limit))

	u := fmt.Sprintf("%s/id/stations/%s/readings?_sorted&%s",
		c.rootURL, url.PathEscape(stationID), values.Encode())

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Items []RawReading `json:"items"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding readings for station %s: %w", stationID, err)
	}

	if len(payload.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoReadings, stationID)
	}

	return payload.Items, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// lastSegment returns the final path component of an API resource URL.
func lastSegment(u string) string {
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}
