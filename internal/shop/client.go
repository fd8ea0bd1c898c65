// Package shop is a small HTTP client for the Plants vs Brainrots shop API.
// It is the snapshot source the notification engine polls.
package shop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shaharia-lab/stockbell/internal/build"
)

const (
	stockPath    = "/seed-shop.php"
	weatherPath  = "/weather.php"
	lastSeenPath = "/last-seen.php"

	maxBodyBytes = 1 << 20
)

// cleanName matches item names worth showing; the last-seen feed also
// carries internal keys and placeholders.
var cleanName = regexp.MustCompile(`^[A-Za-z ]+$`)

// Client fetches data from the shop API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client rooted at baseURL. Requests are traced with
// otelhttp and bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Fetch returns the current stock snapshot. It satisfies engine.Source.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	return c.FetchStock(ctx)
}

// FetchStock returns the current stock snapshot after validating it.
func (c *Client) FetchStock(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	if err := c.getJSON(ctx, stockPath, &snap); err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// FetchWeather returns the current weather event.
func (c *Client) FetchWeather(ctx context.Context) (*Weather, error) {
	var w Weather
	if err := c.getJSON(ctx, weatherPath, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// FetchLastSeen returns cleaned last-seen entries sorted by name. Entries
// whose names contain anything but letters and spaces, and the "Unknown"
// placeholder, are dropped.
func (c *Client) FetchLastSeen(ctx context.Context) ([]LastSeenItem, error) {
	var raw rawLastSeen
	if err := c.getJSON(ctx, lastSeenPath, &raw); err != nil {
		return nil, err
	}

	items := make([]LastSeenItem, 0, len(raw.Items))
	for name, ts := range raw.Items {
		if !cleanName.MatchString(name) || name == "Unknown" {
			continue
		}
		items = append(items, LastSeenItem{Name: name, LastSeen: ts})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("User-Agent", build.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Endpoint: path, StatusCode: resp.StatusCode}
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
