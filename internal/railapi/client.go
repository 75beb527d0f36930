package railapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 10 << 20

// Config describes how to reach the railway data API.
type Config struct {
	BaseURL string
	APIKey  string
	Host    string
	Timeout time.Duration
}

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream responded %d: %s", e.StatusCode, e.Body)
}

// Client issues authenticated GET requests against the railway data API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	host    string
}

func NewClient(cfg Config) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		host:    cfg.Host,
	}
}

// Fare fetches fare details for a train between two stations.
func (c *Client) Fare(ctx context.Context, trainNo, fromStationCode, toStationCode string) ([]byte, error) {
	params := url.Values{}
	params.Set("trainNo", trainNo)
	params.Set("fromStationCode", fromStationCode)
	params.Set("toStationCode", toStationCode)
	return c.get(ctx, "/api/v2/getFare", params)
}

// PNRStatus fetches the booking status for a PNR number.
func (c *Client) PNRStatus(ctx context.Context, pnr string) ([]byte, error) {
	params := url.Values{}
	params.Set("pnrNumber", pnr)
	return c.get(ctx, "/api/v3/getPNRStatus", params)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}
