package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/actionsum/activetime/internal/models"
)

// Client talks to a running daemon's API
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient accepts host:port or a full base URL
func NewClient(addr string, timeout time.Duration) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get(ctx, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Usage(ctx context.Context, date string) (*UsageResponse, error) {
	query := url.Values{}
	if date != "" {
		query.Set("date", date)
	}
	var resp UsageResponse
	if err := c.get(ctx, "/api/usage", query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Report(ctx context.Context, period string) (*models.Report, error) {
	query := url.Values{"period": {period}}
	var report models.Report
	if err := c.get(ctx, "/api/report", query, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Clear deletes all tracking data held by the daemon
func (c *Client) Clear(ctx context.Context) error {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set(ConfirmHeader, "yes")
	return c.do(ctx, http.MethodPost, "/api/clear", header, strings.NewReader("{}"), nil)
}

// Health reports whether the daemon answers
func (c *Client) Health(ctx context.Context) error {
	var body map[string]string
	return c.get(ctx, "/health", nil, &body)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("contacting daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
