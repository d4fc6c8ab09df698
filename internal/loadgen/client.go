package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to the analyzer HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// Health returns nil when /healthz answers 200.
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/healthz", nil, &map[string]string{})
}

// Upload posts one engagement.
func (c *Client) Upload(ctx context.Context, up Upload) (UploadResponse, error) {
	var out UploadResponse
	body, err := json.Marshal(up)
	if err != nil {
		return out, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/datasets", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return out, statusError(resp)
	}
	return out, json.NewDecoder(resp.Body).Decode(&out)
}

// Plots fetches one view of a dataset with the service's default window.
func (c *Client) Plots(ctx context.Context, id, view string) (Plots, error) {
	var out Plots
	err := c.getJSON(ctx, "/datasets/"+url.PathEscape(id)+"/plots", url.Values{"view": {view}}, &out)
	return out, err
}

// Table fetches the merged table in JSON form.
func (c *Client) Table(ctx context.Context, id string) (Table, error) {
	var out Table
	err := c.getJSON(ctx, "/datasets/"+url.PathEscape(id)+"/table", url.Values{"format": {"json"}}, &out)
	return out, err
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s %s: status %d: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, bytes.TrimSpace(b))
}
