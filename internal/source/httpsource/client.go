package httpsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"timerless/internal/event"
)

const maxBody = 1 << 20

// Client talks to the timer service over its JSON HTTP API.
// Requests are never retried; the poll loop's next tick is the retry.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
	}
}

func (c *Client) Snapshot(ctx context.Context) (event.Snapshot, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/state", nil)
	if err != nil {
		return event.Snapshot{}, err
	}
	return event.Decode(body)
}

func (c *Client) Config(ctx context.Context) (event.TimerConfig, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/config", nil)
	if err != nil {
		return event.TimerConfig{}, err
	}
	var cfg event.TimerConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		return event.TimerConfig{}, fmt.Errorf("failed to decode timer config: %w", err)
	}
	return cfg, nil
}

func (c *Client) SetConfig(ctx context.Context, cfg event.TimerConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode timer config: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "/api/config", payload)
	return err
}

func (c *Client) StartWork(ctx context.Context) error    { return c.action(ctx, "start_work") }
func (c *Client) RequestBreak(ctx context.Context) error { return c.action(ctx, "request_break") }
func (c *Client) Pause(ctx context.Context) error        { return c.action(ctx, "pause") }
func (c *Client) Resume(ctx context.Context) error       { return c.action(ctx, "resume") }
func (c *Client) Stop(ctx context.Context) error         { return c.action(ctx, "stop") }
func (c *Client) Reset(ctx context.Context) error        { return c.action(ctx, "reset") }
func (c *Client) Clear(ctx context.Context) error        { return c.action(ctx, "clear") }

func (c *Client) action(ctx context.Context, name string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/"+name, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response for %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s failed: status %d", method, path, resp.StatusCode)
	}
	return body, nil
}
