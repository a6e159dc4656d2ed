package deblur

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Status is the lifecycle state of a deblur request at the API.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Prediction is the API's view of one deblur request.
type Prediction struct {
	RequestID string `json:"request_id"`
	Status    Status `json:"status"`
	OutputURL string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ClientConfig carries the deblur API settings, sourced from the
// environment.
type ClientConfig struct {
	BaseURL        string        `env:"DEBLUR_API_BASE_URL" envDefault:"https://api.magicapi.com/api/v1/magicapi/deblurer"`
	APIKey         string        `env:"DEBLUR_API_KEY,required"`
	RequestTimeout time.Duration `env:"DEBLUR_API_TIMEOUT" envDefault:"30s"`
	PollInterval   time.Duration `env:"DEBLUR_POLL_INTERVAL" envDefault:"2s"`
}

// Client talks to the deblur API over HTTP.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client, for tests.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// NewClient validates the configuration and builds an API client.
func NewClient(cfg ClientConfig, opts ...ClientOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Submit sends an image for processing and returns the API's request id.
func (c *Client) Submit(ctx context.Context, imageURL string) (string, error) {
	if imageURL == "" {
		return "", ErrEmptyImageURL
	}

	body, err := json.Marshal(map[string]string{"image": imageURL})
	if err != nil {
		return "", fmt.Errorf("encode submit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/deblurer", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-magicapi-key", c.cfg.APIKey)

	var resp struct {
		RequestID string `json:"request_id"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.RequestID == "" {
		return "", errors.Join(ErrRequestFailed, errors.New("no request id in response"))
	}
	return resp.RequestID, nil
}

// Result fetches the current state of a submitted request.
func (c *Client) Result(ctx context.Context, requestID string) (*Prediction, error) {
	if requestID == "" {
		return nil, ErrEmptyRequestID
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/predictions/"+requestID, nil)
	if err != nil {
		return nil, fmt.Errorf("build result request: %w", err)
	}
	req.Header.Set("x-magicapi-key", c.cfg.APIKey)

	var p Prediction
	if err := c.do(req, &p); err != nil {
		return nil, err
	}
	if p.RequestID == "" {
		p.RequestID = requestID
	}
	return &p, nil
}

// Await polls until the request reaches a terminal status or ctx expires.
func (c *Client) Await(ctx context.Context, requestID string) (*Prediction, error) {
	interval := c.cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p, err := c.Result(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if p.Status.Terminal() {
			return p, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Join(ErrRequestFailed,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Join(ErrRequestFailed, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
