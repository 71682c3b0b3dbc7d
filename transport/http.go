// Package transport implements the HTTP surface of the kitbase flags API:
// conditional configuration fetch, remote evaluation, and the SSE stream.
package transport

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

	"github.com/scr2em/kitbase-go/models"
)

const (
	configPath   = "/v1/feature-flags/config"
	evaluatePath = "/v1/feature-flags/evaluate"
	snapshotPath = "/v1/feature-flags/snapshot"
	streamPath   = "/v1/feature-flags/config/stream"
)

// DefaultRequestTimeout bounds every non-streaming request.
const DefaultRequestTimeout = 30 * time.Second

// Client is a thin, credentialed wrapper over net/http.
type Client struct {
	baseURL    string
	credential string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func New(baseURL, credential string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		credential: credential,
		timeout:    DefaultRequestTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchConfig performs a conditional GET of the configuration. When etag is
// non-empty it is sent as If-None-Match; a 304 reply returns notModified
// without a body. The ETag response header takes precedence over the etag
// field in the body.
func (c *Client) FetchConfig(ctx context.Context, etag string) (cfg *models.Configuration, newETag string, notModified bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+configPath, nil)
	if err != nil {
		return nil, "", false, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", false, wrapTransportErr("fetch configuration", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, etag, true, nil
	}
	if err := classifyStatus(resp); err != nil {
		return nil, "", false, err
	}

	var decoded models.Configuration
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, "", false, fmt.Errorf("decode configuration: %w", err)
	}
	newETag = resp.Header.Get("ETag")
	if newETag == "" {
		newETag = decoded.ETag
	}
	decoded.ETag = newETag
	return &decoded, newETag, false, nil
}

// Evaluate runs a single-flag evaluation on the server.
func (c *Client) Evaluate(ctx context.Context, req models.EvaluateRequest) (*models.EvaluatedFlag, error) {
	var out models.EvaluatedFlag
	if err := c.postJSON(ctx, "evaluate flag", evaluatePath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Snapshot evaluates every flag on the server for one context.
func (c *Client) Snapshot(ctx context.Context, req models.SnapshotRequest) ([]models.EvaluatedFlag, error) {
	var out models.SnapshotResponse
	if err := c.postJSON(ctx, "snapshot flags", snapshotPath, req, &out); err != nil {
		return nil, err
	}
	return out.Flags, nil
}

// OpenStream opens the server-push configuration channel. The caller owns the
// response body. No client-side timeout applies: the connection is long-lived
// and bounded by ctx.
func (c *Client) OpenStream(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+streamPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapTransportErr("open stream", err)
	}
	if err := classifyStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapTransportErr(op, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.credential)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// classifyStatus maps non-success responses onto the error taxonomy:
// 401 → authentication, anything else → API error with status and body.
func classifyStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthenticationError{Body: string(body)}
	}
	return &APIError{Status: resp.StatusCode, Body: string(body)}
}

func wrapTransportErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
