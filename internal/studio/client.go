// Package studio talks to the Studio course-authoring endpoints the move
// picker needs: the course outline, an item's ancestors and the move PATCH.
package studio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/starford/coursemover/internal/models"
)

const maxBodySize = 8 << 20 // 8 MB

// Config locates the Studio endpoints.
type Config struct {
	BaseURL       string
	XBlockURLRoot string
	OutlineURL    string
	Token         string
	CSRFToken     string
	Timeout       time.Duration
}

// TransportError reports a failed Studio call: a network error, a non-2xx
// status or an undecodable body.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("studio: %s %s: HTTP %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("studio: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client is a Studio API client. It is safe for concurrent use.
type Client struct {
	cfg  Config
	base *url.URL
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client. BaseURL must be absolute; the endpoint settings may be
// absolute or relative to it.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("studio: invalid base url %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		cfg:  cfg,
		base: base,
		http: &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("studio: invalid url %q: %w", ref, err)
	}
	return c.base.ResolveReference(u).String(), nil
}

func (c *Client) xblockURL(usageID string) (string, error) {
	root := strings.TrimRight(c.cfg.XBlockURLRoot, "/")
	if usageID == "" {
		return c.resolve(root + "/")
	}
	return c.resolve(root + "/" + url.PathEscape(usageID))
}

// FetchOutline loads the nested course outline.
func (c *Client) FetchOutline(ctx context.Context) (*models.XBlockInfo, error) {
	u, err := c.resolve(c.cfg.OutlineURL)
	if err != nil {
		return nil, err
	}
	var out models.XBlockInfo
	if err := c.do(ctx, "fetch outline", http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchAncestors loads the ancestor chain of usageID, nearest first.
func (c *Client) FetchAncestors(ctx context.Context, usageID string) (*models.AncestorInfo, error) {
	u, err := c.xblockURL(usageID)
	if err != nil {
		return nil, err
	}
	u += "?fields=ancestorInfo"
	var out models.AncestorInfo
	if err := c.do(ctx, "fetch ancestors", http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Move asks Studio to reparent an item.
func (c *Client) Move(ctx context.Context, req models.MoveRequest) (*models.MoveResponse, error) {
	u, err := c.xblockURL("")
	if err != nil {
		return nil, err
	}
	var out models.MoveResponse
	if err := c.do(ctx, "move", http.MethodPatch, u, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, u string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("studio: %s: encode: %w", op, err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return &TransportError{Op: op, URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	if c.cfg.CSRFToken != "" {
		req.Header.Set("X-CSRFToken", c.cfg.CSRFToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, URL: u, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return &TransportError{Op: op, URL: u, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return &TransportError{Op: op, URL: u, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(data) > maxBodySize {
		return &TransportError{Op: op, URL: u, Err: fmt.Errorf("body exceeds %d bytes", maxBodySize)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &TransportError{Op: op, URL: u, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
