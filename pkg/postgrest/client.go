package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
)

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Request describes one table operation.
type Request struct {
	// Filter holds column filters in PostgREST operator syntax, e.g.
	// {"stripe_customer_id": "eq.cus_123"}. Use Eq to build values.
	Filter map[string]string
	// Body is JSON-encoded and sent for POST and PATCH.
	Body any
	// Select limits the returned columns; empty returns all.
	Select string
	// Prefer adds PostgREST preference tokens, e.g. "resolution=merge-duplicates".
	Prefer []string
	// OnConflict names the unique columns an upserting POST resolves on.
	OnConflict string
}

// Client calls a PostgREST gateway. It is safe for concurrent use.
type Client struct {
	base *url.URL
	key  string
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// New creates a Client. Both URL and key are required.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, ErrNotConfigured
	}

	base, err := url.Parse(strings.TrimSuffix(cfg.URL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.Join(ErrInvalidURL, err)
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = cfg.Timeout

	c := &Client{base: base, key: cfg.Key, http: httpClient}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Eq builds an equality filter value.
func Eq(value string) string {
	return "eq." + value
}

// Select reads rows matching req.Filter into out.
func (c *Client) Select(ctx context.Context, table string, req Request, out any) error {
	return c.Do(ctx, http.MethodGet, table, req, out)
}

// Insert creates req.Body and decodes the written rows into out.
func (c *Client) Insert(ctx context.Context, table string, req Request, out any) error {
	return c.Do(ctx, http.MethodPost, table, req, out)
}

// Update patches every row matching req.Filter and decodes them into out.
func (c *Client) Update(ctx context.Context, table string, req Request, out any) error {
	return c.Do(ctx, http.MethodPatch, table, req, out)
}

// Do performs method on table. The gateway is asked to return the affected
// rows, which are decoded into out when it is non-nil.
func (c *Client) Do(ctx context.Context, method, table string, req Request, out any) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}

	u := c.base.JoinPath(table)
	q := u.Query()
	for column, filter := range req.Filter {
		q.Set(column, filter)
	}
	if req.Select != "" {
		q.Set("select", req.Select)
	}
	if req.OnConflict != "" {
		q.Set("on_conflict", req.OnConflict)
	}
	u.RawQuery = q.Encode()

	var body io.Reader
	if req.Body != nil && method != http.MethodGet {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return errors.Join(ErrEncodeRequest, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	httpReq.Header.Set("apikey", c.key)
	httpReq.Header.Set("Authorization", "Bearer "+c.key)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		httpReq.Header.Set("Prefer", strings.Join(append([]string{"return=representation"}, req.Prefer...), ","))
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return errors.Join(ErrRequestFailed, apiErr)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Join(ErrDecodeResponse, err)
	}
	return nil
}
