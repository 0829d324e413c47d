// Package fetcher is the HTTP client used to talk to the AI server and the web
// server. Requests pass through an ordered middleware chain before dispatch and
// responses and errors pass back through it in the same order.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/fantienan/open-ai-dashboard/pkg/biz"
)

// Request is the mutable description of an outgoing call.
type Request struct {
	URL    string
	Method string
	Header http.Header
	Body   []byte
}

// Middleware intercepts requests, responses and errors. Any hook may be nil.
//
// An Error hook that returns a non-nil response short-circuits the chain and
// that response is returned to the caller. Otherwise the returned error
// replaces the current one for the next hook.
type Middleware struct {
	Name     string
	Request  func(req *Request) (*Request, error)
	Response func(resp *http.Response) (*http.Response, error)
	Error    func(err error, req *Request) (*http.Response, error)
}

// Client sends requests through the middleware chain. It makes a single
// attempt per call and sets no timeout of its own.
type Client struct {
	baseURL string
	http    *http.Client

	mu          sync.RWMutex
	middlewares []Middleware
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client whose relative URLs resolve against baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Use appends middlewares to the chain.
func (c *Client) Use(mws ...Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middlewares = append(c.middlewares, mws...)
}

// Middlewares returns the chain in registration order.
func (c *Client) Middlewares() []Middleware {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Middleware, len(c.middlewares))
	copy(out, c.middlewares)
	return out
}

// Prepare runs the request hooks and applies the client defaults, returning
// the request exactly as it would be dispatched.
func (c *Client) Prepare(method, url string, body any) (*Request, error) {
	req := &Request{URL: url, Method: method, Header: http.Header{}}
	if body != nil {
		switch b := body.(type) {
		case []byte:
			req.Body = b
		case string:
			req.Body = []byte(b)
		default:
			data, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request body: %w", err)
			}
			req.Body = data
		}
	}

	for _, mw := range c.Middlewares() {
		if mw.Request == nil {
			continue
		}
		next, err := mw.Request(req)
		if err != nil {
			return nil, fmt.Errorf("request middleware %s: %w", mw.Name, err)
		}
		req = next
	}

	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if !strings.HasPrefix(req.URL, "http") {
		req.URL = c.baseURL + req.URL
	}
	return req, nil
}

// Do sends the request. The caller must close the response body.
func (c *Client) Do(ctx context.Context, method, url string, body any) (*http.Response, error) {
	req, err := c.Prepare(method, url, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return c.handleError(err, req)
	}

	for _, mw := range c.Middlewares() {
		if mw.Response == nil {
			continue
		}
		next, err := mw.Response(resp)
		if err != nil {
			_ = resp.Body.Close()
			return c.handleError(err, req)
		}
		resp = next
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, req *Request) (*http.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	hreq.Header = req.Header.Clone()
	return c.http.Do(hreq)
}

func (c *Client) handleError(err error, req *Request) (*http.Response, error) {
	for _, mw := range c.Middlewares() {
		if mw.Error == nil {
			continue
		}
		resp, next := mw.Error(err, req)
		if resp != nil {
			return resp, nil
		}
		if next != nil {
			err = next
		}
	}
	return nil, err
}

// Fetch sends a request and decodes the {code,data,message,success} envelope.
func Fetch[T any](ctx context.Context, c *Client, method, url string, body any) (*biz.Result[T], error) {
	resp, err := c.Do(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var out biz.Result[T]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	return &out, nil
}
