package fetcher

import (
	"net/http"
	"net/url"
	"strings"
)

// Backend pairs a server's absolute base URL with its root path.
type Backend struct {
	BaseURL  string
	RootPath string
}

// NewBackend derives the root path from baseURL.
func NewBackend(baseURL string) Backend {
	return Backend{BaseURL: strings.TrimRight(baseURL, "/"), RootPath: RootPath(baseURL)}
}

// RootPath returns "/" followed by the last path segment of baseURL, e.g.
// "http://localhost:3000/api/v1/ai-server" yields "/ai-server".
func RootPath(baseURL string) string {
	p := baseURL
	if u, err := url.Parse(baseURL); err == nil {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	return "/" + p[strings.LastIndex(p, "/")+1:]
}

// URLMiddleware rewrites relative URLs that start with a backend's root path to
// that backend's absolute URL. Backends are tried in order.
func URLMiddleware(backends ...Backend) Middleware {
	return Middleware{
		Name: "url",
		Request: func(req *Request) (*Request, error) {
			if strings.HasPrefix(req.URL, "http") {
				return req, nil
			}
			for _, b := range backends {
				if b.RootPath != "/" && strings.HasPrefix(req.URL, b.RootPath) {
					req.URL = b.BaseURL + strings.TrimPrefix(req.URL, b.RootPath)
					break
				}
			}
			return req, nil
		},
	}
}

// TokenStore holds the bearer token between calls.
type TokenStore interface {
	Token() string
	SetToken(token string) error
}

// AuthMiddleware attaches the stored token as the Authorization header and
// stores any token the server hands back.
func AuthMiddleware(store TokenStore) Middleware {
	return Middleware{
		Name: "auth",
		Request: func(req *Request) (*Request, error) {
			if token := store.Token(); token != "" {
				req.Header.Set("Authorization", token)
			} else {
				req.Header.Del("Authorization")
			}
			return req, nil
		},
		Response: func(resp *http.Response) (*http.Response, error) {
			if token := resp.Header.Get("Authorization"); token != "" {
				if err := store.SetToken(token); err != nil {
					return nil, err
				}
			}
			return resp, nil
		},
	}
}
