package fetcher

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootPath(t *testing.T) {
	tests := []struct {
		baseURL string
		want    string
	}{
		{"http://localhost:3000/api/v1/ai-server", "/ai-server"},
		{"http://localhost:3001/api/v1/web-server/", "/web-server"},
		{"https://example.com/", "/"},
		{"/api/v1/ai-server", "/ai-server"},
	}

	for _, tt := range tests {
		t.Run(tt.baseURL, func(t *testing.T) {
			assert.Equal(t, tt.want, RootPath(tt.baseURL))
		})
	}
}

func testBackends() (Backend, Backend) {
	return NewBackend("http://localhost:3000/api/v1/ai-server"),
		NewBackend("http://localhost:3001/api/v1/web-server")
}

func TestURLMiddleware(t *testing.T) {
	ai, web := testBackends()
	mw := URLMiddleware(web, ai)

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"web root", "/web-server/user/find", "http://localhost:3001/api/v1/web-server/user/find"},
		{"ai root", "/ai-server/llm/chat/history", "http://localhost:3000/api/v1/ai-server/llm/chat/history"},
		{"absolute untouched", "http://other/x", "http://other/x"},
		{"unknown root untouched", "/llm/chat", "/llm/chat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := mw.Request(&Request{URL: tt.url, Header: http.Header{}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.URL)
		})
	}
}

type memTokens struct {
	token string
}

func (m *memTokens) Token() string { return m.token }

func (m *memTokens) SetToken(token string) error {
	m.token = token
	return nil
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("sets token", func(t *testing.T) {
		mw := AuthMiddleware(&memTokens{token: "Bearer abc"})
		req, err := mw.Request(&Request{Header: http.Header{}})
		require.NoError(t, err)
		assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))
	})

	t.Run("removes stale header without token", func(t *testing.T) {
		mw := AuthMiddleware(&memTokens{})
		h := http.Header{}
		h.Set("Authorization", "stale")
		req, err := mw.Request(&Request{Header: h})
		require.NoError(t, err)
		assert.Empty(t, req.Header.Get("Authorization"))
	})

	t.Run("stores rotated token", func(t *testing.T) {
		store := &memTokens{token: "old"}
		mw := AuthMiddleware(store)
		resp := &http.Response{Header: http.Header{}}
		resp.Header.Set("Authorization", "new")
		_, err := mw.Response(resp)
		require.NoError(t, err)
		assert.Equal(t, "new", store.token)
	})
}

func TestChain_URLRewrittenBeforeAuth(t *testing.T) {
	ai, web := testBackends()
	c := New(ai.BaseURL)

	var urlSeenByAuth, headerSeenByAuth string
	auth := AuthMiddleware(&memTokens{token: "Bearer t1"})
	inner := auth.Request
	auth.Request = func(req *Request) (*Request, error) {
		urlSeenByAuth = req.URL
		headerSeenByAuth = req.Header.Get("Authorization")
		return inner(req)
	}
	c.Use(URLMiddleware(web, ai), auth)

	// A web-server path issued through a client whose default base is the AI server.
	req, err := c.Prepare(http.MethodGet, "/web-server/user/find", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3001/api/v1/web-server/user/find", urlSeenByAuth)
	assert.Empty(t, headerSeenByAuth)
	assert.Equal(t, "http://localhost:3001/api/v1/web-server/user/find", req.URL)
	assert.Equal(t, "Bearer t1", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}
