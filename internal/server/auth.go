package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fantienan/open-ai-dashboard/pkg/biz"
	"github.com/fantienan/open-ai-dashboard/pkg/core"
	"github.com/fantienan/open-ai-dashboard/pkg/fetcher"
)

const (
	sessionName    = "aidash_session"
	sessionToken   = "token"
	sessionUser    = "user"
	certifyPath    = "/auth/certification"
	authHeaderName = "Authorization"
)

// ErrNotCertified is returned by a Certifier that rejects the token.
var ErrNotCertified = errors.New("token not certified")

// Certifier resolves an Authorization token to a user.
type Certifier interface {
	Certify(ctx context.Context, token string) (*core.User, error)
}

// WebCertifier asks the web server who owns a token.
type WebCertifier struct {
	baseURL string
	opts    []fetcher.Option
}

// NewWebCertifier creates a certifier for the web server at baseURL.
func NewWebCertifier(baseURL string, opts ...fetcher.Option) *WebCertifier {
	return &WebCertifier{baseURL: baseURL, opts: opts}
}

// staticToken serves one token to the auth middleware and ignores rotation.
type staticToken string

func (t staticToken) Token() string           { return string(t) }
func (t staticToken) SetToken(_ string) error { return nil }

// Certify calls GET {web}/auth/certification with the token.
func (c *WebCertifier) Certify(ctx context.Context, token string) (*core.User, error) {
	client := fetcher.New(c.baseURL, c.opts...)
	client.Use(fetcher.AuthMiddleware(staticToken(token)))

	res, err := fetcher.Fetch[struct {
		User *core.User `json:"user"`
	}](ctx, client, http.MethodGet, certifyPath, nil)
	if err != nil {
		return nil, err
	}
	if !res.Success || res.Data.User == nil {
		return nil, ErrNotCertified
	}
	return res.Data.User, nil
}

type userKey struct{}

// userFrom returns the authenticated user of the request.
func userFrom(ctx context.Context) *core.User {
	u, _ := ctx.Value(userKey{}).(*core.User)
	return u
}

// isWhitelisted reports whether path, relative to the root, equals a
// whitelisted route or lies below one.
func (s *Server) isWhitelisted(path string) bool {
	for _, route := range s.whitelist {
		if path == route || strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}

// authenticate certifies the Authorization token on every request. The
// session only remembers which user the token was last certified as, so the
// local user row is written once per token rather than per request.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || s.isWhitelisted(strings.TrimPrefix(r.URL.Path, s.root)) {
			next.ServeHTTP(w, r)
			return
		}

		token := r.Header.Get(authHeaderName)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, biz.Unauthorized("").Envelope())
			return
		}

		user, err := s.certifier.Certify(r.Context(), token)
		if errors.Is(err, ErrNotCertified) {
			writeJSON(w, http.StatusUnauthorized, biz.Unauthorized("").Envelope())
			return
		}
		if err != nil {
			s.logger.Error("authentication failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, biz.Internal("", err).Envelope())
			return
		}

		session, _ := s.sessionStore.Get(r, sessionName)
		if recorded := sessionUserFor(session.Values, token); recorded == nil || recorded.ID != user.ID || recorded.Email != user.Email {
			if err := s.store.UpsertUser(r.Context(), user); err != nil {
				s.logger.Error("failed to record user", "user_id", user.ID, "error", err)
				writeJSON(w, http.StatusInternalServerError, biz.Internal("", err).Envelope())
				return
			}
			if data, err := json.Marshal(user); err == nil {
				session.Values[sessionToken] = token
				session.Values[sessionUser] = string(data)
				if err := session.Save(r, w); err != nil {
					s.logger.Warn("failed to save session", "error", err)
				}
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

// sessionUserFor returns the user recorded in the session for token, or nil.
func sessionUserFor(values map[any]any, token string) *core.User {
	if t, _ := values[sessionToken].(string); t != token {
		return nil
	}
	data, _ := values[sessionUser].(string)
	if data == "" {
		return nil
	}
	var u core.User
	if err := json.Unmarshal([]byte(data), &u); err != nil || u.ID == "" {
		return nil
	}
	return &u
}
