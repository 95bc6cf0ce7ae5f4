package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"linkstash/internal/tokenstore"
	"linkstash/pkg/logging"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// RefreshPath is appended to the base URL for token refresh.
const RefreshPath = "/auth/refresh"

// maxResponseBody bounds how much of a refresh response is read.
const maxResponseBody = 1 << 20

// BaseURLSource supplies the backend base URL. It is consulted on every
// request, so changes take effect without rebuilding the session.
type BaseURLSource interface {
	BaseURL() string
}

// StaticBaseURL is a BaseURLSource that never changes.
type StaticBaseURL string

// BaseURL returns s.
func (s StaticBaseURL) BaseURL() string { return string(s) }

// SessionConfig configures a Session.
type SessionConfig struct {
	// Store holds the persisted session. Required.
	Store tokenstore.Store

	// BaseURL locates the backend. Required.
	BaseURL BaseURLSource

	// HTTPClient is used for refresh calls. Defaults to a client with
	// DefaultHTTPTimeout.
	HTTPClient *http.Client
}

// Session is the in-memory handle on the persisted token pair.
// It answers "is there a session", hands out the current access token and
// performs refreshes.
//
// Concurrent refreshes that start from the same stored refresh token are
// collapsed into a single request to the backend.
type Session struct {
	store      tokenstore.Store
	baseURL    BaseURLSource
	httpClient *http.Client

	refreshGroup singleflight.Group
}

// NewSession creates a session over the given store.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Store == nil {
		return nil, errors.New("session needs a token store")
	}
	if cfg.BaseURL == nil {
		return nil, errors.New("session needs a base URL source")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	return &Session{
		store:      cfg.Store,
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
	}, nil
}

// BaseURL returns the current backend base URL.
func (s *Session) BaseURL() string {
	return s.baseURL.BaseURL()
}

// Store returns the underlying token store.
func (s *Session) Store() tokenstore.Store {
	return s.store
}

// CurrentAccessToken returns the stored access token, or ErrNotSignedIn.
// It never touches the network.
func (s *Session) CurrentAccessToken(ctx context.Context) (string, error) {
	values, err := s.store.Get(ctx, tokenstore.KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}

	token := values[tokenstore.KeyAccessToken]
	if token == "" {
		return "", ErrNotSignedIn
	}
	return token, nil
}

// Tokens returns the full stored session, or ErrNotSignedIn.
func (s *Session) Tokens(ctx context.Context) (TokenSet, error) {
	values, err := s.store.Get(ctx,
		tokenstore.KeyAccessToken,
		tokenstore.KeyRefreshToken,
		tokenstore.KeyTokenType,
	)
	if err != nil {
		return TokenSet{}, fmt.Errorf("failed to read session: %w", err)
	}

	ts := tokenSetFromStore(values)
	if ts.AccessToken == "" {
		return TokenSet{}, ErrNotSignedIn
	}
	return ts, nil
}

// Refresh exchanges the stored refresh token for a new pair, persists it and
// returns the new access token.
//
// Errors:
//   - ErrRefreshUnavailable when no refresh token is stored
//   - *RefreshRejectedError when the backend answers non-2xx
//   - ErrMissingAccessToken when a 2xx response carries no access_token
//   - ctx.Err() when ctx ends first; a shared exchange still completes
//
// On any failure the stored tokens are left as they were.
func (s *Session) Refresh(ctx context.Context) (string, error) {
	values, err := s.store.Get(ctx, tokenstore.KeyRefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to read refresh token: %w", err)
	}

	refreshToken := values[tokenstore.KeyRefreshToken]
	if refreshToken == "" {
		return "", ErrRefreshUnavailable
	}

	// The exchange is bounded by the HTTP client timeout, not by any one
	// caller's context.
	ch := s.refreshGroup.DoChan(refreshToken, func() (interface{}, error) {
		return s.exchangeRefreshToken(context.WithoutCancel(ctx), refreshToken)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			logging.Debug("AuthSession", "Joined in-flight token refresh")
		}
		return res.Val.(string), nil
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

// exchangeRefreshToken performs the refresh call and stores the result.
func (s *Session) exchangeRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	endpoint := s.baseURL.BaseURL() + RefreshPath

	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("failed to read refresh response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Warn("SECURITY_AUDIT: token refresh rejected",
			"event", "token_refresh_rejected",
			"status", resp.StatusCode,
		)
		return "", &RefreshRejectedError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokenResp refreshResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("refresh response: %w", ErrMissingAccessToken)
	}

	// A response without a new refresh token keeps the current one usable.
	newRefresh := tokenResp.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}

	if err := s.store.Set(ctx, map[string]string{
		tokenstore.KeyAccessToken:  tokenResp.AccessToken,
		tokenstore.KeyRefreshToken: newRefresh,
	}); err != nil {
		return "", fmt.Errorf("failed to store refreshed tokens: %w", err)
	}

	slog.Info("SECURITY_AUDIT: session tokens refreshed",
		"event", "token_refreshed",
		"rotated_refresh_token", tokenResp.RefreshToken != "",
	)
	return tokenResp.AccessToken, nil
}

// SignOut removes the stored session with a single store write.
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.store.Set(ctx, map[string]string{
		tokenstore.KeyAccessToken:  "",
		tokenstore.KeyRefreshToken: "",
		tokenstore.KeyTokenType:    "",
	}); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	slog.Info("SECURITY_AUDIT: session cleared", "event", "session_cleared")
	return nil
}
