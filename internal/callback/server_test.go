package callback

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkstash/internal/auth"
	"linkstash/internal/tokenstore"
)

func postCapture(t *testing.T, handler http.Handler, body string, origin string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, capturePath, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_PageServesCaptureScript(t *testing.T) {
	s := NewServer(tokenstore.NewMemoryStore(), 0)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, callbackPath, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "script-src 'nonce-")

	body := rec.Body.String()
	assert.Contains(t, body, "location.hash")
	assert.Contains(t, body, "capture")
}

func TestServer_CaptureStoresTokens(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	s := NewServer(store, 0)

	rec := postCapture(t, s.Handler(), "#access_token=a1&refresh_token=r1&token_type=bearer", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Signed in")
	assert.Contains(t, rec.Body.String(), "BEARER")

	values, err := store.Get(context.Background(), tokenstore.KeyAccessToken, tokenstore.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "a1", values[tokenstore.KeyAccessToken])
	assert.Equal(t, "r1", values[tokenstore.KeyRefreshToken])

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	result, err := s.WaitForCallback(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.TokenSet{AccessToken: "a1", RefreshToken: "r1", TokenType: "bearer"}, result.Tokens)
}

func TestServer_CaptureWithoutAccessToken(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	s := NewServer(store, 0)

	rec := postCapture(t, s.Handler(), "refresh_token=r1", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign-in failed")

	values, err := store.Get(context.Background(), tokenstore.KeyRefreshToken)
	require.NoError(t, err)
	assert.Empty(t, values)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = s.WaitForCallback(ctx)
	assert.ErrorIs(t, err, auth.ErrMissingAccessToken)
}

func TestServer_CaptureWithEmptyFragmentEndsWait(t *testing.T) {
	s := NewServer(tokenstore.NewMemoryStore(), 0)

	page := httptest.NewRecorder()
	s.Handler().ServeHTTP(page, httptest.NewRequest(http.MethodGet, callbackPath, nil))
	require.Equal(t, http.StatusOK, page.Code)
	assert.NotContains(t, page.Body.String(), "if (!fragment)")

	rec := postCapture(t, s.Handler(), "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sign-in failed")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := s.WaitForCallback(ctx)
	assert.ErrorIs(t, err, auth.ErrMissingAccessToken)
}

func TestServer_CaptureHandledOnce(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	s := NewServer(store, 0)
	handler := s.Handler()

	first := postCapture(t, handler, "access_token=a1", "")
	second := postCapture(t, handler, "access_token=a2", "")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusConflict, second.Code)

	values, err := store.Get(context.Background(), tokenstore.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a1", values[tokenstore.KeyAccessToken])
}

func TestServer_CaptureRejectsForeignOrigin(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	s := NewServer(store, 0)

	rec := postCapture(t, s.Handler(), "access_token=evil", "https://attacker.example")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	values, err := store.Get(context.Background(), tokenstore.KeyAccessToken)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestServer_MethodRouting(t *testing.T) {
	s := NewServer(tokenstore.NewMemoryStore(), 0)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, capturePath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_StartAndCaptureOverHTTP(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	s := NewServer(store, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redirectURI, err := s.Start(ctx)
	require.NoError(t, err)
	defer s.Stop()

	assert.NotZero(t, s.Port())
	assert.True(t, strings.HasSuffix(redirectURI, "/callback"))
	assert.Equal(t, redirectURI, s.RedirectURI())

	resp, err := http.Get(redirectURI)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, strings.TrimSuffix(redirectURI, "/callback")+capturePath,
		strings.NewReader("access_token=a1&token_type=bearer"))
	require.NoError(t, err)
	req.Header.Set("Origin", strings.TrimSuffix(redirectURI, "/callback"))

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	result, err := s.WaitForCallback(waitCtx)
	require.NoError(t, err)
	assert.Equal(t, "a1", result.Tokens.AccessToken)
}

func TestServer_WaitForCallbackHonoursContext(t *testing.T) {
	s := NewServer(tokenstore.NewMemoryStore(), 0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.WaitForCallback(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServer_StartFailsWhenPortBusy(t *testing.T) {
	first := NewServer(tokenstore.NewMemoryStore(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := first.Start(ctx)
	require.NoError(t, err)
	defer first.Stop()

	second := NewServer(tokenstore.NewMemoryStore(), first.Port())
	_, err = second.Start(ctx)
	assert.Error(t, err)
}

func TestServer_StopIsIdempotent(t *testing.T) {
	s := NewServer(tokenstore.NewMemoryStore(), 0)
	_, err := s.Start(context.Background())
	require.NoError(t, err)

	s.Stop()
	s.Stop()
}
