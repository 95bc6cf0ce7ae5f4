package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"linkstash/internal/bookmarks"
	"linkstash/internal/callback"
	"linkstash/internal/tokenstore"
)

// syncBuffer is a bytes.Buffer safe for a command writing while a test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func resetFlags() {
	configDir = ""
	logLevel = ""
	outputFormat = "table"
	loginNoBrowser = false
	loginTimeout = callback.CallbackTimeout
	logoutLocal = false
	saveURL = ""
	saveTitle = ""
	saveHTMLFile = ""
	listLimit = bookmarks.DefaultListLimit
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, stdin io.Reader, args ...string) (*syncBuffer, *syncBuffer, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return stdout, stderr, err
}

// newConfigDir creates a config dir pointing at baseURL with a file token
// store and an ephemeral callback port.
func newConfigDir(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	content := "baseUrl: " + baseURL + "\ncallbackPort: 0\nlogLevel: error\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600))
	return dir
}

func seedSession(t *testing.T, dir, access, refresh string) {
	t.Helper()
	store, err := tokenstore.NewFileStore(dir)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Set(context.Background(), map[string]string{
		tokenstore.KeyAccessToken:  access,
		tokenstore.KeyRefreshToken: refresh,
		tokenstore.KeyTokenType:    "bearer",
	}))
}

func readSession(t *testing.T, dir string) map[string]string {
	t.Helper()
	store, err := tokenstore.NewFileStore(dir)
	require.NoError(t, err)
	defer store.Close()
	values, err := store.Get(context.Background(),
		tokenstore.KeyAccessToken, tokenstore.KeyRefreshToken, tokenstore.KeyTokenType)
	require.NoError(t, err)
	return values
}

// fakeBackend accepts "Bearer valid" (and "Bearer refreshed") and rotates
// the refresh token "good-refresh".
type fakeBackend struct {
	mu      sync.Mutex
	saved      []map[string]string
	revoked    int
	listLimits []string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{}

	authorized := func(r *http.Request) bool {
		a := r.Header.Get("Authorization")
		return a == "Bearer valid" || a == "Bearer refreshed"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.RefreshToken != "good-refresh" {
			http.Error(w, `{"detail":"Invalid refresh token"}`, http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]string{"access_token": "refreshed", "refresh_token": "rotated-refresh", "token_type": "bearer"})
	})
	mux.HandleFunc("POST /bookmarks", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var page map[string]string
		_ = json.NewDecoder(r.Body).Decode(&page)
		fb.mu.Lock()
		fb.saved = append(fb.saved, page)
		fb.mu.Unlock()
		writeJSON(w, map[string]string{"id": "b-42"})
	})
	mux.HandleFunc("GET /bookmarks", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fb.mu.Lock()
		fb.listLimits = append(fb.listLimits, r.URL.Query().Get("limit"))
		fb.mu.Unlock()
		writeJSON(w, map[string]interface{}{"bookmarks": []map[string]string{
			{"id": "b-1", "url": "https://go.dev", "title": "Go", "created_at": "2026-10-01T10:00:00+00:00"},
		}})
	})
	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]interface{}{"user_id": "u-1", "identities": []map[string]string{
			{"provider": "google", "email": "ada@example.com", "name": "Ada"},
		}})
	})
	mux.HandleFunc("POST /auth/revoke", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fb.mu.Lock()
		fb.revoked++
		fb.mu.Unlock()
		writeJSON(w, map[string]int{"revoked": 1})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return fb, server
}

func (fb *fakeBackend) revokedCount() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.revoked
}

func (fb *fakeBackend) requestedLimits() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.listLimits...)
}

func (fb *fakeBackend) savedPages() []map[string]string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]map[string]string(nil), fb.saved...)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
