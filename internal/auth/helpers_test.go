package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"linkstash/internal/tokenstore"
)

// countingStore wraps a store and records Set calls. setErr, when non-nil,
// makes every Set fail without writing.
type countingStore struct {
	tokenstore.Store

	mu       sync.Mutex
	setCalls int
	setErr   error
}

func newCountingStore() *countingStore {
	return &countingStore{Store: tokenstore.NewMemoryStore()}
}

func (s *countingStore) Set(ctx context.Context, values map[string]string) error {
	s.mu.Lock()
	s.setCalls++
	setErr := s.setErr
	s.mu.Unlock()

	if setErr != nil {
		return setErr
	}
	return s.Store.Set(ctx, values)
}

func (s *countingStore) SetCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCalls
}

func seedTokens(t *testing.T, store tokenstore.Store, access, refresh string) {
	t.Helper()
	require.NoError(t, store.Set(context.Background(), map[string]string{
		tokenstore.KeyAccessToken:  access,
		tokenstore.KeyRefreshToken: refresh,
	}))
}

func storedTokens(t *testing.T, store tokenstore.Store) map[string]string {
	t.Helper()
	values, err := store.Get(context.Background(),
		tokenstore.KeyAccessToken, tokenstore.KeyRefreshToken, tokenstore.KeyTokenType)
	require.NoError(t, err)
	return values
}

// fakeBackend serves /auth/refresh and a protected /target endpoint.
type fakeBackend struct {
	t *testing.T

	mu             sync.Mutex
	targetCalls    int
	refreshCalls   int
	targetAuth     []string
	targetBodies   []string
	targetHeaders  []http.Header
	refreshBodies  []string
	targetStatusFn func(call int, authorization string) int

	refreshStatus   int
	refreshBody     string
	refreshResponse map[string]string
	refreshGate     chan struct{}
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	fb := &fakeBackend{
		t:             t,
		refreshStatus: http.StatusOK,
		refreshResponse: map[string]string{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"token_type":    "bearer",
		},
		targetStatusFn: func(int, string) int { return http.StatusOK },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", fb.handleRefresh)
	mux.HandleFunc("/target", fb.handleTarget)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return fb, server
}

func (fb *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	fb.mu.Lock()
	fb.refreshCalls++
	fb.refreshBodies = append(fb.refreshBodies, string(body))
	gate := fb.refreshGate
	status := fb.refreshStatus
	respBody := fb.refreshBody
	resp := fb.refreshResponse
	fb.mu.Unlock()

	if gate != nil {
		<-gate
	}

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status < 200 || status > 299 {
		_, _ = io.WriteString(w, respBody)
		return
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (fb *fakeBackend) handleTarget(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	authorization := r.Header.Get("Authorization")

	fb.mu.Lock()
	fb.targetCalls++
	call := fb.targetCalls
	fb.targetAuth = append(fb.targetAuth, authorization)
	fb.targetBodies = append(fb.targetBodies, string(body))
	fb.targetHeaders = append(fb.targetHeaders, r.Header.Clone())
	statusFn := fb.targetStatusFn
	fb.mu.Unlock()

	status := statusFn(call, authorization)
	w.WriteHeader(status)
	_, _ = io.WriteString(w, http.StatusText(status))
}

func (fb *fakeBackend) counts() (target, refresh int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.targetCalls, fb.refreshCalls
}

func newTestClient(t *testing.T, store tokenstore.Store, baseURL string) *Client {
	t.Helper()
	session, err := NewSession(SessionConfig{Store: store, BaseURL: StaticBaseURL(baseURL)})
	require.NoError(t, err)
	return NewClient(session, nil)
}

var errDiskFull = errors.New("disk full")
