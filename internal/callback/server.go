package callback

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/google/uuid"

	"linkstash/internal/auth"
	"linkstash/internal/tokenstore"
	"linkstash/pkg/logging"
)

// DefaultCallbackPort is the default port for the local callback server.
const DefaultCallbackPort = 3000

// CallbackTimeout is how long to wait for the browser to come back.
const CallbackTimeout = 10 * time.Minute

const (
	callbackPath = "/callback"
	capturePath  = "/callback/capture"

	// maxFragmentSize bounds the capture request body.
	maxFragmentSize = 64 << 10
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(
	template.New("callback").Funcs(sprig.FuncMap()).ParseFS(templateFS, "templates/*.html"),
)

// Result is the outcome of a successful capture.
type Result struct {
	Tokens auth.TokenSet
}

// Server is a temporary local HTTP server for receiving the login redirect.
// It starts, waits for a single capture, then shuts down.
type Server struct {
	port  int
	store tokenstore.Store

	server    *http.Server
	listener  net.Listener
	serverURL string

	resultCh chan *Result
	errorCh  chan error
	once     sync.Once
	stopOnce sync.Once
}

// NewServer creates a callback server that stores captured tokens in store.
// A port of 0 picks a free port.
func NewServer(store tokenstore.Store, port int) *Server {
	return &Server{
		port:     port,
		store:    store,
		resultCh: make(chan *Result, 1),
		errorCh:  make(chan error, 1),
	}
}

// Start begins listening on 127.0.0.1 and returns the redirect URI to hand to
// the login endpoint. The server stops when ctx is cancelled.
func (s *Server) Start(ctx context.Context) (string, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to start callback server on %s: %w", addr, err)
	}

	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port
	s.serverURL = fmt.Sprintf("http://localhost:%d", s.port)

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errorCh <- err:
			default:
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	logging.Debug("Callback", "Listening for login redirect on %s", s.RedirectURI())
	return s.RedirectURI(), nil
}

// Handler returns the HTTP handler serving the callback routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+callbackPath, s.handlePage)
	mux.HandleFunc("POST "+capturePath, s.handleCapture)
	return mux
}

// WaitForCallback blocks until a capture has been processed, the server
// fails, or ctx is done.
func (s *Server) WaitForCallback(ctx context.Context) (*Result, error) {
	select {
	case result := <-s.resultCh:
		return result, nil
	case err := <-s.errorCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop gracefully shuts down the server. It is safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.server.Shutdown(ctx)
		}
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
}

// RedirectURI returns the URI the backend should redirect to after login.
func (s *Server) RedirectURI() string {
	return s.serverURL + callbackPath
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.port
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	nonce := uuid.NewString()
	setSecurityHeaders(w, nonce)

	s.render(w, http.StatusOK, "page.html", map[string]interface{}{
		"Nonce":       nonce,
		"CapturePath": capturePath,
	})
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	setSecurityHeaders(w, "")

	if !s.sameOrigin(r) {
		http.Error(w, "Cross-origin capture refused", http.StatusForbidden)
		return
	}

	var handled bool
	s.once.Do(func() {
		handled = true
		s.processCapture(w, r)
	})

	if !handled {
		http.Error(w, "Callback already processed", http.StatusConflict)
	}
}

// processCapture runs exactly once per server.
func (s *Server) processCapture(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFragmentSize))
	if err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("failed to read callback body: %w", err))
		return
	}

	fragment := strings.TrimPrefix(strings.TrimSpace(string(body)), "#")

	tokens, err := auth.Capture(r.Context(), s.store, fragment)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrMissingAccessToken) {
			status = http.StatusBadRequest
		}
		s.fail(w, status, err)
		return
	}

	s.render(w, http.StatusOK, "success.html", map[string]interface{}{
		"TokenType":  tokens.TokenType,
		"HasRefresh": tokens.HasRefreshToken(),
	})

	select {
	case s.resultCh <- &Result{Tokens: tokens}:
	default:
	}
	s.stopSoon()
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	logging.Warn("Callback", "Login capture failed: %v", err)
	s.render(w, status, "error.html", map[string]interface{}{
		"Message": err.Error(),
	})

	select {
	case s.errorCh <- err:
	default:
	}
	s.stopSoon()
}

// stopSoon shuts the server down after the response has had time to flush.
func (s *Server) stopSoon() {
	if s.server == nil {
		return
	}
	go func() {
		time.Sleep(1 * time.Second)
		s.Stop()
	}()
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf strings.Builder
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		logging.Error("Callback", err, "Failed to render %s", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, buf.String())
}

// sameOrigin rejects captures posted by pages other than our own. Requests
// without an Origin header (non-browser clients) are allowed.
func (s *Server) sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if s.port == 0 {
		return false
	}
	for _, host := range []string{"localhost", "127.0.0.1"} {
		if origin == fmt.Sprintf("http://%s:%d", host, s.port) {
			return true
		}
	}
	return false
}

func setSecurityHeaders(w http.ResponseWriter, nonce string) {
	csp := "default-src 'none'; style-src 'unsafe-inline'; connect-src 'self'"
	if nonce != "" {
		csp += fmt.Sprintf("; script-src 'nonce-%s'", nonce)
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", csp)
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")
}
