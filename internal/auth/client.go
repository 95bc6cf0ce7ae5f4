package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"linkstash/pkg/logging"
)

// RequestIDHeader correlates the original request and its retry.
const RequestIDHeader = "X-Request-Id"

// Client sends requests on behalf of a Session.
//
// Each call injects the current access token as a Bearer credential. A 401
// response triggers exactly one refresh followed by exactly one retry; the
// retry's response is returned as-is, whatever its status. Every other
// status is returned unchanged, so interpreting 4xx/5xx is up to the
// caller.
type Client struct {
	session    *Session
	httpClient *http.Client
}

// NewClient creates a client for session. A nil httpClient falls back to one
// with DefaultHTTPTimeout.
func NewClient(session *Session, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{session: session, httpClient: httpClient}
}

// Session returns the session backing the client.
func (c *Client) Session() *Session {
	return c.session
}

// Do sends method rawURL with header and body.
//
// header is cloned; Content-Type and every other caller header are kept,
// except Authorization, which is always replaced by the session token. body
// may be nil and is resent unchanged on retry.
//
// Errors are ErrNotSignedIn (no request sent), refresh errors after a 401
// (no retry sent), or transport failures.
func (c *Client) Do(ctx context.Context, method, rawURL string, header http.Header, body []byte) (*http.Response, error) {
	token, err := c.session.CurrentAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	requestID := header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	resp, err := c.send(ctx, method, rawURL, header, body, token, requestID)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	drainAndClose(resp)
	logging.Debug("AuthClient", "%s %s returned 401, refreshing token (request %s)", method, rawURL, requestID)

	newToken, err := c.session.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh after 401 failed: %w", err)
	}

	logging.Debug("AuthClient", "Retrying %s %s with refreshed token (request %s)", method, rawURL, requestID)
	return c.send(ctx, method, rawURL, header, body, newToken, requestID)
}

// DoJSON encodes in as the JSON request body and sends it with Do.
// A nil in sends no body.
func (c *Client) DoJSON(ctx context.Context, method, rawURL string, in interface{}) (*http.Response, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")

	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		header.Set("Content-Type", "application/json")
	}

	return c.Do(ctx, method, rawURL, header, body)
}

func (c *Client) send(ctx context.Context, method, rawURL string, header http.Header, body []byte, token, requestID string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header = header.Clone()
	if req.Header == nil {
		req.Header = http.Header{}
	}
	for k := range req.Header {
		if strings.EqualFold(k, "Authorization") {
			delete(req.Header, k)
		}
	}
	req.Header.Set(RequestIDHeader, requestID)
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}
	return resp, nil
}

// drainAndClose lets the connection be reused before the retry.
func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
	_ = resp.Body.Close()
}
