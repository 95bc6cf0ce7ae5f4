package bookmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"linkstash/internal/auth"
	"linkstash/pkg/logging"
)

const maxResponseBody = 4 << 20

// Client calls the backend resource endpoints.
type Client struct {
	http *auth.Client
}

// NewClient creates a client that sends every request through c.
func NewClient(c *auth.Client) *Client {
	return &Client{http: c}
}

// Save stores page and returns the new bookmark id.
func (c *Client) Save(ctx context.Context, page Page) (string, error) {
	if strings.TrimSpace(page.URL) == "" {
		return "", errors.New("bookmark URL cannot be empty")
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, "Save", http.MethodPost, "/bookmarks", page, &out); err != nil {
		return "", err
	}

	logging.Debug("Bookmarks", "Saved %s as %s", page.URL, out.ID)
	return out.ID, nil
}

// List returns the most recent bookmarks, newest first. limit is clamped
// with ClampLimit.
func (c *Client) List(ctx context.Context, limit int) ([]Bookmark, error) {
	path := "/bookmarks?limit=" + strconv.Itoa(ClampLimit(limit))

	var out struct {
		Bookmarks []Bookmark `json:"bookmarks"`
	}
	if err := c.call(ctx, "List", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Bookmarks, nil
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.call(ctx, "Me", http.MethodGet, "/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Revoke invalidates every refresh token of the signed-in user on the
// backend and returns how many were revoked.
func (c *Client) Revoke(ctx context.Context) (int, error) {
	var out struct {
		Revoked int `json:"revoked"`
	}
	if err := c.call(ctx, "Revoke", http.MethodPost, "/auth/revoke", nil, &out); err != nil {
		return 0, err
	}
	return out.Revoked, nil
}

func (c *Client) call(ctx context.Context, op, method, path string, in, out interface{}) error {
	endpoint := c.http.Session().BaseURL() + path

	resp, err := c.http.DoJSON(ctx, method, endpoint, in)
	if err != nil {
		return fmt.Errorf("%s: %w", strings.ToLower(op), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", strings.ToLower(op), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", strings.ToLower(op), err)
	}
	return nil
}
