package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// LoginPath is the backend route that starts the external login.
const LoginPath = "/login"

// URLOpener hands a URL to something that can show it to the user, such as
// a browser. The core never navigates by itself.
type URLOpener interface {
	Open(url string) error
}

// URLOpenerFunc adapts a function to URLOpener.
type URLOpenerFunc func(url string) error

// Open calls f(url).
func (f URLOpenerFunc) Open(url string) error { return f(url) }

// BuildLoginURL returns baseURL/login?return_to=<returnTo>, with returnTo
// percent-encoded the way encodeURIComponent does. baseURL is used verbatim.
func BuildLoginURL(baseURL, returnTo string) string {
	return baseURL + LoginPath + "?return_to=" + percentEncode(returnTo)
}

// componentUnescaper maps QueryEscape output onto encodeURIComponent's
// character set. QueryEscape turns a literal '+' into %2B, so every '+' left
// in its output stands for a space.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// percentEncode escapes s for use as a query value exactly as
// encodeURIComponent does.
func percentEncode(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// LoginInitiator starts the external login by opening the login URL.
type LoginInitiator struct {
	baseURL BaseURLSource
	opener  URLOpener
}

// NewLoginInitiator creates an initiator that reads the base URL from
// baseURL at start time and opens the login page with opener.
func NewLoginInitiator(baseURL BaseURLSource, opener URLOpener) *LoginInitiator {
	return &LoginInitiator{baseURL: baseURL, opener: opener}
}

// Start builds the login URL for returnTo and hands it to the opener.
// The URL is returned even when opening fails so it can be shown to the user.
func (l *LoginInitiator) Start(returnTo string) (string, error) {
	if returnTo == "" {
		return "", errors.New("return URL cannot be empty")
	}

	loginURL := BuildLoginURL(l.baseURL.BaseURL(), returnTo)
	if l.opener == nil {
		return loginURL, errors.New("no URL opener configured")
	}
	if err := l.opener.Open(loginURL); err != nil {
		return loginURL, fmt.Errorf("failed to open login page: %w", err)
	}
	return loginURL, nil
}
