package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"linkstash/internal/tokenstore"
	"linkstash/pkg/logging"
)

// FragmentFromURL returns the fragment part of a redirect URL. Input without
// a '#' is assumed to already be a fragment and is returned unchanged.
func FragmentFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[i+1:]
	}
	return raw
}

// ParseFragment decodes a redirect fragment of the form
// access_token=...&refresh_token=...&token_type=...
//
// Decoding is lenient: malformed pairs are skipped and the remaining ones
// are used. A missing or empty access_token yields ErrMissingAccessToken.
func ParseFragment(fragment string) (TokenSet, error) {
	values, err := url.ParseQuery(FragmentFromURL(fragment))
	if err != nil {
		logging.Debug("Capture", "Ignoring malformed pairs in redirect fragment: %v", err)
	}

	ts := TokenSet{
		AccessToken:  values.Get("access_token"),
		RefreshToken: values.Get("refresh_token"),
		TokenType:    values.Get("token_type"),
	}
	if ts.AccessToken == "" {
		return TokenSet{}, ErrMissingAccessToken
	}
	if ts.TokenType == "" {
		ts.TokenType = DefaultTokenType
	}
	return ts, nil
}

// Capture parses fragment and persists the resulting session with exactly
// one store write. It returns only after the store has acknowledged the
// write. A store failure is returned as a fatal capture error; nothing is
// retried.
func Capture(ctx context.Context, store tokenstore.Store, fragment string) (TokenSet, error) {
	ts, err := ParseFragment(fragment)
	if err != nil {
		slog.Warn("SECURITY_AUDIT: redirect capture rejected",
			"event", "token_capture_rejected",
			"reason", err.Error(),
		)
		return TokenSet{}, err
	}

	if err := store.Set(ctx, ts.storeValues()); err != nil {
		return TokenSet{}, fmt.Errorf("failed to store captured tokens: %w", err)
	}

	slog.Info("SECURITY_AUDIT: session captured from login redirect",
		"event", "token_captured",
		"token_type", ts.TokenType,
		"has_refresh_token", ts.HasRefreshToken(),
	)
	return ts, nil
}
