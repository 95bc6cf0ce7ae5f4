package auth

import (
	"golang.org/x/oauth2"

	"linkstash/internal/tokenstore"
)

// DefaultTokenType is assumed when the redirect does not name one.
const DefaultTokenType = "bearer"

// TokenSet is a captured or refreshed session.
// AccessToken is always non-empty for a usable set; RefreshToken may be
// empty, meaning refresh is unavailable.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// HasRefreshToken reports whether the set can be refreshed.
func (t TokenSet) HasRefreshToken() bool {
	return t.RefreshToken != ""
}

// OAuth2 converts the set into an oauth2.Token.
// The type is always presented as Bearer on the wire.
func (t TokenSet) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    "Bearer",
	}
}

// storeValues is the persisted form of the set.
func (t TokenSet) storeValues() map[string]string {
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = DefaultTokenType
	}
	return map[string]string{
		tokenstore.KeyAccessToken:  t.AccessToken,
		tokenstore.KeyRefreshToken: t.RefreshToken,
		tokenstore.KeyTokenType:    tokenType,
	}
}

// tokenSetFromStore rebuilds a set from store values.
func tokenSetFromStore(values map[string]string) TokenSet {
	ts := TokenSet{
		AccessToken:  values[tokenstore.KeyAccessToken],
		RefreshToken: values[tokenstore.KeyRefreshToken],
		TokenType:    values[tokenstore.KeyTokenType],
	}
	if ts.TokenType == "" {
		ts.TokenType = DefaultTokenType
	}
	return ts
}
