package bookmarks

import "fmt"

const (
	// DefaultListLimit is used when no limit is given.
	DefaultListLimit = 50

	// MaxListLimit is the largest page the backend serves.
	MaxListLimit = 200
)

// Page is a web page to save.
type Page struct {
	URL   string `json:"url" yaml:"url"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	HTML  string `json:"html,omitempty" yaml:"html,omitempty"`
}

// Bookmark is a saved page as listed by the backend.
type Bookmark struct {
	ID        string `json:"id" yaml:"id"`
	URL       string `json:"url" yaml:"url"`
	Title     string `json:"title" yaml:"title"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

// Identity is one external account linked to the user.
type Identity struct {
	Provider        string `json:"provider" yaml:"provider"`
	ProviderSubject string `json:"provider_subject" yaml:"provider_subject"`
	Email           string `json:"email" yaml:"email"`
	Name            string `json:"name" yaml:"name"`
	AvatarURL       string `json:"avatar_url" yaml:"avatar_url"`
	CreatedAt       string `json:"created_at" yaml:"created_at"`
}

// Profile describes the signed-in user.
type Profile struct {
	UserID     string     `json:"user_id" yaml:"user_id"`
	Identities []Identity `json:"identities" yaml:"identities"`
}

// APIError is returned for any non-2xx backend response.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed (%d): %s", e.Op, e.StatusCode, e.Body)
}

// ClampLimit maps n into 1..MaxListLimit. Zero or less selects
// DefaultListLimit.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultListLimit
	case n > MaxListLimit:
		return MaxListLimit
	default:
		return n
	}
}
