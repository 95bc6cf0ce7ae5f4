// Package formatting renders command results for the terminal.
//
// Every result type can be written as a rich table (the default), as JSON
// for scripting, or as YAML.
package formatting

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"linkstash/internal/bookmarks"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// ParseOutputFormat validates a user-supplied format name.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use table, json or yaml)", s)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Output io.Writer // Defaults to os.Stdout
}

func (o Options) writer() io.Writer {
	if o.Output == nil {
		return os.Stdout
	}
	return o.Output
}

// SessionStatus is what "auth status" reports. Token values are never part
// of it.
type SessionStatus struct {
	SignedIn        bool       `json:"signedIn" yaml:"signedIn"`
	BaseURL         string     `json:"baseUrl" yaml:"baseUrl"`
	StoreBackend    string     `json:"storeBackend" yaml:"storeBackend"`
	TokenType       string     `json:"tokenType,omitempty" yaml:"tokenType,omitempty"`
	HasRefreshToken bool       `json:"hasRefreshToken" yaml:"hasRefreshToken"`
	Subject         string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	Issuer          string     `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
}

// Expired reports whether the access token's exp claim is in the past.
func (s SessionStatus) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}

// Formatter renders linkstash results.
type Formatter interface {
	FormatBookmarks(list []bookmarks.Bookmark) error
	FormatSaved(id string, page bookmarks.Page) error
	FormatProfile(profile *bookmarks.Profile) error
	FormatStatus(status SessionStatus) error
	FormatData(data interface{}) error

	SetOptions(options Options)
	GetOptions() Options
}

// Factory creates formatters for different output formats
type Factory interface {
	CreateFormatter(options Options) Formatter
}

// NewFactory creates a new formatter factory
func NewFactory() Factory {
	return &factory{}
}

type factory struct{}

// CreateFormatter creates the appropriate formatter based on options
func (f *factory) CreateFormatter(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}
