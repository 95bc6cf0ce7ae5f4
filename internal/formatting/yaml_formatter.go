package formatting

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"linkstash/internal/bookmarks"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

// FormatBookmarks writes the list under a bookmarks key.
func (f *YAMLFormatter) FormatBookmarks(list []bookmarks.Bookmark) error {
	if list == nil {
		list = []bookmarks.Bookmark{}
	}
	return f.FormatData(map[string]interface{}{
		"bookmarks": list,
		"count":     len(list),
	})
}

// FormatSaved writes the new id with the saved URL and title.
func (f *YAMLFormatter) FormatSaved(id string, page bookmarks.Page) error {
	return f.FormatData(map[string]interface{}{
		"id":    id,
		"url":   page.URL,
		"title": page.Title,
	})
}

// FormatProfile writes the profile.
func (f *YAMLFormatter) FormatProfile(profile *bookmarks.Profile) error {
	return f.FormatData(profile)
}

// FormatStatus writes the session status.
func (f *YAMLFormatter) FormatStatus(status SessionStatus) error {
	return f.FormatData(status)
}

// FormatData writes data as YAML.
func (f *YAMLFormatter) FormatData(data interface{}) error {
	b, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode YAML output: %w", err)
	}
	_, err = f.options.writer().Write(b)
	return err
}

// SetOptions updates the formatter options
func (f *YAMLFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *YAMLFormatter) GetOptions() Options {
	return f.options
}
