package formatting

import (
	"encoding/json"
	"fmt"

	"linkstash/internal/bookmarks"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// FormatBookmarks writes {"bookmarks": [...], "count": n}.
func (f *JSONFormatter) FormatBookmarks(list []bookmarks.Bookmark) error {
	if list == nil {
		list = []bookmarks.Bookmark{}
	}
	return f.FormatData(map[string]interface{}{
		"bookmarks": list,
		"count":     len(list),
	})
}

// FormatSaved writes the new id with the saved URL and title.
func (f *JSONFormatter) FormatSaved(id string, page bookmarks.Page) error {
	return f.FormatData(map[string]interface{}{
		"id":    id,
		"url":   page.URL,
		"title": page.Title,
	})
}

// FormatProfile writes the profile as returned by the backend.
func (f *JSONFormatter) FormatProfile(profile *bookmarks.Profile) error {
	return f.FormatData(profile)
}

// FormatStatus writes the session status.
func (f *JSONFormatter) FormatStatus(status SessionStatus) error {
	return f.FormatData(status)
}

// FormatData writes data as indented JSON.
func (f *JSONFormatter) FormatData(data interface{}) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	_, err = fmt.Fprintln(f.options.writer(), string(b))
	return err
}

// SetOptions updates the formatter options
func (f *JSONFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *JSONFormatter) GetOptions() Options {
	return f.options
}
