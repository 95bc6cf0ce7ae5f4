package formatting

import (
	"fmt"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"linkstash/internal/bookmarks"
	pkgstrings "linkstash/pkg/strings"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
	now     func() time.Time
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
		now:     time.Now,
	}
}

// FormatBookmarks lists bookmarks newest first, as returned by the backend.
func (f *TableFormatter) FormatBookmarks(list []bookmarks.Bookmark) error {
	if len(list) == 0 {
		f.printEmptyMessage("No bookmarks yet.")
		return nil
	}

	t := f.createTable()
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("TITLE"),
		text.FgHiCyan.Sprint("URL"),
		text.FgHiCyan.Sprint("SAVED"),
	})
	for _, b := range list {
		title := b.Title
		if title == "" {
			title = text.FgHiBlack.Sprint("(no title)")
		}
		t.AppendRow(table.Row{pkgstrings.Truncate(title, pkgstrings.DefaultTitleMaxLen), pkgstrings.Truncate(b.URL, pkgstrings.DefaultURLMaxLen), b.CreatedAt})
	}
	t.Render()

	fmt.Fprintf(f.options.writer(), "\n%s %s\n",
		text.FgHiBlue.Sprint("Total:"),
		text.FgHiWhite.Sprint(len(list)))
	return nil
}

// FormatSaved confirms a saved bookmark.
func (f *TableFormatter) FormatSaved(id string, page bookmarks.Page) error {
	fmt.Fprintf(f.options.writer(), "%s Saved.\n", text.FgGreen.Sprint("✓"))

	t := f.createTable()
	t.AppendRow(table.Row{text.FgHiCyan.Sprint("Bookmark id"), id})
	t.AppendRow(table.Row{text.FgHiCyan.Sprint("URL"), page.URL})
	if page.Title != "" {
		t.AppendRow(table.Row{text.FgHiCyan.Sprint("Title"), pkgstrings.Truncate(page.Title, pkgstrings.DefaultURLMaxLen)})
	}
	t.Render()
	return nil
}

// FormatProfile shows the user id and linked identities.
func (f *TableFormatter) FormatProfile(profile *bookmarks.Profile) error {
	fmt.Fprintf(f.options.writer(), "%s %s\n", text.FgHiCyan.Sprint("User:"), profile.UserID)

	if len(profile.Identities) == 0 {
		f.printEmptyMessage("No linked identities.")
		return nil
	}

	t := f.createTable()
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("PROVIDER"),
		text.FgHiCyan.Sprint("EMAIL"),
		text.FgHiCyan.Sprint("NAME"),
		text.FgHiCyan.Sprint("LINKED"),
	})
	for _, id := range profile.Identities {
		t.AppendRow(table.Row{id.Provider, id.Email, id.Name, id.CreatedAt})
	}
	t.Render()
	return nil
}

// FormatStatus shows the local session state.
func (f *TableFormatter) FormatStatus(status SessionStatus) error {
	t := f.createTable()

	signedIn := text.FgRed.Sprint("no")
	if status.SignedIn {
		signedIn = text.FgGreen.Sprint("yes")
	}

	t.AppendRow(table.Row{text.FgHiCyan.Sprint("Signed in"), signedIn})
	t.AppendRow(table.Row{text.FgHiCyan.Sprint("Backend"), status.BaseURL})
	t.AppendRow(table.Row{text.FgHiCyan.Sprint("Token store"), status.StoreBackend})

	if status.SignedIn {
		t.AppendRow(table.Row{text.FgHiCyan.Sprint("Token type"), status.TokenType})
		t.AppendRow(table.Row{text.FgHiCyan.Sprint("Refresh token"), yesNo(status.HasRefreshToken)})
		if status.Subject != "" {
			t.AppendRow(table.Row{text.FgHiCyan.Sprint("Subject"), status.Subject})
		}
		if status.Issuer != "" {
			t.AppendRow(table.Row{text.FgHiCyan.Sprint("Issuer"), status.Issuer})
		}
		if status.ExpiresAt != nil {
			expiry := status.ExpiresAt.Local().Format(time.RFC1123)
			if status.Expired(f.now()) {
				expiry = text.FgYellow.Sprintf("%s (expired, will refresh on next request)", expiry)
			}
			t.AppendRow(table.Row{text.FgHiCyan.Sprint("Access token expires"), expiry})
		}
	}

	t.Render()
	return nil
}

// FormatData formats generic data as key-value pairs.
func (f *TableFormatter) FormatData(data interface{}) error {
	switch d := data.(type) {
	case map[string]interface{}:
		return f.formatObjectData(d)
	case string:
		fmt.Fprintln(f.options.writer(), d)
	default:
		fmt.Fprintf(f.options.writer(), "%v\n", d)
	}
	return nil
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.options.writer())
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) printEmptyMessage(message string) {
	fmt.Fprintf(f.options.writer(), "%s %s\n", text.FgYellow.Sprint("📋"), text.FgYellow.Sprint(message))
}

func (f *TableFormatter) formatObjectData(data map[string]interface{}) error {
	t := f.createTable()
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("KEY"),
		text.FgHiCyan.Sprint("VALUE"),
	})

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		t.AppendRow(table.Row{text.FgHiCyan.Sprint(key), pkgstrings.Truncate(fmt.Sprintf("%v", data[key]), 100)})
	}

	t.Render()
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
