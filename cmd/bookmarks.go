package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"linkstash/internal/bookmarks"
)

// Bookmark-specific flags
var (
	saveURL      string
	saveTitle    string
	saveHTMLFile string
	listLimit    int
)

// maxHTMLFileSize bounds the page snapshot read from --html-file.
const maxHTMLFileSize = 16 << 20

var bookmarksCmd = &cobra.Command{
	Use:     "bookmarks",
	Aliases: []string{"bm"},
	Short:   "Save and list bookmarks",
	Long: `Save and list bookmarks in your Linkstash account.

Examples:
  linkstash bookmarks save --url https://go.dev --title "Go"
  curl -s https://go.dev | linkstash bookmarks save --url https://go.dev --html-file -
  linkstash bookmarks list --limit 20
  linkstash bookmarks list -o json`,
}

var bookmarksSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a page",
	Args:  cobra.NoArgs,
	RunE:  runBookmarksSave,
}

var bookmarksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent bookmarks",
	Args:  cobra.NoArgs,
	RunE:  runBookmarksList,
}

func init() {
	rootCmd.AddCommand(bookmarksCmd)
	bookmarksCmd.AddCommand(bookmarksSaveCmd)
	bookmarksCmd.AddCommand(bookmarksListCmd)

	bookmarksSaveCmd.Flags().StringVar(&saveURL, "url", "", "URL of the page to save")
	bookmarksSaveCmd.Flags().StringVar(&saveTitle, "title", "", "Title of the page")
	bookmarksSaveCmd.Flags().StringVar(&saveHTMLFile, "html-file", "", "File with the page HTML ('-' reads stdin)")
	_ = bookmarksSaveCmd.MarkFlagRequired("url")

	bookmarksListCmd.Flags().IntVar(&listLimit, "limit", bookmarks.DefaultListLimit, fmt.Sprintf("Number of bookmarks to show (1-%d)", bookmarks.MaxListLimit))
}

func runBookmarksSave(cmd *cobra.Command, args []string) error {
	page := bookmarks.Page{URL: saveURL, Title: saveTitle}

	if saveHTMLFile != "" {
		html, err := readHTML(cmd, saveHTMLFile)
		if err != nil {
			return err
		}
		page.HTML = html
	}

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	id, err := rt.bookmarks.Save(commandContext(cmd), page)
	if err != nil {
		return err
	}
	return rt.formatter.FormatSaved(id, page)
}

func readHTML(cmd *cobra.Command, path string) (string, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open HTML file: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, maxHTMLFileSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read HTML: %w", err)
	}
	if len(data) > maxHTMLFileSize {
		return "", fmt.Errorf("HTML is larger than %d MiB", maxHTMLFileSize>>20)
	}
	return string(data), nil
}

func runBookmarksList(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	list, err := rt.bookmarks.List(commandContext(cmd), listLimit)
	if err != nil {
		return err
	}
	return rt.formatter.FormatBookmarks(list)
}
