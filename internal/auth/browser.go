package auth

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// browserLauncher starts the command that opens the browser.
// Tests replace it to avoid launching a real browser.
var browserLauncher = func(cmd *exec.Cmd) error {
	return cmd.Start()
}

// BrowserOpener is a URLOpener that uses the platform's default browser.
type BrowserOpener struct{}

// Open implements URLOpener.
func (BrowserOpener) Open(url string) error {
	return OpenBrowser(url)
}

// OpenBrowser opens the specified URL in the default web browser.
// It supports Linux, macOS, and Windows. Only http and https URLs are
// accepted.
func OpenBrowser(rawURL string) error {
	if rawURL == "" {
		return errors.New("URL cannot be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("refusing to open URL with scheme %q", parsed.Scheme)
	}

	cmd, err := browserCommand(runtime.GOOS, rawURL)
	if err != nil {
		return err
	}

	// Start the command but don't wait for it to complete
	if err := browserLauncher(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

func browserCommand(goos, rawURL string) (*exec.Cmd, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", rawURL), nil
	case "darwin":
		return exec.Command("open", rawURL), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
