package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"linkstash/internal/auth"
	"linkstash/internal/callback"
	"linkstash/internal/config"
	"linkstash/internal/formatting"
	"linkstash/pkg/logging"
)

// Auth-specific flags
var (
	loginNoBrowser bool
	loginTimeout   time.Duration
	logoutLocal    bool
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your Linkstash session",
	Long: `Manage the locally stored Linkstash session.

Examples:
  linkstash auth login                 # Sign in through the browser
  linkstash auth login --no-browser    # Print the login URL instead of opening it
  linkstash auth capture <url>         # Store tokens from a pasted redirect URL
  linkstash auth status                # Show the stored session
  linkstash auth refresh               # Exchange the refresh token now
  linkstash auth logout                # Revoke and forget the session`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in through the browser",
	Long: `Sign in to the configured Linkstash backend.

A temporary server on 127.0.0.1 receives the browser redirect after login
and stores the returned tokens. The command waits until that happens or the
timeout expires.`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authCaptureCmd = &cobra.Command{
	Use:   "capture [redirect-url]",
	Short: "Store tokens from a login redirect URL",
	Long: `Store the session carried by a login redirect URL.

Use this when the browser cannot reach the local callback server, for
example on a remote machine: copy the URL the browser was redirected to
(including everything after '#') and pass it as the argument, or paste it
when prompted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthCapture,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the access token now",
	Long: `Exchange the stored refresh token for a new token pair.

Requests refresh automatically when the backend rejects an expired token;
this command is useful to check that the stored refresh token still works.`,
	Args: cobra.NoArgs,
	RunE: runAuthRefresh,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke and forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authCaptureCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)
	authCmd.AddCommand(authLogoutCmd)

	authLoginCmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "Print the login URL instead of opening a browser")
	authLoginCmd.Flags().DurationVar(&loginTimeout, "timeout", callback.CallbackTimeout, "How long to wait for the browser to finish")
	authLogoutCmd.Flags().BoolVar(&logoutLocal, "local", false, "Only forget the local session, do not revoke on the backend")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithTimeout(commandContext(cmd), loginTimeout)
	defer cancel()
	warnOnBaseURLChange(rt.config, cmd.ErrOrStderr())
	rt.watchConfig(ctx)

	out := cmd.OutOrStdout()
	server := callback.NewServer(rt.store, rt.config.Config().CallbackPort)
	redirectURI, err := server.Start(ctx)
	if err != nil {
		return &authFailedError{err: err}
	}
	defer server.Stop()

	var opener auth.URLOpener = auth.BrowserOpener{}
	if loginNoBrowser {
		opener = auth.URLOpenerFunc(func(u string) error {
			fmt.Fprintf(out, "Open this URL in your browser to sign in:\n\n  %s\n\n", u)
			return nil
		})
	}

	loginURL, err := auth.NewLoginInitiator(rt.config, opener).Start(redirectURI)
	if err != nil {
		logging.Debug("CLI", "Browser launch failed: %v", err)
		fmt.Fprintf(out, "Could not open a browser. Open this URL to sign in:\n\n  %s\n\n", loginURL)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Waiting for sign-in in the browser..."
	s.Writer = cmd.ErrOrStderr()
	s.Start()

	result, err := server.WaitForCallback(ctx)
	s.Stop()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s waiting for the browser; try 'linkstash auth capture' with the redirect URL", loginTimeout)
		}
		return &authFailedError{err: fmt.Errorf("login did not complete: %w", err)}
	}

	fmt.Fprintf(out, "%s Signed in to %s (%s token%s)\n",
		text.FgGreen.Sprint("✓"), rt.config.BaseURL(), result.Tokens.TokenType, refreshSuffix(result.Tokens))
	return nil
}

func runAuthCapture(cmd *cobra.Command, args []string) error {
	var input string
	if len(args) == 1 {
		input = args[0]
	} else {
		var err error
		input, err = readRedirectInput(cmd)
		if err != nil {
			return err
		}
	}

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	tokens, err := auth.Capture(commandContext(cmd), rt.store, auth.FragmentFromURL(input))
	if err != nil {
		return &authFailedError{err: err}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Session stored (%s token%s)\n",
		text.FgGreen.Sprint("✓"), tokens.TokenType, refreshSuffix(tokens))
	return nil
}

// readRedirectInput prompts for the redirect URL on a terminal and reads a
// single line otherwise.
func readRedirectInput(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()

	if f, ok := in.(*os.File); ok && readline.IsTerminal(int(f.Fd())) {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "Redirect URL: ",
			InterruptPrompt: "^C",
			Stdout:          cmd.ErrOrStderr(),
		})
		if err != nil {
			return "", fmt.Errorf("failed to create readline instance: %w", err)
		}
		defer rl.Close()

		line, err := rl.Readline()
		if err != nil {
			return "", fmt.Errorf("no redirect URL entered: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read redirect URL: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no redirect URL given")
	}
	return line, nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	status := formatting.SessionStatus{
		BaseURL:      rt.config.BaseURL(),
		StoreBackend: rt.config.Config().TokenStore.Backend,
	}

	tokens, err := rt.session.Tokens(commandContext(cmd))
	switch {
	case errors.Is(err, auth.ErrNotSignedIn):
	case err != nil:
		return err
	default:
		status.SignedIn = true
		status.TokenType = tokens.TokenType
		status.HasRefreshToken = tokens.HasRefreshToken()

		if claims, err := auth.InspectAccessToken(tokens.AccessToken); err == nil {
			status.Subject = claims.Subject
			status.Issuer = claims.Issuer
			status.ExpiresAt = claims.ExpiresAt
		} else {
			logging.Debug("CLI", "Access token claims unavailable: %v", err)
		}
	}

	return rt.formatter.FormatStatus(status)
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.session.Refresh(commandContext(cmd)); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Session refreshed\n", text.FgGreen.Sprint("✓"))
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if !logoutLocal {
		revoked, err := rt.bookmarks.Revoke(ctx)
		switch {
		case errors.Is(err, auth.ErrNotSignedIn):
			// A refresh token may still be stored without an access token.
			if err := rt.session.SignOut(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Not signed in.")
			return nil
		case err != nil:
			fmt.Fprintf(cmd.ErrOrStderr(), "%s Could not revoke the session on the backend: %v\n",
				text.FgYellow.Sprint("!"), err)
		default:
			logging.Debug("CLI", "Revoked %d refresh token(s)", revoked)
		}
	}

	if err := rt.session.SignOut(ctx); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Signed out\n", text.FgGreen.Sprint("✓"))
	return nil
}

// warnOnBaseURLChange tells the user when the backend changes during a
// login. The pending sign-in still belongs to the backend it was started on.
func warnOnBaseURLChange(mgr *config.Manager, w io.Writer) {
	started := mgr.BaseURL()
	mgr.OnChange(func(cfg config.Config) {
		if cfg.BaseURL == started {
			return
		}
		logging.Info("CLI", "Base URL changed from %s to %s during login", started, cfg.BaseURL)
		fmt.Fprintf(w, "%s Base URL is now %s; this sign-in was started on %s\n",
			text.FgYellow.Sprint("!"), cfg.BaseURL, started)
	})
}

func refreshSuffix(ts auth.TokenSet) string {
	if ts.HasRefreshToken() {
		return ", refresh enabled"
	}
	return ""
}
