package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"linkstash/internal/auth"
	"linkstash/internal/config"
	"linkstash/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates the user has to sign in (again).
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the login or capture flow failed.
	ExitCodeAuthFailed = 3
)

// Global flags
var (
	configDir    string
	logLevel     string
	outputFormat string
)

// rootCmd represents the base command for the linkstash application.
var rootCmd = &cobra.Command{
	Use:   "linkstash",
	Short: "Save and list bookmarks in your Linkstash account",
	Long: `linkstash is the command line client for a Linkstash backend.

Sign in once with 'linkstash auth login'; the session is stored locally and
refreshed automatically when the backend reports it expired.`,
	SilenceUsage:      true,
	PersistentPreRunE: validateLogLevel,
}

// authFailedError marks errors of the interactive login and capture flows.
type authFailedError struct {
	err error
}

func (e *authFailedError) Error() string { return e.err.Error() }
func (e *authFailedError) Unwrap() error { return e.err }

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "linkstash version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		if auth.IsReauthRequired(err) {
			fmt.Fprintln(os.Stderr, "Run 'linkstash auth login' to sign in.")
		}
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	if auth.IsReauthRequired(err) {
		return ExitCodeAuthRequired
	}

	var authFailed *authFailedError
	if errors.As(err, &authFailed) || errors.Is(err, auth.ErrMissingAccessToken) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

// validateLogLevel rejects a bad --log-level before any command runs.
// Logging itself is set up once the configuration is loaded.
func validateLogLevel(cmd *cobra.Command, args []string) error {
	if logLevel == "" {
		return nil
	}
	_, err := logging.ParseLevel(logLevel)
	return err
}

// resolveLogLevel picks --log-level when given, otherwise the configured
// level (which already carries LINKSTASH_LOG_LEVEL).
func resolveLogLevel(cfg config.Config) (logging.LogLevel, error) {
	if logLevel != "" {
		return logging.ParseLevel(logLevel)
	}
	return logging.ParseLevel(cfg.LogLevel)
}

func initLogging(cmd *cobra.Command, cfg config.Config) error {
	level, err := resolveLogLevel(cfg)
	if err != nil {
		return err
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default is $HOME/.config/linkstash)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")

	rootCmd.AddCommand(newVersionCmd())
}
