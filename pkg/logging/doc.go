// Package logging provides the structured logging used across linkstash.
//
// It is a thin layer over log/slog. Every record carries a subsystem
// attribute so output from the token store, the auth session and the CLI
// can be told apart:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("TokenStore", "Opened %s backend", backend)
//	logging.Debug("AuthClient", "Retrying %s %s with refreshed token", method, url)
//	logging.Error("Capture", err, "Failed to persist tokens")
//
// InitForCLI also installs the logger as the slog default, so packages that
// emit security audit records with slog directly end up in the same stream.
//
// Token values must never be passed to this package.
package logging
