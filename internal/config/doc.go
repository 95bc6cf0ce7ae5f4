// Package config loads and manages the linkstash CLI configuration.
//
// Configuration is layered: built-in defaults, then
// ~/.config/linkstash/config.yaml, then LINKSTASH_* environment variables.
// The Manager holds the effective configuration, serves the backend base
// URL to the auth layer on every request, persists base URL changes and can
// watch the file so edits made while a command runs take effect
// immediately.
//
// Example config.yaml:
//
//	baseUrl: https://stash.example.com
//	callbackPort: 3000
//	httpTimeout: 30s
//	logLevel: info
//	tokenStore:
//	  backend: sqlite
package config
