package config

import (
	"time"

	"linkstash/internal/callback"
	"linkstash/internal/tokenstore"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:8001"

	// DefaultHTTPTimeout bounds backend requests.
	DefaultHTTPTimeout = 30 * time.Second

	DefaultLogLevel = "info"

	DefaultRedisAddr = "localhost:6379"
)

// GetDefaultConfig returns the default configuration. Token files live in
// configDir.
func GetDefaultConfig(configDir string) Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		CallbackPort: callback.DefaultCallbackPort,
		HTTPTimeout:  DefaultHTTPTimeout,
		LogLevel:     DefaultLogLevel,
		TokenStore: TokenStoreConfig{
			Backend:        tokenstore.BackendFile,
			Dir:            configDir,
			RedisAddr:      DefaultRedisAddr,
			RedisKeyPrefix: tokenstore.DefaultRedisKeyPrefix,
		},
	}
}
