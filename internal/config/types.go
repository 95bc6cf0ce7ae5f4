package config

import (
	"time"

	"linkstash/internal/tokenstore"
)

// Config is the top-level configuration structure for linkstash.
type Config struct {
	// BaseURL is the backend root, without a trailing slash.
	BaseURL string `yaml:"baseUrl" env:"LINKSTASH_BASE_URL"`

	// CallbackPort is the local port the login callback server binds to.
	// 0 picks a free port.
	CallbackPort int `yaml:"callbackPort" env:"LINKSTASH_CALLBACK_PORT"`

	// HTTPTimeout bounds every backend request.
	HTTPTimeout time.Duration `yaml:"httpTimeout" env:"LINKSTASH_HTTP_TIMEOUT"`

	LogLevel string `yaml:"logLevel" env:"LINKSTASH_LOG_LEVEL"`

	TokenStore TokenStoreConfig `yaml:"tokenStore" envPrefix:"LINKSTASH_TOKEN_STORE_"`
}

// TokenStoreConfig selects and configures the session token backend.
type TokenStoreConfig struct {
	Backend        string `yaml:"backend" env:"BACKEND"`
	Dir            string `yaml:"dir,omitempty" env:"DIR"`
	SQLitePath     string `yaml:"sqlitePath,omitempty" env:"SQLITE_PATH"`
	RedisAddr      string `yaml:"redisAddr,omitempty" env:"REDIS_ADDR"`
	RedisPassword  string `yaml:"redisPassword,omitempty" env:"REDIS_PASSWORD"`
	RedisDB        int    `yaml:"redisDB,omitempty" env:"REDIS_DB"`
	RedisKeyPrefix string `yaml:"redisKeyPrefix,omitempty" env:"REDIS_KEY_PREFIX"`
}

// StoreConfig converts the settings into a tokenstore.Config.
func (c TokenStoreConfig) StoreConfig() tokenstore.Config {
	return tokenstore.Config{
		Backend:        c.Backend,
		Dir:            c.Dir,
		SQLitePath:     c.SQLitePath,
		RedisAddr:      c.RedisAddr,
		RedisPassword:  c.RedisPassword,
		RedisDB:        c.RedisDB,
		RedisKeyPrefix: c.RedisKeyPrefix,
	}
}

// Redacted returns a copy with secrets masked, suitable for display.
func (c Config) Redacted() Config {
	if c.TokenStore.RedisPassword != "" {
		c.TokenStore.RedisPassword = "********"
	}
	return c
}
