package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"linkstash/pkg/logging"
)

// Key names of the session slots. They are logically one unit but are
// stored as independent entries.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyTokenType    = "tokenType"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// ErrClosed is returned by operations on a store that has been closed.
var ErrClosed = errors.New("token store is closed")

// Store is a durable key/value store for session tokens.
//
// Get returns only the keys that are present; absent keys are omitted from
// the result rather than mapped to "". Set writes every key of values as one
// unit where the backend allows it; an empty value deletes the key. A Get
// issued after Set returns observes the write.
//
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, values map[string]string) error
	Close() error
}

// Config selects and configures a Store backend.
type Config struct {
	// Backend is one of "file", "memory", "sqlite" or "redis".
	Backend string

	// Dir holds tokens.json for the file backend and is the default parent
	// of the sqlite database.
	Dir string

	// SQLitePath is the database file for the sqlite backend.
	// Defaults to Dir/tokens.db.
	SQLitePath string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
}

// Open creates the Store described by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = BackendFile
	}

	logging.Debug("TokenStore", "Opening %s token store", backend)

	switch backend {
	case BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			if cfg.Dir == "" {
				return nil, errors.New("sqlite token store needs a path or a directory")
			}
			path = filepath.Join(cfg.Dir, "tokens.db")
		}
		return OpenSQLiteStore(ctx, path)
	case BackendRedis:
		return NewRedisStore(ctx, RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown token store backend %q", cfg.Backend)
	}
}

// dedupe drops empty and repeated key names while keeping order.
func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
