// Package tokenstore persists the session tokens captured after login.
//
// A Store is a small key/value abstraction with Get(keys...) and
// Set(map) operations. The session lives in three independent slots
// (KeyAccessToken, KeyRefreshToken, KeyTokenType), so callers must tolerate
// a partially written session: a missing refresh token means "refresh not
// available", not corruption.
//
// # Backends
//
//   - file: a single JSON document (tokens.json) written with 0600
//     permissions and replaced atomically via rename. This is the default
//     and lets separate CLI invocations share one session.
//   - memory: process-local map, used by tests and throwaway sessions.
//   - sqlite: a kv table in a SQLite database (modernc.org/sqlite, no cgo).
//   - redis: string keys under a configurable prefix (go-redis).
//
// # Usage
//
//	store, err := tokenstore.Open(ctx, tokenstore.Config{Backend: "file", Dir: dir})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	err = store.Set(ctx, map[string]string{
//	    tokenstore.KeyAccessToken:  access,
//	    tokenstore.KeyRefreshToken: refresh,
//	})
//	values, err := store.Get(ctx, tokenstore.KeyAccessToken, tokenstore.KeyRefreshToken)
package tokenstore
