package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"linkstash/internal/auth"
	"linkstash/internal/bookmarks"
	"linkstash/internal/config"
	"linkstash/internal/formatting"
	"linkstash/internal/tokenstore"
	"linkstash/pkg/logging"
)

// runtime wires the configuration, token store, session and API clients
// used by a single command invocation.
type runtime struct {
	config    *config.Manager
	store     tokenstore.Store
	session   *auth.Session
	client    *auth.Client
	bookmarks *bookmarks.Client
	formatter formatting.Formatter
}

// newRuntime loads the configuration and opens the token store. Callers must
// Close the result.
func newRuntime(cmd *cobra.Command) (*runtime, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := formatting.ParseOutputFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	mgr, err := loadConfigManager(cmd)
	if err != nil {
		return nil, err
	}
	cfg := mgr.Config()

	store, err := tokenstore.Open(ctx, cfg.TokenStore.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s token store: %w", cfg.TokenStore.Backend, err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	session, err := auth.NewSession(auth.SessionConfig{
		Store:      store,
		BaseURL:    mgr,
		HTTPClient: httpClient,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	client := auth.NewClient(session, httpClient)

	return &runtime{
		config:    mgr,
		store:     store,
		session:   session,
		client:    client,
		bookmarks: bookmarks.NewClient(client),
		formatter: formatting.NewFactory().CreateFormatter(formatting.Options{
			Format: format,
			Output: cmd.OutOrStdout(),
		}),
	}, nil
}

// watchConfig keeps the base URL current while a long-running command waits.
func (r *runtime) watchConfig(ctx context.Context) {
	if err := r.config.Watch(ctx); err != nil {
		logging.Debug("CLI", "Config hot reload unavailable: %v", err)
	}
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		logging.Warn("CLI", "Failed to close token store: %v", err)
	}
}
