package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"linkstash/internal/config"
	"linkstash/internal/formatting"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change the CLI configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration: defaults, overlaid by config.yaml,
overlaid by LINKSTASH_* environment variables. Secrets are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configSetBaseURLCmd = &cobra.Command{
	Use:   "set-base-url <url>",
	Short: "Set the backend base URL",
	Long: `Set and persist the backend base URL. A trailing slash is removed.
Pass an empty string to restore the default (` + config.DefaultBaseURL + `).`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigSetBaseURL,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetBaseURLCmd)
	configCmd.AddCommand(configPathCmd)
}

// loadConfigManager loads the configuration and sets up logging from it.
func loadConfigManager(cmd *cobra.Command) (*config.Manager, error) {
	dir := configDir
	if dir == "" {
		var err error
		dir, err = config.DefaultConfigDir()
		if err != nil {
			return nil, err
		}
	}

	mgr, err := config.NewManager(dir)
	if err != nil {
		return nil, err
	}
	if err := initLogging(cmd, mgr.Config()); err != nil {
		return nil, err
	}
	return mgr, nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	format, err := formatting.ParseOutputFormat(outputFormat)
	if err != nil {
		return err
	}
	mgr, err := loadConfigManager(cmd)
	if err != nil {
		return err
	}

	formatter := formatting.NewFactory().CreateFormatter(formatting.Options{Format: format, Output: cmd.OutOrStdout()})
	cfg := mgr.Config().Redacted()
	return formatter.FormatData(map[string]interface{}{
		"configFile":                mgr.Path(),
		"baseUrl":                   cfg.BaseURL,
		"callbackPort":              cfg.CallbackPort,
		"httpTimeout":               cfg.HTTPTimeout.String(),
		"logLevel":                  cfg.LogLevel,
		"tokenStore.backend":        cfg.TokenStore.Backend,
		"tokenStore.dir":            cfg.TokenStore.Dir,
		"tokenStore.sqlitePath":     cfg.TokenStore.SQLitePath,
		"tokenStore.redisAddr":      cfg.TokenStore.RedisAddr,
		"tokenStore.redisPassword":  cfg.TokenStore.RedisPassword,
		"tokenStore.redisDB":        cfg.TokenStore.RedisDB,
		"tokenStore.redisKeyPrefix": cfg.TokenStore.RedisKeyPrefix,
	})
}

func runConfigSetBaseURL(cmd *cobra.Command, args []string) error {
	mgr, err := loadConfigManager(cmd)
	if err != nil {
		return err
	}

	if err := mgr.SetBaseURL(args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Base URL set to %s\n", mgr.BaseURL())
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	mgr, err := loadConfigManager(cmd)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), mgr.Path())
	return nil
}
