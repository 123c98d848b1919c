package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/folio/internal/config"
	"github.com/zjrosen/folio/internal/log"
)

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Document session manager for editor shells",
	Long: `Folio manages editor tab sessions: open documents, preview tabs,
pinned tabs, navigation history, and persisted snapshots keyed by
project. Embedding editors drive it through the session API; this CLI
inspects and maintains the snapshot store.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/folio/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug logging to folio.log")
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("session.history_limit", defaults.Session.HistoryLimit)
	viper.SetDefault("session.change_notify_ms", defaults.Session.ChangeNotifyMs)
	viper.SetDefault("session.diff_recompute_ms", defaults.Session.DiffRecomputeMs)
	viper.SetDefault("analysis.outline_retries", defaults.Analysis.OutlineRetries)
	viper.SetDefault("analysis.outline_backoff_ms", defaults.Analysis.OutlineBackoffMs)
	viper.SetDefault("analysis.head_cache_ttl_seconds", defaults.Analysis.HeadCacheTTLSeconds)
	viper.SetDefault("watcher.enabled", defaults.Watcher.Enabled)
	viper.SetDefault("watcher.debounce_ms", defaults.Watcher.DebounceMs)
	viper.SetDefault("storage.db_path", defaults.Storage.DBPath)
	viper.SetDefault("storage.persist_delay_ms", defaults.Storage.PersistDelayMs)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .folio/config.yaml (current directory)
		// 2. ~/.config/folio/config.yaml (user config)
		if _, err := os.Stat(".folio/config.yaml"); err == nil {
			viper.SetConfigFile(".folio/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "folio"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".folio/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)

	if debug {
		if _, err := log.Init("folio.log"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file: %v\n", err)
		}
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
