// Package cli wires the auditor commands together.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/auditor/internal/client"
	"github.com/sprite-ai/auditor/internal/config"
)

var (
	cfg      = config.Default()
	logger   = slog.Default()
	logLevel = slog.LevelInfo
)

var rootCmd = &cobra.Command{
	Use:   "auditor",
	Short: "Line-level code audit tracking",
	Long: `auditor records which lines of a codebase have been reviewed, which were
modified since the last review and which can be ignored, and keeps review
comments attached to lines.

Run "auditor serve" for the audit service and "auditor review <files>" to
audit files in the terminal.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath(), "path to the config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("endpoint", "", "audit service URL (overrides config)")

	rootCmd.AddCommand(reviewCmd, serveCmd, markCmd, transformCmd, statusCmd, priorityCmd, versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if endpoint, _ := cmd.Flags().GetString("endpoint"); endpoint != "" {
		loaded.Client.Endpoint = endpoint
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := parseLevel(levelName)
	if err != nil {
		return err
	}
	logLevel = level
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// newClient connects to the configured audit service.
func newClient() *client.Client {
	return client.New(cfg.Client.Endpoint, client.WithTimeout(cfg.Client.Timeout), client.WithLogger(logger))
}
