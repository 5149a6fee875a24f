// Package cli defines the taskboard command tree.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nhle/taskboard/internal/client"
	"github.com/nhle/taskboard/internal/logging"
	"github.com/nhle/taskboard/internal/model"
)

// requestTimeout bounds a single API call made by a one-shot command.
const requestTimeout = 15 * time.Second

// appName is the name desktop notifications are shown under.
const appName = "taskboard"

// New returns the root command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taskboard",
		Short: "Todos and change requests with live comment threads",
		Long: heredoc.Doc(`
			Taskboard keeps a personal todo board next to a list of change
			requests. Comment threads refresh in the background and new
			comments raise a desktop notification.
		`),
		Example: heredoc.Doc(`
			$ taskboard serve
			$ taskboard board
			$ taskboard unread --watch
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		ServeCmd(),
		BoardCmd(),
		UnreadCmd(),
		NotificationsCmd(),
		TodoCmd(),
	)

	cmd.PersistentFlags().StringP("config", "c", model.DefaultConfigPath(), "Config file path")
	cmd.MarkPersistentFlagFilename("config")
	cmd.PersistentFlags().String("url", "", "API base URL, overrides client.base_url")

	return cmd
}

// loadConfig reads the file named by --config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*model.AppConfig, string, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, "", fmt.Errorf("getting config flag value: %w", err)
	}
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	if url, _ := cmd.Flags().GetString("url"); url != "" {
		cfg.Client.BaseURL = url
	}
	return cfg, path, nil
}

// setup loads the config and builds the logger. The returned cleanup
// closes the log file, if any.
func setup(cmd *cobra.Command) (*model.AppConfig, *log.Logger, func(), error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, closer, err := logging.FromConfig(cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	cleanup := func() {
		if closer != nil {
			closer.Close()
		}
	}
	return cfg, logger, cleanup, nil
}

// apiClient returns a client for the configured API server.
func apiClient(cmd *cobra.Command) (*client.Client, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return client.New(cfg.Client.BaseURL), nil
}

// commandContext returns the context the command was executed with.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
