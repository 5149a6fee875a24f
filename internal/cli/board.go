package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/taskboard/internal/app"
	"github.com/nhle/taskboard/internal/client"
	"github.com/nhle/taskboard/internal/localstore"
	"github.com/nhle/taskboard/internal/logging"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/readstate"
	appsync "github.com/nhle/taskboard/internal/sync"
	"github.com/nhle/taskboard/internal/tracker"
)

// BoardCmd runs the terminal UI.
func BoardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "board",
		Aliases: []string{"ui"},
		Short:   "Open the change request and todo boards",
		Example: heredoc.Doc(`
			$ taskboard board
			$ taskboard board --url http://tracker.internal:8080
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// The terminal belongs to the UI, so logs always go to a file.
			if cfg.Log.File == "" {
				cfg.Log.File = filepath.Join(model.ConfigDir(), "board.log")
			}
			logger, closer, err := logging.FromConfig(cfg.Log)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer closer.Close()

			api := client.New(cfg.Client.BaseURL)
			storage := localstore.NewFileStorage(cfg.Storage.Dir)
			reads := readstate.NewStore(storage, logger)
			perms := notify.NewPermissions(storage)
			notifier := notify.NewAsync(notify.NewDesktop(appName), logger)
			session := tracker.New(reads, perms, notifier, logger)

			opts := app.Options{
				API:        api,
				Session:    session,
				Poller:     appsync.New(api, cfg.CommentInterval(), logger),
				Unread:     appsync.NewUnreadPoller(api, reads, cfg.UnreadInterval(), logger),
				Config:     *cfg,
				ConfigPath: path,
				Health: func(ctx context.Context, baseURL string) error {
					return client.New(baseURL).Health(ctx)
				},
				Logger: logger,
			}

			watcher, err := appsync.NewWatcher(storage.Path(readstate.StorageKey), logger)
			if err != nil {
				logger.Warn("read state watcher disabled", "err", err)
			} else {
				opts.Watcher = watcher
			}

			logger.Info("board starting", "base_url", cfg.Client.BaseURL)
			p := tea.NewProgram(app.New(opts), tea.WithAltScreen(), tea.WithContext(commandContext(cmd)))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running board: %w", err)
			}
			return nil
		},
	}
}
