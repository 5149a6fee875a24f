package cli

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/nhle/taskboard/internal/client"
	"github.com/nhle/taskboard/internal/localstore"
	"github.com/nhle/taskboard/internal/readstate"
	appsync "github.com/nhle/taskboard/internal/sync"
)

// UnreadCmd prints the total number of unread comments.
func UnreadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unread",
		Short: "Print the number of unread comments across all change requests",
		Example: heredoc.Doc(`
			$ taskboard unread
			$ taskboard unread --watch
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, cleanup, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			api := client.New(cfg.Client.BaseURL)
			reads := readstate.NewStore(localstore.NewFileStorage(cfg.Storage.Dir), logger)
			poller := appsync.NewUnreadPoller(api, reads, cfg.UnreadInterval(), logger)

			ctx := commandContext(cmd)
			out := cmd.OutOrStdout()

			watch, _ := cmd.Flags().GetBool("watch")
			if !watch {
				msg := poller.Poll(ctx)
				if msg.Err != nil {
					return fmt.Errorf("counting unread comments: %w", msg.Err)
				}
				fmt.Fprintln(out, msg.Total)
				return nil
			}

			// Only changes are printed.
			last := -1
			poller.Run(ctx, func(msg appsync.UnreadMsg) {
				if msg.Err != nil || msg.Total == last {
					return
				}
				last = msg.Total
				fmt.Fprintln(out, msg.Total)
			})
			return nil
		},
	}

	cmd.Flags().BoolP("watch", "w", false, "Keep running and print the count whenever it changes")

	return cmd
}
