package cli

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/nhle/taskboard/internal/localstore"
	"github.com/nhle/taskboard/internal/notify"
)

// NotificationsCmd manages the desktop notification permission.
func NotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notify"},
		Short:   "Manage desktop notifications for new comments",
		Example: heredoc.Doc(`
			$ taskboard notifications status
			$ taskboard notifications enable
		`),
	}

	cmd.AddCommand(
		enableNotificationsCmd(),
		notificationStatusCmd(),
	)

	return cmd
}

func enableNotificationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Ask for permission to show desktop notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			perms := notify.NewPermissions(localstore.NewFileStorage(cfg.Storage.Dir))
			perm, err := perms.Request(notify.NewDesktop(appName))
			if err != nil {
				return fmt.Errorf("saving notification permission: %w", err)
			}

			out := cmd.OutOrStdout()
			if perm == notify.PermissionGranted {
				fmt.Fprintln(out, "Desktop notifications enabled")
			} else {
				fmt.Fprintln(out, "Desktop notifications are not available on this system")
			}
			return nil
		},
	}
}

func notificationStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the notification permission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			perm, err := notify.NewPermissions(localstore.NewFileStorage(cfg.Storage.Dir)).Load()
			if err != nil {
				return fmt.Errorf("loading notification permission: %w", err)
			}

			supported := "no"
			if notify.NewDesktop(appName).Supported() {
				supported = "yes"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "permission: %s\n", perm)
			fmt.Fprintf(out, "supported:  %s\n", supported)
			return nil
		},
	}
}
