package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/nhle/taskboard/internal/api"
	"github.com/nhle/taskboard/internal/store"
)

// ServeCmd runs the HTTP API server.
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		Example: heredoc.Doc(`
			$ taskboard serve
			$ taskboard serve --addr :9090
			$ DATABASE_URL=postgres://localhost/taskboard taskboard serve
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, cleanup, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}

			dsn := cfg.Database.DSN
			if dialect, _ := store.DialectFor(dsn); dialect == store.DialectSQLite && dsn != ":memory:" {
				if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
					return fmt.Errorf("creating database directory: %w", err)
				}
			}

			st, err := store.Open(dsn)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer st.Close()
			logger.Info("store ready", "dialect", st.Dialect())

			return api.NewServer(st, logger).Run(commandContext(cmd), cfg.Server.Addr)
		},
	}

	cmd.Flags().String("addr", "", "Listen address, overrides server.addr")

	return cmd
}
