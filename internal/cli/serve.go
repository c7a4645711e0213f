package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/ammo/internal/logging"
	"github.com/JonMunkholm/ammo/internal/web"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI and JSON API",
		Long: `Run the web UI and JSON API until interrupted.

On SIGINT or SIGTERM the server stops accepting requests and waits for
running bulk loads, up to SERVER_SHUTDOWN_TIMEOUT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := rootOpts.service(cmd)
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return usageError("%v", err)
			}

			level := cfg.Logging.Level
			if rootOpts.Verbose {
				level = "debug"
			}
			logging.Setup(cmd.ErrOrStderr(), level, cfg.Logging.Format)
			slog.Info("configuration loaded", "config", cfg.String())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := svc.Initialize(ctx); err != nil {
				return fail(err)
			}
			if err := web.NewServer(svc, cfg).Run(ctx); err != nil {
				return fail(err)
			}
			slog.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "interface to bind (env SERVER_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (env SERVER_PORT)")
	return cmd
}
