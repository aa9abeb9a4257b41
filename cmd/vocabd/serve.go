package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sky-flux/vocab/internal/reminder"
	"github.com/sky-flux/vocab/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API and, unless reminder.schedule is empty, a cron job
that logs whenever the number of due words changes.

Example:
  vocabd serve --addr :3001`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withApp(cmd, func(_ context.Context, a *app) error {
		addr := a.cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		if spec := a.cfg.Reminder.Schedule; spec != "" {
			r, err := reminder.New(a.svc, spec, a.log)
			if err != nil {
				return err
			}
			if _, err := r.Check(ctx); err != nil {
				a.log.Warn("initial due check failed", "err", err)
			}
			r.Start(ctx)
			defer r.Stop()
		}

		srv := server.New(a.svc, a.log, server.WithAllowedOrigins(a.cfg.Server.CORSOrigins...))
		return srv.Run(ctx, addr)
	})
}
