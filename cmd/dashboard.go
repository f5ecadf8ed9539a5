package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"clearoute/internal/api/client"
	"clearoute/internal/container"
	"clearoute/internal/dashboard"
	"clearoute/internal/logger"
)

func newDashboardCommand() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Терминальная панель аудита с автообновлением",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Flush(log)

			var source dashboard.HistorySource
			if remote {
				source = client.New(cfg.ServerURL, cfg.ClientTimeout())
			} else {
				c, err := container.NewStorage(cfg, log)
				if err != nil {
					return err
				}
				defer c.Close()
				source = c.AuditService
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return dashboard.New(source, cmd.OutOrStdout(), cfg.DashboardRefresh, log.Named("dashboard")).Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "читать журнал через HTTP API по SERVER_URL")
	return cmd
}
